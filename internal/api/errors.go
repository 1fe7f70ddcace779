package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/calmsphere/calmsphere/internal/credits"
	"github.com/calmsphere/calmsphere/internal/genai"
)

type AppError struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
}

func (e *AppError) Error() string {
	return e.Message
}

var (
	ErrBadRequest     = &AppError{Code: http.StatusBadRequest, Message: "bad request"}
	ErrUnauthorized   = &AppError{Code: http.StatusUnauthorized, Message: "unauthorized"}
	ErrNotFound       = &AppError{Code: http.StatusNotFound, Message: "not found"}
	ErrInternalServer = &AppError{Code: http.StatusInternalServerError, Message: "internal server error"}
	ErrValidation     = &AppError{Code: http.StatusBadRequest, Message: "validation error"}
)

func NewBadRequestError(msg string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: msg}
}

func NewValidationError(msg string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: msg}
}

// quotaResponse is the 429 body for a daily-cap rejection. Remaining lets
// the client show an accurate "come back tomorrow" message.
type quotaResponse struct {
	Error     string `json:"error"`
	Remaining int    `json:"remaining_credits"`
}

// HandleError maps domain errors onto HTTP responses. Quota rejections get
// a dedicated 429 payload carrying the remaining allowance; everything
// unrecognized collapses to a plain 500 so internal detail never leaks.
func HandleError(w http.ResponseWriter, err error) {
	if qe, ok := credits.IsQuotaExceeded(err); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(quotaResponse{
			Error:     "daily credit limit exceeded, try again tomorrow",
			Remaining: qe.Remaining,
		})
		return
	}

	if errors.Is(err, credits.ErrUserNotFound) {
		JSONErrorMessage(w, http.StatusNotFound, "user not found")
		return
	}

	var upstream *genai.UpstreamError
	var transport *genai.TransportError
	if errors.As(err, &upstream) || errors.As(err, &transport) {
		JSONErrorMessage(w, http.StatusBadGateway, "generation service unavailable")
		return
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		JSONErrorMessage(w, appErr.Code, appErr.Message)
		return
	}
	JSONErrorMessage(w, http.StatusInternalServerError, "internal server error")
}
