package chat

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/calmsphere/calmsphere/internal/api"
	"github.com/calmsphere/calmsphere/internal/credits"
	"github.com/calmsphere/calmsphere/internal/middleware"
)

// Handler handles chat HTTP endpoints.
type Handler struct {
	svc      *Service
	validate *validator.Validate
}

// NewHandler creates a new chat handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

// Send handles POST /api/v1/chat.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	resp, err := h.svc.Send(r.Context(), userID, req.Message, req.Language)
	if err != nil {
		if _, ok := credits.IsQuotaExceeded(err); !ok {
			slog.Error("chat send", "user_id", userID, "error", err)
		}
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, resp)
}

// History handles GET /api/v1/chat/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}

	resp, err := h.svc.History(r.Context(), userID, limit)
	if err != nil {
		slog.Error("chat history", "user_id", userID, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, resp)
}

// Clear handles DELETE /api/v1/chat/history.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	if err := h.svc.Clear(r.Context(), userID); err != nil {
		slog.Error("chat clear", "user_id", userID, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSONMessage(w, http.StatusOK, "conversation history cleared")
}
