package insights

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/calmsphere/calmsphere/internal/api"
	"github.com/calmsphere/calmsphere/internal/credits"
	"github.com/calmsphere/calmsphere/internal/middleware"
)

// Handler handles the insight HTTP endpoints.
type Handler struct {
	svc      *Service
	validate *validator.Validate
}

// NewHandler creates a new insights handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

// Dashboard handles GET /api/v1/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	resp, err := h.svc.Dashboard(r.Context(), userID)
	if err != nil {
		if _, ok := credits.IsQuotaExceeded(err); !ok {
			slog.Error("dashboard analysis", "user_id", userID, "error", err)
		}
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, resp)
}

// Songs handles GET /api/v1/songs.
func (h *Handler) Songs(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	resp, err := h.svc.Songs(r.Context(), userID)
	if err != nil {
		if _, ok := credits.IsQuotaExceeded(err); !ok {
			slog.Error("song recommendations", "user_id", userID, "error", err)
		}
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, resp)
}

// JournalComment handles POST /api/v1/journal/comment.
func (h *Handler) JournalComment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	var req JournalCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	resp, err := h.svc.JournalComment(r.Context(), userID, req.Content, req.Prompt)
	if err != nil {
		if _, ok := credits.IsQuotaExceeded(err); !ok {
			slog.Error("journal comment", "user_id", userID, "error", err)
		}
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, resp)
}

// Enroll handles POST /api/v1/credits/enroll.
func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	snap, err := h.svc.Enroll(r.Context(), userID)
	if err != nil {
		slog.Error("enrolling user", "user_id", userID, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, snap)
}

// CreditStatus handles GET /api/v1/credits.
func (h *Handler) CreditStatus(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	snap, err := h.svc.CreditStatus(r.Context(), userID)
	if err != nil {
		slog.Error("credit status", "user_id", userID, "error", err)
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, snap)
}
