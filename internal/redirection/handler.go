package redirection

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Handler exposes read endpoints for the redirection registry.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// ListActive returns the user's active rules for a phone number as JSON.
// The phone is passed as a query parameter.
func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	phone := r.URL.Query().Get("phone")
	if phone == "" {
		http.Error(w, "phone query parameter required", http.StatusBadRequest)
		return
	}
	views := h.svc.ListActive(r.Context(), userID, phone)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(views); err != nil {
		h.logger.Errorw("encode redirections", "err", err)
	}
}
