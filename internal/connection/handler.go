package connection

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Handler exposes read endpoints for the connection registry.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// List returns the user's connections as JSON.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	views := h.svc.ListByUser(r.Context(), userID)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(views); err != nil {
		h.logger.Errorw("encode connections", "err", err)
	}
}
