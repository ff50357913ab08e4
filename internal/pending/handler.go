package pending

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Handler exposes a read endpoint for the pending handshake manager.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Get returns the user's pending entry, or 404 when none is in flight.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	view := h.svc.Get(r.Context(), userID)
	if view == nil {
		http.Error(w, "no pending redirection", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(view); err != nil {
		h.logger.Errorw("encode pending", "err", err)
	}
}
