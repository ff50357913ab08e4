package export

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Handler exposes the deployment-export endpoints.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// All returns the full deployment dump.
func (h *Handler) All(w http.ResponseWriter, r *http.Request) {
	dump := h.svc.All(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(dump); err != nil {
		h.logger.Errorw("encode export dump", "err", err)
	}
}

// ForUser returns one user's snapshot.
func (h *Handler) ForUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	snap := h.svc.ForUser(r.Context(), userID)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		h.logger.Errorw("encode export snapshot", "err", err)
	}
}
