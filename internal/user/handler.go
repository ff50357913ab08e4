package user

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Handler exposes the license read endpoint.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// LicenseStatus reports whether the user holds a validated license.
func (h *Handler) LicenseStatus(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	w.Header().Set("Content-Type", "application/json")
	resp := map[string]bool{"licensed": h.svc.IsLicensed(r.Context(), userID)}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Errorw("encode license status", "err", err)
	}
}
