package user

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	userrepo "github.com/telefeed/state-core/internal/user/repo"
)

// Service handles license bookkeeping for bot users.
type Service struct {
	repo   *userrepo.UserRepo
	logger *zap.SugaredLogger
}

func NewService(db *sqlx.DB, r *userrepo.UserRepo, logger *zap.SugaredLogger) *Service {
	if r == nil {
		r = userrepo.NewUserRepo(db)
	}
	return &Service{repo: r, logger: logger}
}

// StoreLicense records a validated license code and activates the user.
func (s *Service) StoreLicense(ctx context.Context, userID, licenseCode string) error {
	if err := s.repo.UpsertLicense(ctx, userID, licenseCode, time.Now()); err != nil {
		s.logger.Errorw("store license", "user_id", userID, "err", err)
		return err
	}
	s.logger.Infow("license stored", "user_id", userID)
	return nil
}

// IsLicensed reports whether the user is active with a non-empty license code.
// Read path: store failures degrade to false, never an error.
func (s *Service) IsLicensed(ctx context.Context, userID string) bool {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Errorw("get user", "user_id", userID, "err", err)
		}
		return false
	}
	return u.Active && u.LicenseCode != nil && *u.LicenseCode != ""
}
