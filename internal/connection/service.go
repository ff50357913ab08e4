package connection

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/telefeed/state-core/internal/connection/entity"
	connrepo "github.com/telefeed/state-core/internal/connection/repo"
	userrepo "github.com/telefeed/state-core/internal/user/repo"
	"github.com/telefeed/state-core/pkg/utilities"
)

// View is the caller-facing shape of a connection row. ConnectedAt is
// ISO-8601; ReplacedAt keeps the legacy text format.
type View struct {
	Phone       string `json:"phone"`
	ConnectedAt string `json:"connected_at"`
	Active      bool   `json:"active"`
	ReplacedAt  string `json:"replaced_at"`
}

// Service is the connection registry: at most one connection per
// (user, phone), replacement by delete-then-insert in one transaction.
type Service struct {
	db     *sqlx.DB
	repo   *connrepo.ConnectionRepo
	users  *userrepo.UserRepo
	logger *zap.SugaredLogger
}

func NewService(db *sqlx.DB, r *connrepo.ConnectionRepo, u *userrepo.UserRepo, logger *zap.SugaredLogger) *Service {
	if r == nil {
		r = connrepo.NewConnectionRepo(db)
	}
	if u == nil {
		u = userrepo.NewUserRepo(db)
	}
	return &Service{db: db, repo: r, users: u, logger: logger}
}

// Store records a successful phone connection for the user, replacing any
// existing connection for the same phone. The user row, the delete and the
// insert commit as one unit.
func (s *Service) Store(ctx context.Context, userID, phone string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.Errorw("store connection", "user_id", userID, "err", err)
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.users.EnsureExists(ctx, tx, userID); err != nil {
		s.logger.Errorw("store connection", "user_id", userID, "err", err)
		return fmt.Errorf("ensure user: %w", err)
	}
	if err := s.repo.DeleteByUserPhone(ctx, tx, userID, phone); err != nil {
		s.logger.Errorw("store connection", "user_id", userID, "err", err)
		return fmt.Errorf("delete old connection: %w", err)
	}

	now := time.Now()
	c := &entity.Connection{
		ID:          utilities.NewKSUID(),
		UserID:      userID,
		PhoneNumber: phone,
		ConnectedAt: now,
		Active:      true,
		ReplacedAt:  utilities.FormatReplacedAt(now),
	}
	if err := s.repo.Insert(ctx, tx, c); err != nil {
		s.logger.Errorw("store connection", "user_id", userID, "err", err)
		return fmt.Errorf("insert connection: %w", err)
	}
	if err := tx.Commit(); err != nil {
		s.logger.Errorw("store connection", "user_id", userID, "err", err)
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Infow("connection stored", "user_id", userID, "phone", phone)
	return nil
}

// ListByUser returns all connections for the user. Read path: persistence
// failures are logged and degrade to an empty list.
func (s *Service) ListByUser(ctx context.Context, userID string) []View {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Errorw("get user connections", "user_id", userID, "err", err)
		return []View{}
	}
	views := make([]View, 0, len(rows))
	for _, c := range rows {
		views = append(views, View{
			Phone:       c.PhoneNumber,
			ConnectedAt: c.ConnectedAt.Format(time.RFC3339),
			Active:      c.Active,
			ReplacedAt:  c.ReplacedAt,
		})
	}
	return views
}
