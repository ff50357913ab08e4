package pending

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/telefeed/state-core/internal/pending/entity"
	pendingrepo "github.com/telefeed/state-core/internal/pending/repo"
	"github.com/telefeed/state-core/internal/redirection"
	redirrepo "github.com/telefeed/state-core/internal/redirection/repo"
	userrepo "github.com/telefeed/state-core/internal/user/repo"
	"github.com/telefeed/state-core/pkg/utilities"
)

// ErrNoPending is returned by Commit when the user has no in-flight request.
var ErrNoPending = errors.New("no pending redirection")

// View is the caller-facing shape of a pending entry.
type View struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	CreatedAt   string `json:"created_at"`
}

// Service is the pending handshake manager: it holds the single in-flight
// redirection request per user between the first phase (name/phone known) and
// the commit (channel identifiers resolved).
type Service struct {
	db     *sqlx.DB
	repo   *pendingrepo.PendingRepo
	redirs *redirrepo.RedirectionRepo
	users  *userrepo.UserRepo
	logger *zap.SugaredLogger
}

func NewService(db *sqlx.DB, r *pendingrepo.PendingRepo, rd *redirrepo.RedirectionRepo, u *userrepo.UserRepo, logger *zap.SugaredLogger) *Service {
	if r == nil {
		r = pendingrepo.NewPendingRepo(db)
	}
	if rd == nil {
		rd = redirrepo.NewRedirectionRepo(db)
	}
	if u == nil {
		u = userrepo.NewUserRepo(db)
	}
	return &Service{db: db, repo: r, redirs: rd, users: u, logger: logger}
}

// Store records a new pending request for the user, discarding any previous
// one (last-writer-wins). Delete and insert commit as one unit.
func (s *Service) Store(ctx context.Context, userID, name, phone string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.Errorw("store pending redirection", "user_id", userID, "err", err)
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.repo.DeleteByUser(ctx, tx, userID); err != nil {
		s.logger.Errorw("store pending redirection", "user_id", userID, "err", err)
		return fmt.Errorf("delete old pending: %w", err)
	}
	p := &entity.PendingRedirection{
		ID:          utilities.NewSnowflakeID(),
		UserID:      userID,
		Name:        name,
		PhoneNumber: phone,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.Insert(ctx, tx, p); err != nil {
		s.logger.Errorw("store pending redirection", "user_id", userID, "err", err)
		return fmt.Errorf("insert pending: %w", err)
	}
	if err := tx.Commit(); err != nil {
		s.logger.Errorw("store pending redirection", "user_id", userID, "err", err)
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Infow("pending redirection stored", "user_id", userID, "name", name, "phone", phone)
	return nil
}

// Get returns the user's pending entry or nil. Read path: absence and
// persistence failures both degrade to nil.
func (s *Service) Get(ctx context.Context, userID string) *View {
	p, err := s.repo.GetByUser(ctx, s.db, userID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Errorw("get pending redirection", "user_id", userID, "err", err)
		}
		return nil
	}
	return &View{
		Name:        p.Name,
		PhoneNumber: p.PhoneNumber,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
}

// Clear removes the user's pending entry; no-op if absent.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := s.repo.DeleteByUser(ctx, s.db, userID); err != nil {
		s.logger.Errorw("clear pending redirection", "user_id", userID, "err", err)
		return err
	}
	return nil
}

// Commit promotes the user's pending entry into a committed redirection rule
// and clears it in the same transaction, closing the crash window the
// two-call Store-add-then-Clear flow leaves open. Returns ErrNoPending when
// no request is in flight.
func (s *Service) Commit(ctx context.Context, userID string, p redirection.Params) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.Errorw("commit pending redirection", "user_id", userID, "err", err)
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	pend, err := s.repo.GetByUser(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNoPending
		}
		s.logger.Errorw("commit pending redirection", "user_id", userID, "err", err)
		return fmt.Errorf("get pending: %w", err)
	}

	if err := s.users.EnsureExists(ctx, tx, userID); err != nil {
		s.logger.Errorw("commit pending redirection", "user_id", userID, "err", err)
		return fmt.Errorf("ensure user: %w", err)
	}
	red := redirection.NewRule(userID, pend.Name, pend.PhoneNumber, p, time.Now())
	if err := s.redirs.ReplaceActive(ctx, tx, red); err != nil {
		s.logger.Errorw("commit pending redirection", "user_id", userID, "err", err)
		return fmt.Errorf("install redirection: %w", err)
	}
	if err := s.repo.DeleteByUser(ctx, tx, userID); err != nil {
		s.logger.Errorw("commit pending redirection", "user_id", userID, "err", err)
		return fmt.Errorf("clear pending: %w", err)
	}
	if err := tx.Commit(); err != nil {
		s.logger.Errorw("commit pending redirection", "user_id", userID, "err", err)
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Infow("pending redirection committed", "user_id", userID, "name", pend.Name)
	return nil
}
