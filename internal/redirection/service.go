package redirection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/telefeed/state-core/internal/redirection/entity"
	redirrepo "github.com/telefeed/state-core/internal/redirection/repo"
	userrepo "github.com/telefeed/state-core/internal/user/repo"
	"github.com/telefeed/state-core/pkg/utilities"
)

// Action selects what Store does with a rule.
type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
	ActionChange Action = "change"
)

// StatusActive is the display label for active rules.
const StatusActive = "Actif"

var ErrUnknownAction = errors.New("unknown redirection action")

// Params carries the optional fields of a rule. ChannelName defaults to the
// rule name when empty.
type Params struct {
	ChannelName   string
	SourceID      *string
	DestinationID *string
}

// View is the caller-facing shape of an active rule.
type View struct {
	Name        string `json:"name"`
	ChannelName string `json:"channel_name"`
	Status      string `json:"status"`
}

// Service is the redirection registry: at most one active rule per
// (user, phone); remove and change target rules by name within a user's scope.
type Service struct {
	db     *sqlx.DB
	repo   *redirrepo.RedirectionRepo
	users  *userrepo.UserRepo
	logger *zap.SugaredLogger
}

func NewService(db *sqlx.DB, r *redirrepo.RedirectionRepo, u *userrepo.UserRepo, logger *zap.SugaredLogger) *Service {
	if r == nil {
		r = redirrepo.NewRedirectionRepo(db)
	}
	if u == nil {
		u = userrepo.NewUserRepo(db)
	}
	return &Service{db: db, repo: r, users: u, logger: logger}
}

// Store applies the given action for (user, name, phone) as one transaction.
// Remove and change are silent no-ops when no rule matches the name.
func (s *Service) Store(ctx context.Context, userID, name, phone string, action Action, p Params) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.Errorw("store redirection", "user_id", userID, "action", action, "err", err)
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.users.EnsureExists(ctx, tx, userID); err != nil {
		s.logger.Errorw("store redirection", "user_id", userID, "action", action, "err", err)
		return fmt.Errorf("ensure user: %w", err)
	}

	switch action {
	case ActionAdd:
		err = s.add(ctx, tx, userID, name, phone, p)
	case ActionRemove:
		err = s.remove(ctx, tx, userID, name)
	case ActionChange:
		err = s.change(ctx, tx, userID, name, phone, p)
	default:
		return ErrUnknownAction
	}
	if err != nil {
		s.logger.Errorw("store redirection", "user_id", userID, "action", action, "err", err)
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Errorw("store redirection", "user_id", userID, "action", action, "err", err)
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Infow("redirection stored", "user_id", userID, "action", action, "name", name)
	return nil
}

func (s *Service) add(ctx context.Context, tx *sqlx.Tx, userID, name, phone string, p Params) error {
	now := time.Now()
	red := NewRule(userID, name, phone, p, now)
	return s.repo.ReplaceActive(ctx, tx, red)
}

func (s *Service) remove(ctx context.Context, tx *sqlx.Tx, userID, name string) error {
	existing, err := s.repo.FindFirstByUserName(ctx, tx, userID, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("find redirection: %w", err)
	}
	return s.repo.DeleteByID(ctx, tx, existing.ID)
}

func (s *Service) change(ctx context.Context, tx *sqlx.Tx, userID, name, phone string, p Params) error {
	existing, err := s.repo.FindFirstByUserName(ctx, tx, userID, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("find redirection: %w", err)
	}
	channel := p.ChannelName
	if channel == "" {
		channel = name
	}
	return s.repo.UpdateByID(ctx, tx, existing.ID, phone, channel, p.SourceID, p.DestinationID, time.Now())
}

// ListActive returns the active rules for (user, phone). Read path:
// persistence failures are logged and degrade to an empty list.
func (s *Service) ListActive(ctx context.Context, userID, phone string) []View {
	rows, err := s.repo.ListActiveByUserPhone(ctx, userID, phone)
	if err != nil {
		s.logger.Errorw("get user redirections", "user_id", userID, "err", err)
		return []View{}
	}
	views := make([]View, 0, len(rows))
	for _, red := range rows {
		views = append(views, View{Name: red.Name, ChannelName: red.ChannelName, Status: StatusActive})
	}
	return views
}

// NewRule builds a fresh active redirection entity for an add. Shared with the
// pending handshake commit, which installs rules inside its own transaction.
func NewRule(userID, name, phone string, p Params, now time.Time) *entity.Redirection {
	channel := p.ChannelName
	if channel == "" {
		channel = name
	}
	return &entity.Redirection{
		ID:            utilities.NewKSUID(),
		UserID:        userID,
		Name:          name,
		PhoneNumber:   phone,
		ChannelName:   channel,
		SourceID:      p.SourceID,
		DestinationID: p.DestinationID,
		CreatedAt:     now,
		ReplacedAt:    utilities.FormatReplacedAt(now),
		Active:        true,
	}
}
