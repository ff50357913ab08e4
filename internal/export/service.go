package export

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	connentity "github.com/telefeed/state-core/internal/connection/entity"
	pendentity "github.com/telefeed/state-core/internal/pending/entity"
	redirentity "github.com/telefeed/state-core/internal/redirection/entity"
	userentity "github.com/telefeed/state-core/internal/user/entity"
)

// Snapshot is the full per-user state across all four entity kinds.
type Snapshot struct {
	User         *userentity.User               `json:"user,omitempty"`
	Connections  []connentity.Connection        `json:"connections"`
	Redirections []redirentity.Redirection      `json:"redirections"`
	Pending      *pendentity.PendingRedirection `json:"pending,omitempty"`
}

// Dump mirrors the deployment-export shape: one map per entity kind keyed by
// user id. Consumers rely on all four keys being present even when empty.
type Dump struct {
	Licenses            map[string]string                        `json:"licenses"`
	Connections         map[string][]connentity.Connection       `json:"connections"`
	Redirections        map[string][]redirentity.Redirection     `json:"redirections"`
	PendingRedirections map[string]pendentity.PendingRedirection `json:"pending_redirections"`
}

func emptyDump() Dump {
	return Dump{
		Licenses:            map[string]string{},
		Connections:         map[string][]connentity.Connection{},
		Redirections:        map[string][]redirentity.Redirection{},
		PendingRedirections: map[string]pendentity.PendingRedirection{},
	}
}

// Service reads state for deployment export. It queries the tables directly so
// exports never touch the registries' side-effecting paths.
type Service struct {
	db     *sqlx.DB
	logger *zap.SugaredLogger
}

func NewService(db *sqlx.DB, logger *zap.SugaredLogger) *Service {
	return &Service{db: db, logger: logger}
}

// ForUser returns everything stored for one user. Read path: failures are
// logged and degrade to an empty snapshot.
func (s *Service) ForUser(ctx context.Context, userID string) Snapshot {
	snap := Snapshot{
		Connections:  []connentity.Connection{},
		Redirections: []redirentity.Redirection{},
	}

	var u userentity.User
	err := s.db.GetContext(ctx, &u,
		`SELECT user_id, license_code, validated_at, active FROM users WHERE user_id = $1`, userID)
	switch {
	case err == nil:
		snap.User = &u
	case !errors.Is(err, sql.ErrNoRows):
		s.logger.Errorw("export user", "user_id", userID, "err", err)
	}

	if err := s.db.SelectContext(ctx, &snap.Connections,
		`SELECT id, user_id, phone_number, connected_at, active, replaced_at
		 FROM connections WHERE user_id = $1`, userID); err != nil {
		s.logger.Errorw("export connections", "user_id", userID, "err", err)
	}
	if err := s.db.SelectContext(ctx, &snap.Redirections,
		`SELECT id, user_id, name, phone_number, channel_name, source_id, destination_id,
		 created_at, updated_at, replaced_at, active, replacement_info
		 FROM redirections WHERE user_id = $1`, userID); err != nil {
		s.logger.Errorw("export redirections", "user_id", userID, "err", err)
	}

	var p pendentity.PendingRedirection
	err = s.db.GetContext(ctx, &p,
		`SELECT id, user_id, name, phone_number, created_at
		 FROM pending_redirections WHERE user_id = $1`, userID)
	switch {
	case err == nil:
		snap.Pending = &p
	case !errors.Is(err, sql.ErrNoRows):
		s.logger.Errorw("export pending", "user_id", userID, "err", err)
	}

	return snap
}

// All returns the full deployment dump. Read path: failures are logged and
// degrade to an empty but fully-keyed dump.
func (s *Service) All(ctx context.Context) Dump {
	dump := emptyDump()

	var users []userentity.User
	if err := s.db.SelectContext(ctx, &users,
		`SELECT user_id, license_code, validated_at, active FROM users WHERE active = true`); err != nil {
		s.logger.Errorw("export licenses", "err", err)
		return dump
	}
	for _, u := range users {
		if u.LicenseCode != nil && *u.LicenseCode != "" {
			dump.Licenses[u.UserID] = *u.LicenseCode
		}
	}

	var conns []connentity.Connection
	if err := s.db.SelectContext(ctx, &conns,
		`SELECT id, user_id, phone_number, connected_at, active, replaced_at FROM connections`); err != nil {
		s.logger.Errorw("export connections", "err", err)
		return dump
	}
	for _, c := range conns {
		dump.Connections[c.UserID] = append(dump.Connections[c.UserID], c)
	}

	var redirs []redirentity.Redirection
	if err := s.db.SelectContext(ctx, &redirs,
		`SELECT id, user_id, name, phone_number, channel_name, source_id, destination_id,
		 created_at, updated_at, replaced_at, active, replacement_info FROM redirections`); err != nil {
		s.logger.Errorw("export redirections", "err", err)
		return dump
	}
	for _, red := range redirs {
		dump.Redirections[red.UserID] = append(dump.Redirections[red.UserID], red)
	}

	var pendings []pendentity.PendingRedirection
	if err := s.db.SelectContext(ctx, &pendings,
		`SELECT id, user_id, name, phone_number, created_at FROM pending_redirections`); err != nil {
		s.logger.Errorw("export pending", "err", err)
		return dump
	}
	for _, p := range pendings {
		dump.PendingRedirections[p.UserID] = p
	}

	return dump
}
