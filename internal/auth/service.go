package auth

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Config carries the export-API guard settings.
type Config struct {
	// Secret signs admin tokens (HS256).
	Secret string
	// AdminHash is the bcrypt hash of the admin password.
	AdminHash string
	TokenTTL  time.Duration
}

// ConfigFromEnv reads guard settings from environment variables.
func ConfigFromEnv() Config {
	ttl := 12 * time.Hour
	return Config{
		Secret:    os.Getenv("AUTH_SECRET"),
		AdminHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		TokenTTL:  ttl,
	}
}

var (
	ErrBadCredentials = errors.New("invalid credentials")
	ErrMisconfigured  = errors.New("auth secret or admin hash not configured")
	ErrInvalidToken   = errors.New("invalid token")
)

// Service issues and verifies admin tokens for the export API.
type Service struct {
	cfg    Config
	logger *zap.SugaredLogger
}

func NewService(cfg Config, logger *zap.SugaredLogger) *Service {
	return &Service{cfg: cfg, logger: logger}
}

// Login verifies the admin password against the configured bcrypt hash and
// issues a signed token.
func (s *Service) Login(password string) (string, error) {
	if s.cfg.Secret == "" || s.cfg.AdminHash == "" {
		return "", ErrMisconfigured
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminHash), []byte(password)); err != nil {
		return "", ErrBadCredentials
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": "admin",
		"iat": now.Unix(),
		"exp": now.Add(s.cfg.TokenTTL).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Verify parses and validates an admin token.
func (s *Service) Verify(token string) error {
	if s.cfg.Secret == "" {
		return ErrMisconfigured
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}

// Middleware rejects requests without a valid Bearer token.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if err := s.Verify(token); err != nil {
			s.logger.Debugw("token rejected", "err", err)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
