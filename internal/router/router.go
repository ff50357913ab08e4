package router

import (
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/telefeed/state-core/internal/auth"
	"github.com/telefeed/state-core/internal/connection"
	"github.com/telefeed/state-core/internal/export"
	"github.com/telefeed/state-core/internal/pending"
	"github.com/telefeed/state-core/internal/redirection"
	"github.com/telefeed/state-core/internal/user"
)

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware returns a middleware that logs requests at debug level using the provided sugared logger.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// SecurityHeadersMiddleware returns a middleware that sets common HTTP security headers.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RegisterRoutes mounts HTTP handlers using the standard library's http.ServeMux.
// The mutating registry operations are library calls for the bot's command
// handlers; this surface exposes the read and deployment-export paths only.
func RegisterRoutes(logger *zap.SugaredLogger, db *sqlx.DB, authSvc *auth.Service) http.Handler {
	mux := http.NewServeMux()

	// health
	mux.HandleFunc("GET /telefeed-state/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	userSvc := user.NewService(db, nil, logger)
	connSvc := connection.NewService(db, nil, nil, logger)
	redirSvc := redirection.NewService(db, nil, nil, logger)
	pendSvc := pending.NewService(db, nil, nil, nil, logger)
	exportSvc := export.NewService(db, logger)

	userHandler := user.NewHandler(userSvc, logger)
	connHandler := connection.NewHandler(connSvc, logger)
	redirHandler := redirection.NewHandler(redirSvc, logger)
	pendHandler := pending.NewHandler(pendSvc, logger)
	exportHandler := export.NewHandler(exportSvc, logger)
	authHandler := auth.NewHandler(authSvc, logger)

	mux.HandleFunc("POST /telefeed-state/auth/login", authHandler.Login)
	mux.HandleFunc("GET /telefeed-state/users/{userID}/license", userHandler.LicenseStatus)
	mux.HandleFunc("GET /telefeed-state/users/{userID}/connections", connHandler.List)
	mux.HandleFunc("GET /telefeed-state/users/{userID}/redirections", redirHandler.ListActive)
	mux.HandleFunc("GET /telefeed-state/users/{userID}/pending", pendHandler.Get)

	mux.Handle("GET /telefeed-state/export", authSvc.Middleware(http.HandlerFunc(exportHandler.All)))
	mux.Handle("GET /telefeed-state/export/{userID}", authSvc.Middleware(http.HandlerFunc(exportHandler.ForUser)))

	// wrap with security headers middleware then logging middleware
	handler := LoggingMiddleware(logger)(SecurityHeadersMiddleware()(mux))
	return handler
}
