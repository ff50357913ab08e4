package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/telefeed/state-core/internal/auth"
	connrepo "github.com/telefeed/state-core/internal/connection/repo"
	pendingrepo "github.com/telefeed/state-core/internal/pending/repo"
	redirrepo "github.com/telefeed/state-core/internal/redirection/repo"
	"github.com/telefeed/state-core/internal/router"
	userrepo "github.com/telefeed/state-core/internal/user/repo"
	"github.com/telefeed/state-core/pkg/database"
	"github.com/telefeed/state-core/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	// init logger
	lg, err := utilities.InitLogger(utilities.LoggerConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting telefeed-state-core")

	// init db
	cfg := database.ConfigFromEnv()
	sqlDB, err := database.Connect(cfg)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer sqlDB.Close()

	// wrap with sqlx for convenience in repos/services
	sqlxDB := sqlx.NewDb(sqlDB, "postgres")
	defer sqlxDB.Close()

	// bootstrap schema
	setupCtx, cancelSetup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelSetup()
	if err := userrepo.NewUserRepo(sqlxDB).EnsureTable(setupCtx); err != nil {
		sugar.Fatalf("ensure users table: %v", err)
	}
	if err := connrepo.NewConnectionRepo(sqlxDB).EnsureTable(setupCtx); err != nil {
		sugar.Fatalf("ensure connections table: %v", err)
	}
	if err := redirrepo.NewRedirectionRepo(sqlxDB).EnsureTable(setupCtx); err != nil {
		sugar.Fatalf("ensure redirections table: %v", err)
	}
	if err := pendingrepo.NewPendingRepo(sqlxDB).EnsureTable(setupCtx); err != nil {
		sugar.Fatalf("ensure pending_redirections table: %v", err)
	}

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// mount http server
	authSvc := auth.NewService(auth.ConfigFromEnv(), sugar)
	handler := router.RegisterRoutes(sugar, sqlxDB, authSvc)
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: handler,
	}

	sugar.Infow("service is running; press Ctrl+C to stop", "port", port)

	// run server in background
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()

	sugar.Info("shutting down")

	// give a short grace period for cleanup
	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// ping db once more
	if err := sqlDB.PingContext(doneCtx); err != nil {
		sugar.Warnf("db ping on shutdown failed: %v", err)
	}

	// shutdown http server
	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
