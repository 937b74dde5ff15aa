package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	sqliteadapter "github.com/leakguardhq/leakguard/internal/adapter/driven/sqlite"
	httphandler "github.com/leakguardhq/leakguard/internal/adapter/driving/http"
	"github.com/leakguardhq/leakguard/internal/application"
	"github.com/leakguardhq/leakguard/internal/auth"
	"github.com/leakguardhq/leakguard/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"region", cfg.Region,
		"auth_mode", cfg.AuthMode,
		"detection_mode", cfg.DetectionMode,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire store adapters.
	projectStore := sqliteadapter.NewProjectRepo(db)
	policyStore := sqliteadapter.NewPolicyRepo(db)
	keyStore := sqliteadapter.NewAPIKeyRepo(db)
	logStore := sqliteadapter.NewLogRepo(db)

	// 6. Optionally seed starter data for fresh databases.
	if cfg.Seed {
		secret, err := application.GenerateKeySecret()
		if err != nil {
			return err
		}
		seeded, err := sqliteadapter.Seed(ctx, db, secret)
		if err != nil {
			return err
		}
		if seeded != "" {
			slog.Info("seeded starter data", "api_key", seeded)
		}
	}

	// 7. Create application services.
	engine := application.NewInspectionEngine()
	ingestSvc := application.NewIngestService(
		keyStore,
		projectStore,
		logStore,
		engine,
		application.DetectionMode(cfg.DetectionMode),
		cfg.Region,
		slog.Default(),
	)
	keySvc := application.NewAPIKeyService(keyStore)
	analyticsSvc := application.NewAnalyticsService(logStore)
	chatSvc := application.NewChatService()

	// 8. Create session verifier for management routes.
	var verifier httphandler.TokenVerifier
	bypass := cfg.AuthMode == config.AuthModeBypassed
	if bypass {
		slog.Warn("session auth bypassed, management routes are unprotected")
	} else {
		verifier = auth.NewVerifier(auth.NewHTTPKeysetSource(cfg.JWKSURL), cfg.JWTIssuer)
	}

	// 9. Create HTTP handler and register routes.
	apiHandler := httphandler.NewHandler(
		projectStore,
		policyStore,
		keyStore,
		logStore,
		engine,
		ingestSvc,
		keySvc,
		analyticsSvc,
		chatSvc,
		slog.Default(),
	)
	handler := httphandler.NewServeMux(apiHandler, verifier, bypass, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("leakguard started",
		"listen_addr", cfg.ListenAddr,
		"region", cfg.Region,
	)

	// 10. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 11. Graceful shutdown with 10s timeout to drain in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
