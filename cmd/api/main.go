// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/carterperez-dev/portfolio-api/internal/admin"
	"github.com/carterperez-dev/portfolio-api/internal/auth"
	"github.com/carterperez-dev/portfolio-api/internal/config"
	"github.com/carterperez-dev/portfolio-api/internal/core"
	"github.com/carterperez-dev/portfolio-api/internal/health"
	"github.com/carterperez-dev/portfolio-api/internal/mail"
	"github.com/carterperez-dev/portfolio-api/internal/middleware"
	"github.com/carterperez-dev/portfolio-api/internal/project"
	"github.com/carterperez-dev/portfolio-api/internal/server"
	"github.com/carterperez-dev/portfolio-api/internal/user"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	telemetry, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		return err
	}
	defer func() {
		if err := telemetry.Shutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown", "error", err)
		}
	}()

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // shutdown cleanup

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	rdb, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close() //nolint:errcheck // shutdown cleanup

	hasher, err := core.NewHasher(cfg.Security.Argon)
	if err != nil {
		return err
	}

	tokens := auth.NewTokenManager(cfg.JWT)
	mailer := mail.NewLogSender(logger)

	userRepo := user.NewRepository(db.DB)
	userService := user.NewService(userRepo, hasher)

	if err := userService.EnsureAdmin(ctx, cfg.Security); err != nil {
		return err
	}

	authService := auth.NewService(
		userService,
		hasher,
		tokens,
		mailer,
		cfg.Security,
	)

	projectRepo := project.NewRepository(db.DB)
	projectService := project.NewService(projectRepo)

	globalLimiter := middleware.NewRateLimiter(rdb.Client, middleware.RateLimitConfig{
		Limit:  middleware.PerMinute(cfg.RateLimit.Requests, cfg.RateLimit.Burst),
		Prefix: "rl:global",
	})

	authLimiter := middleware.NewRateLimiter(rdb.Client, middleware.RateLimitConfig{
		Limit: middleware.PerMinute(
			cfg.RateLimit.AuthRequests,
			cfg.RateLimit.AuthBurst,
		),
		Prefix: "rl:auth",
	})

	healthHandler := health.NewHandler(db, rdb)

	srv := server.New(server.Deps{
		Config:         cfg,
		Logger:         logger,
		AuthHandler:    auth.NewHandler(authService, cfg),
		UserHandler:    user.NewHandler(userService),
		ProjectHandler: project.NewHandler(projectService),
		HealthHandler:  healthHandler,
		AdminHandler:   admin.NewHandler(db, rdb),
		Authenticate:   middleware.Authenticator(tokens, userService),
		GlobalLimiter:  globalLimiter.Handler,
		AuthLimiter:    authLimiter.Handler,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout,
	)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
