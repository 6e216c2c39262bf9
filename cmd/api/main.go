// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/templates/registration-api/internal/activation"
	"github.com/carterperez-dev/templates/registration-api/internal/auth"
	"github.com/carterperez-dev/templates/registration-api/internal/config"
	"github.com/carterperez-dev/templates/registration-api/internal/core"
	"github.com/carterperez-dev/templates/registration-api/internal/health"
	"github.com/carterperez-dev/templates/registration-api/internal/mailer"
	"github.com/carterperez-dev/templates/registration-api/internal/middleware"
	"github.com/carterperez-dev/templates/registration-api/internal/migrations"
	"github.com/carterperez-dev/templates/registration-api/internal/notify"
	"github.com/carterperez-dev/templates/registration-api/internal/registration"
	"github.com/carterperez-dev/templates/registration-api/internal/server"
	"github.com/carterperez-dev/templates/registration-api/internal/user"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
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

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx, migrations.FS); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	healthDeps := []health.Dependency{{Name: "database", Checker: db}}
	if redis != nil {
		healthDeps = append(healthDeps, health.Dependency{Name: "redis", Checker: redis})
		logger.Info("redis connected", "pool_size", cfg.Redis.PoolSize)
	} else {
		logger.Info("redis not configured, rate limits are per instance")
	}

	hasher, err := core.NewPasswordHasher(cfg.Security.BcryptCost)
	if err != nil {
		return err
	}

	sender, err := mailer.New(cfg.Mail, logger)
	if err != nil {
		return err
	}
	if cfg.Mail.Provider == config.MailProviderLog && !cfg.IsDevelopment() {
		logger.Warn("log mail provider writes activation codes to the log")
	}

	notifier := notify.New(sender, notify.Config{
		Workers:         cfg.Notify.Workers,
		QueueSize:       cfg.Notify.QueueSize,
		MaxAttempts:     cfg.Notify.MaxAttempts,
		InitialInterval: cfg.Notify.InitialInterval,
		MaxInterval:     cfg.Notify.MaxInterval,
		AttemptTimeout:  cfg.Mail.Timeout(),
	}, logger)
	notifier.Start(ctx)

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo)

	codeRepo := activation.NewRepository(db.DB, user.MarkActive)
	engine := activation.NewEngine(codeRepo, activation.Config{
		TTL:        cfg.Activation.CodeTTL(),
		SaltLength: cfg.Activation.SaltBytes,
	}, logger)

	logger.Info("activation engine ready", "code_ttl", engine.TTL())

	gate := auth.NewGate(userSvc, hasher, logger)

	registrationSvc := registration.NewService(hasher, userSvc, gate, engine, logger)
	registrationHandler := registration.NewHandler(registrationSvc, notifier, logger)

	healthHandler := health.NewHandler(healthDeps...)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	if cfg.Server.TrustProxy {
		router.Use(middleware.TrustProxy)
	}
	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing(nil))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.SecurityHeaders)

	healthHandler.RegisterRoutes(router)

	router.Route("/v1", func(r chi.Router) {
		registrationHandler.RegisterRoutes(r, routeLimits(cfg.RateLimit, redis))
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+cfg.Server.DrainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, cfg.Server.DrainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := notifier.Shutdown(shutdownCtx); err != nil {
		logger.Error("notifier shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	stats := db.Stats()
	logger.Info("closing database",
		"open_connections", stats.OpenConnections,
		"wait_count", stats.WaitCount,
		"wait_duration", stats.WaitDuration,
	)
	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func routeLimits(cfg config.RateLimitConfig, redis *core.Redis) registration.Limits {
	if !cfg.Enabled {
		return registration.Limits{}
	}

	limiter := func(prefix string, requests int) func(http.Handler) http.Handler {
		return middleware.NewRateLimiter(redis.RawClient(), middleware.RateLimitConfig{
			Limit:    middleware.Per(requests, cfg.Burst, cfg.Window),
			Prefix:   prefix,
			FailOpen: cfg.FailOpen,
		}).Handler
	}

	return registration.Limits{
		Register: limiter("register", cfg.RegisterRequests),
		Activate: limiter("activate", cfg.ActivateRequests),
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
