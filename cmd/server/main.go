package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/subwatch/reminder-dispatch/internal/api"
	"github.com/subwatch/reminder-dispatch/internal/channel"
	"github.com/subwatch/reminder-dispatch/internal/config"
	"github.com/subwatch/reminder-dispatch/internal/db"
	"github.com/subwatch/reminder-dispatch/internal/digest"
	"github.com/subwatch/reminder-dispatch/internal/dispatch"
	"github.com/subwatch/reminder-dispatch/internal/ledger"
	"github.com/subwatch/reminder-dispatch/internal/metrics"
	"github.com/subwatch/reminder-dispatch/internal/ratelimiter"
	"github.com/subwatch/reminder-dispatch/internal/repository"
	"github.com/subwatch/reminder-dispatch/internal/tz"
	"github.com/subwatch/reminder-dispatch/internal/worker"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ---- database ----
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations applied")

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	repo := repository.NewPgReminderRepository(pool)
	led := ledger.NewPgLedger(pool)
	zones := tz.NewResolver(repo, logger)
	limiter := ratelimiter.New(cfg.RateLimit)

	push := channel.NewPushDispatcher(
		cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubject, cfg.ProviderTimeout)
	email := channel.NewEmailDispatcher(
		cfg.EmailAPIURL, cfg.EmailAPIKey, cfg.EmailFrom, cfg.ProviderTimeout)

	if !push.Configured() && !email.Configured() {
		logger.Warn("neither push nor email is configured; dispatch runs will be no-ops")
	}

	onDelivered, onFailed, onRun := m.DispatchHooks()
	orch := dispatch.NewOrchestrator(repo, led, zones, push, email, limiter, logger,
		dispatch.Options{
			Window:      cfg.DispatchWindow,
			AppBaseURL:  cfg.AppBaseURL,
			Concurrency: cfg.DispatchConcurrency,
			Hooks: dispatch.Hooks{
				OnDelivered: onDelivered,
				OnFailed:    onFailed,
				OnRun:       onRun,
			},
		})

	dg := digest.NewScheduler(repo, email, logger, cfg.DigestWeekday, cfg.DigestHour, nil)
	svc := dispatch.NewService(orch, dg, m.ObserveDigests)

	// ---- in-process cadence ----
	cronRunner, err := worker.New(cfg.DispatchCron, svc, cfg.DispatchTimeout, logger)
	if err != nil {
		logger.Fatal("invalid dispatch cron expression", zap.Error(err))
	}
	cronRunner.Start()

	// ---- HTTP server ----
	router := api.NewRouter(svc, cfg.DispatchSecret, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Stop the cron schedule and wait for an in-flight run to finish.
	// Aborting a run mid-way is safe: delivered items are already
	// ledgered and un-sent items stay eligible next run.
	cronRunner.Stop()

	logger.Info("server stopped cleanly")
}
