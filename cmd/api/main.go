package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agendahq/backoffice/internal/audit"
	"github.com/agendahq/backoffice/internal/config"
	dbpkg "github.com/agendahq/backoffice/internal/db"
	"github.com/agendahq/backoffice/internal/infra/lock"
	"github.com/agendahq/backoffice/internal/metrics"
	"github.com/agendahq/backoffice/internal/notify"
	"github.com/agendahq/backoffice/internal/reminder"
	"github.com/agendahq/backoffice/internal/routes"
	"github.com/agendahq/backoffice/internal/timezone"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})).With("service", "agenda-backoffice")
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	timezone.SetDefault(cfg.DefaultTimezone)

	db, err := dbpkg.NewDB(cfg)
	if err != nil {
		return err
	}

	// ======================================================
	// BOOKING LOCK
	// ======================================================
	var locker lock.Locker = lock.NoopLocker{}
	if cfg.RedisAddr != "" {
		rdb, err := lock.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return err
		}
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, cfg.BookingLockTTL)
		logger.Info("booking lock backed by redis", "addr", cfg.RedisAddr)
	}

	// ======================================================
	// METRICS
	// ======================================================
	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	// ======================================================
	// NOTIFICATIONS
	// ======================================================
	hub := notify.NewHub()
	sinks := []notify.Sink{hub}

	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink := notify.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
		logger.Info("publishing events to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	failures := notify.NewGormStore(db, cfg.NotificationRetryInterval)
	notifier := notify.NewDispatcher(sinks, failures, logger, notify.WithFailureHook(m.NotificationFailed))

	retrier := notify.NewRetrier(failures, sinks, logger, notify.RetrierConfig{
		Interval:    cfg.NotificationRetryInterval,
		MaxAttempts: cfg.NotificationMaxAttempts,
	})
	reminders := reminder.NewWorker(reminder.NewGormStore(db), notifier, m, logger, reminder.Config{
		Interval: cfg.ReminderInterval,
	})

	auditDispatcher := audit.NewDispatcher(audit.New(db), logger)

	// ======================================================
	// HTTP
	// ======================================================
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	routes.RegisterRoutes(r, routes.Deps{
		DB:       db,
		Config:   cfg,
		Locker:   locker,
		Notifier: notifier,
		Hub:      hub,
		Audit:    auditDispatcher,
		Metrics:  m,
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	var workers sync.WaitGroup
	workers.Add(2)
	go func() {
		defer workers.Done()
		retrier.Run(workerCtx)
	}()
	go func() {
		defer workers.Done()
		reminders.Run(workerCtx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server running", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Error("http shutdown", "err", shutdownErr)
	}

	cancelWorkers()
	workers.Wait()
	notifier.Close()
	auditDispatcher.Close()

	return err
}
