package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/trogers1052/stock-chart-service/internal/api"
	"github.com/trogers1052/stock-chart-service/internal/cache"
	"github.com/trogers1052/stock-chart-service/internal/chart"
	"github.com/trogers1052/stock-chart-service/internal/config"
	"github.com/trogers1052/stock-chart-service/internal/database"
	"github.com/trogers1052/stock-chart-service/internal/kafka"
	"github.com/trogers1052/stock-chart-service/internal/logging"
	"github.com/trogers1052/stock-chart-service/internal/scheduler"
	"github.com/trogers1052/stock-chart-service/internal/service"
	"github.com/trogers1052/stock-chart-service/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	logger := logging.New(cfg.LogLevel)
	logger.Info("Stock chart service starting...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(cfg.Database.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Database ready")

	// Redis cache is optional; charts load straight from postgres without it
	var seqCache service.SequenceCache
	if cfg.Redis.Enabled() {
		c, err := cache.Dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, running without cache")
		} else {
			defer c.Close()
			seqCache = c
		}
	}

	// Kafka
	var publisher service.EventPublisher
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.ChartTopic)
		defer producer.Close()
		publisher = producer
	}

	svc := service.NewChartService(db, seqCache, publisher, cfg.Chart.Bars, logger)

	if cfg.Kafka.Enabled() {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.PriceTopic, cfg.Kafka.GroupID, db, svc, logger)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				logger.WithError(err).Error("Kafka consumer stopped")
			}
		}()
	}

	// Background jobs
	sched := scheduler.NewScheduler(ctx, svc, time.Duration(cfg.Schedule.RetentionDays)*24*time.Hour, logger)
	if err := sched.RegisterAll(cfg.Schedule.WarmCron, cfg.Schedule.PruneCron); err != nil {
		logger.Fatalf("Failed to register cron jobs: %v", err)
	}
	sched.Start()
	defer sched.Stop()
	if seqCache != nil {
		go sched.RunWarmNow()
	}

	// HTTP
	opts := chart.Options{
		Dims:     cfg.Chart.Dimensions,
		Style:    cfg.Chart.Style,
		Viewport: &cfg.Chart.Viewport,
	}
	sessions := session.NewHandler(svc, session.Config{
		EventsPerSecond: cfg.Session.EventsPerSecond,
		Burst:           cfg.Session.Burst,
		Chart:           opts,
	}, logger)
	handler := api.NewHandler(svc, opts, sessions, db, logger)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.SetupRoutes(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("HTTP server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, stopping...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server shutdown failed")
	}
	logger.Info("Stock chart service stopped")
}
