package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/playtestbot/roster/internal/app"
	"github.com/playtestbot/roster/internal/guard"
	"github.com/playtestbot/roster/internal/infra"
	"github.com/playtestbot/roster/internal/metrics"
	"github.com/playtestbot/roster/internal/policy"
	"github.com/playtestbot/roster/internal/repository"
	"github.com/playtestbot/roster/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := infra.NewLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *infra.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	deps := app.RouterDeps{Logger: logger, Config: cfg}

	switch cfg.StoreBackend {
	case infra.StoreBackendMemory:
		deps.Players = repository.NewInMemoryPlaytesterRepository()
		deps.History = repository.NewInMemoryHistoryRepository()
		logger.Warn("using in-memory store, data is lost on restart")

	default:
		if cfg.AutoMigrate {
			if err := infra.RunMigrations(cfg.DSN(), logger); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
		}

		pool, err := infra.NewPostgresPool(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		logger.Info("connected to postgres")

		deps.Players = repository.NewPgPlaytesterRepository(pool)
		deps.History = repository.NewPgHistoryRepository(pool)
		deps.DB = pool
	}

	if cfg.RandomOrgAPIKey != "" {
		seeds := infra.NewRandomOrgSeeds(cfg.RandomOrgAPIKey, policy.NewSeed, logger)
		deps.ServiceOptions = append(deps.ServiceOptions, service.WithSeedSource(seeds.Seed))
	}

	producer := infra.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopicPrefix, cfg.KafkaEnabled, logger)
	defer producer.Close()
	deps.Events = producer
	if cfg.KafkaEnabled {
		breaker := guard.NewCircuitBreaker(cfg.BreakerFailures, cfg.BreakerReset)
		deps.Events = guard.NewBreakerPublisher(producer, breaker, cfg.KafkaTopicPrefix)
	}

	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		collector, err := metrics.NewCollector(reg, "playtest")
		if err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		deps.Metrics = collector
		deps.Gatherer = reg
	}

	r := app.NewRouter(deps)

	// Start server
	addr := fmt.Sprintf(":%d", cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "addr", addr, "store", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
