package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/playtestbot/roster/internal/domain"
	"github.com/playtestbot/roster/internal/infra"
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
		logger.Error("roster events consumer failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *infra.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !cfg.KafkaEnabled || cfg.KafkaBrokers == "" {
		return errors.New("kafka is disabled, set KAFKA_ENABLED and KAFKA_BROKERS")
	}

	topic := domain.EventRosterGenerated.Topic(cfg.KafkaTopicPrefix)
	consumer := infra.NewKafkaConsumer(cfg.KafkaBrokers, topic, cfg.KafkaGroupID, logger)
	defer consumer.Close()

	logger.Info("roster events consumer starting", "topic", topic, "group_id", cfg.KafkaGroupID)
	if err := consumer.Consume(ctx, logRoster(logger)); err != nil {
		return err
	}

	logger.Info("roster events consumer shutting down")
	return nil
}

// logRoster writes one audit line per generated roster.
func logRoster(logger *slog.Logger) infra.EventHandler {
	return func(_ context.Context, evt domain.EventDraft) error {
		var p domain.RosterGeneratedPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			return fmt.Errorf("decode roster payload: %w", err)
		}
		logger.Info("roster generated",
			"event_id", evt.EventID,
			"history_id", p.HistoryID,
			"generated_at", time.Unix(p.GeneratedAt, 0).UTC(),
			"participants", p.Participants,
			"requested", p.Requested,
			"shortfall", p.Shortfall,
		)
		return nil
	}
}
