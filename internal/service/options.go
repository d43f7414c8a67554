package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/playtestbot/roster/internal/domain"
	"github.com/playtestbot/roster/internal/metrics"
	"github.com/playtestbot/roster/internal/policy"
)

// EventPublisher delivers domain events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, evt domain.EventDraft) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, domain.EventDraft) error { return nil }

// Option customizes a service.
type Option func(*settings)

type settings struct {
	now     func() time.Time
	seed    func() (int64, error)
	events  EventPublisher
	metrics metrics.Recorder
}

func defaultSettings() settings {
	return settings{
		now:     time.Now,
		seed:    policy.NewSeed,
		events:  nopPublisher{},
		metrics: metrics.Nop{},
	}
}

func applyOptions(opts []Option) settings {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithSeedSource overrides where draw seeds come from.
func WithSeedSource(seed func() (int64, error)) Option {
	return func(s *settings) { s.seed = seed }
}

// WithFixedSeed makes every draw use the same seed.
func WithFixedSeed(seed int64) Option {
	return WithSeedSource(func() (int64, error) { return seed, nil })
}

// WithEventPublisher sets the publisher for domain events.
func WithEventPublisher(p EventPublisher) Option {
	return func(s *settings) {
		if p != nil {
			s.events = p
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m metrics.Recorder) Option {
	return func(s *settings) {
		if m != nil {
			s.metrics = m
		}
	}
}

// publish sends evt and logs failures. Events are best-effort; the record of truth
// is already stored when this runs.
func publish(ctx context.Context, logger *slog.Logger, p EventPublisher, evt domain.EventDraft) {
	if err := p.Publish(ctx, evt); err != nil {
		logger.Warn("publish event failed",
			"event_type", evt.EventType,
			"aggregate_id", evt.AggregateID,
			"error", err,
		)
	}
}

// outcome turns an error into a metrics label.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if appErr, ok := domain.AsAppError(err); ok {
		return strings.ToLower(appErr.Code)
	}
	return "error"
}
