package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/playtestbot/roster/internal/guard"
	"github.com/playtestbot/roster/internal/handler"
	"github.com/playtestbot/roster/internal/infra"
	"github.com/playtestbot/roster/internal/metrics"
	"github.com/playtestbot/roster/internal/policy"
	"github.com/playtestbot/roster/internal/repository"
	"github.com/playtestbot/roster/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Players repository.PlaytesterRepository
	History repository.HistoryRepository
	// DB is pinged by /health. Nil for the in-memory backend.
	DB     infra.Pinger
	Logger *slog.Logger
	Config *infra.Config

	Events  service.EventPublisher
	Metrics metrics.Recorder
	// Gatherer backs /metrics. The endpoint is not mounted when nil.
	Gatherer prometheus.Gatherer

	// Extra service options, used by tests to pin the clock and seed.
	ServiceOptions []service.Option
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	logger := deps.Logger
	cfg := deps.Config

	rec := deps.Metrics
	if rec == nil {
		rec = metrics.Nop{}
	}

	opts := append([]service.Option{
		service.WithEventPublisher(deps.Events),
		service.WithMetrics(rec),
	}, deps.ServiceOptions...)

	// Policy
	resolver := policy.NewEligibilityResolver(cfg.ResetHourUTC)
	aggregator := policy.NewParticipationAggregator(cfg.HistoryWindowWeeks)

	// Services
	privileges := service.NewPrivilegeGuard(deps.Players)
	mutator := service.NewStateMutator(deps.Players, privileges, resolver, logger, opts...)
	roster := service.NewRosterService(deps.Players, deps.History, privileges, resolver, aggregator,
		service.RosterLimits{DefaultSize: cfg.DefaultRosterSize, MaxSize: cfg.MaxRosterSize}, logger, opts...)

	// Guards
	var replay *guard.IdempotencyGuard
	if cfg.IdempotencyTTL > 0 {
		replay = guard.NewIdempotencyGuard(cfg.IdempotencyTTL)
	}
	limiter := guard.NewRateLimiter(cfg.CommandRateLimit, cfg.CommandRateWindow)

	// Handlers
	commandHandler := handler.NewCommandHandler(mutator, roster, rec, logger).WithGuards(limiter, replay)

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(handler.JSONContentType)

		r.Get("/health", handler.HealthHandler(deps.DB))

		r.Post("/commands", commandHandler.Handle)
		r.Get("/playtesters/{id}", commandHandler.Status)
		r.Get("/roster/preview", commandHandler.Preview)
	})

	return r
}
