package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/playtestbot/roster/internal/domain"
	"github.com/playtestbot/roster/internal/policy"
	"github.com/playtestbot/roster/internal/repository"
)

// RosterLimits bounds requested roster sizes.
type RosterLimits struct {
	DefaultSize int
	MaxSize     int
}

// RosterResult is a drawn roster plus the inputs that produced it.
type RosterResult struct {
	policy.Roster
	Seed        int64     `json:"seed"`
	HistoryID   string    `json:"history_id,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	Boundary    time.Time `json:"reset_boundary"`
	WindowWeeks int       `json:"window_weeks"`
	MaxCount    int       `json:"max_count"`
}

// PlaytesterStatus is the stored and effective state of one playtester.
type PlaytesterStatus struct {
	Playtester    domain.Playtester `json:"playtester"`
	EffectiveTemp domain.TempState  `json:"effective_temp_state"`
	Category      policy.Category   `json:"category"`
	Boundary      time.Time         `json:"reset_boundary"`
}

// RosterService answers roster queries and records generated rosters.
type RosterService struct {
	players    repository.PlaytesterRepository
	history    repository.HistoryRepository
	guard      *PrivilegeGuard
	resolver   *policy.EligibilityResolver
	aggregator *policy.ParticipationAggregator
	selector   *policy.WeightedSelector
	limits     RosterLimits
	logger     *slog.Logger
	settings
}

// NewRosterService creates a new RosterService.
func NewRosterService(
	players repository.PlaytesterRepository,
	history repository.HistoryRepository,
	guard *PrivilegeGuard,
	resolver *policy.EligibilityResolver,
	aggregator *policy.ParticipationAggregator,
	limits RosterLimits,
	logger *slog.Logger,
	opts ...Option,
) *RosterService {
	return &RosterService{
		players:    players,
		history:    history,
		guard:      guard,
		resolver:   resolver,
		aggregator: aggregator,
		selector:   policy.NewWeightedSelector(),
		limits:     limits,
		logger:     logger,
		settings:   applyOptions(opts),
	}
}

// Preview draws a roster without recording it. Anyone may preview.
func (s *RosterService) Preview(ctx context.Context, size int) (*RosterResult, error) {
	res, err := s.draw(ctx, size)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveRoster("preview", len(res.Members), res.Shortfall)
	return res, nil
}

// Generate draws a roster and appends it to history. Admin only.
// Nothing is returned unless the history record was stored.
func (s *RosterService) Generate(ctx context.Context, callerID string, size int) (*RosterResult, error) {
	if err := s.guard.VerifyAdmin(ctx, callerID); err != nil {
		return nil, err
	}

	res, err := s.draw(ctx, size)
	if err != nil {
		return nil, err
	}

	id, err := domain.NewHistoryID(res.GeneratedAt)
	if err != nil {
		return nil, domain.ErrInternal("history id", err)
	}
	rec := domain.HistoryRecord{
		ID:           id,
		GeneratedAt:  res.GeneratedAt.Unix(),
		Participants: res.MemberIDs(),
	}
	if err := s.history.Append(ctx, rec); err != nil {
		return nil, domain.ErrStore("record roster", err)
	}
	res.HistoryID = id

	s.metrics.ObserveRoster("generate", len(res.Members), res.Shortfall)
	s.logger.Info("roster generated",
		"history_id", id,
		"caller_id", callerID,
		"members", len(res.Members),
		"requested", res.Requested,
		"shortfall", res.Shortfall,
	)
	publish(ctx, s.logger, s.events, domain.NewRosterGeneratedEvent(rec, res.Requested, res.Shortfall))
	return res, nil
}

// Status reports where targetID currently stands. Anyone may ask.
func (s *RosterService) Status(ctx context.Context, targetID string) (*PlaytesterStatus, error) {
	if err := domain.ValidateID(targetID); err != nil {
		return nil, err
	}
	p, err := s.players.FindByID(ctx, targetID)
	if err != nil {
		return nil, domain.ErrStore("load playtester", err)
	}
	if p == nil {
		return nil, domain.ErrNotFound("playtester", targetID)
	}

	boundary := s.resolver.ResetBoundary(s.now())
	return &PlaytesterStatus{
		Playtester:    *p,
		EffectiveTemp: p.EffectiveTempState(boundary),
		Category:      s.resolver.Classify(p, boundary),
		Boundary:      boundary,
	}, nil
}

// Size resolves a requested size: 0 means the configured default.
func (s *RosterService) Size(requested int) (int, error) {
	if requested == 0 {
		requested = s.limits.DefaultSize
	}
	if err := domain.ValidateRosterSize(requested, s.limits.MaxSize); err != nil {
		return 0, err
	}
	return requested, nil
}

func (s *RosterService) draw(ctx context.Context, requested int) (*RosterResult, error) {
	size, err := s.Size(requested)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	users, err := s.players.ListAll(ctx)
	if err != nil {
		return nil, domain.ErrStore("list playtesters", err)
	}
	cats := s.resolver.Resolve(users, now)

	history, err := s.history.ListSince(ctx, s.aggregator.Cutoff(now))
	if err != nil {
		return nil, domain.ErrStore("load roster history", err)
	}
	part := s.aggregator.Aggregate(cats.Pool, history, now)

	seed, err := s.seed()
	if err != nil {
		return nil, domain.ErrInternal("seed draw", err)
	}

	return &RosterResult{
		Roster:      s.selector.Draw(policy.NewRand(seed), cats, part, size),
		Seed:        seed,
		GeneratedAt: now,
		Boundary:    s.resolver.ResetBoundary(now),
		WindowWeeks: s.aggregator.Weeks(),
		MaxCount:    part.MaxCount,
	}, nil
}
