package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/playtestbot/roster/internal/domain"
	"github.com/playtestbot/roster/internal/policy"
	"github.com/playtestbot/roster/internal/repository"
	"github.com/stretchr/testify/require"
)

// Reset boundary for this instant is 2026-03-10 05:00 UTC.
var testNow = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

var errBoom = errors.New("boom")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// faultyPlaytesters fails selected calls of an in-memory store.
type faultyPlaytesters struct {
	*repository.InMemoryPlaytesterRepository
	failFind, failSave, failList, failCount bool
}

func (f *faultyPlaytesters) FindByID(ctx context.Context, id string) (*domain.Playtester, error) {
	if f.failFind {
		return nil, errBoom
	}
	return f.InMemoryPlaytesterRepository.FindByID(ctx, id)
}

func (f *faultyPlaytesters) Save(ctx context.Context, p *domain.Playtester) error {
	if f.failSave {
		return errBoom
	}
	return f.InMemoryPlaytesterRepository.Save(ctx, p)
}

func (f *faultyPlaytesters) ListAll(ctx context.Context) ([]domain.Playtester, error) {
	if f.failList {
		return nil, errBoom
	}
	return f.InMemoryPlaytesterRepository.ListAll(ctx)
}

func (f *faultyPlaytesters) CountAdmins(ctx context.Context, id string) (int, error) {
	if f.failCount {
		return 0, errBoom
	}
	return f.InMemoryPlaytesterRepository.CountAdmins(ctx, id)
}

type faultyHistory struct {
	*repository.InMemoryHistoryRepository
	failList, failAppend bool
}

func (f *faultyHistory) ListSince(ctx context.Context, cutoff int64) ([]domain.HistoryRecord, error) {
	if f.failList {
		return nil, errBoom
	}
	return f.InMemoryHistoryRepository.ListSince(ctx, cutoff)
}

func (f *faultyHistory) Append(ctx context.Context, rec domain.HistoryRecord) error {
	if f.failAppend {
		return errBoom
	}
	return f.InMemoryHistoryRepository.Append(ctx, rec)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.EventDraft
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, evt domain.EventDraft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return r.err
}

func (r *recordingPublisher) types() []domain.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.EventType
	}
	return out
}

type recordingMetrics struct {
	mutations []string
	rosters   []string
}

func (r *recordingMetrics) ObserveRoster(kind string, _, _ int) { r.rosters = append(r.rosters, kind) }
func (r *recordingMetrics) ObserveMutation(transition, outcome string) {
	r.mutations = append(r.mutations, transition+":"+outcome)
}
func (r *recordingMetrics) ObserveCommand(string, string) {}

type fixture struct {
	players *faultyPlaytesters
	history *faultyHistory
	events  *recordingPublisher
	metrics *recordingMetrics
	mutator *StateMutator
	roster  *RosterService
}

func newFixture(t *testing.T, seed int64) *fixture {
	t.Helper()
	f := &fixture{
		players: &faultyPlaytesters{InMemoryPlaytesterRepository: repository.NewInMemoryPlaytesterRepository()},
		history: &faultyHistory{InMemoryHistoryRepository: repository.NewInMemoryHistoryRepository()},
		events:  &recordingPublisher{},
		metrics: &recordingMetrics{},
	}
	opts := []Option{
		WithClock(func() time.Time { return testNow }),
		WithFixedSeed(seed),
		WithEventPublisher(f.events),
		WithMetrics(f.metrics),
	}
	guard := NewPrivilegeGuard(f.players)
	resolver := policy.NewEligibilityResolver(policy.DefaultResetHourUTC)
	aggregator := policy.NewParticipationAggregator(policy.DefaultWindowWeeks)

	f.mutator = NewStateMutator(f.players, guard, resolver, testLogger(), opts...)
	f.roster = NewRosterService(f.players, f.history, guard, resolver, aggregator,
		RosterLimits{DefaultSize: 2, MaxSize: 10}, testLogger(), opts...)
	return f
}

// seed stores p directly, bypassing the mutator.
func (f *fixture) seed(t *testing.T, p domain.Playtester) {
	t.Helper()
	require.NoError(t, f.players.InMemoryPlaytesterRepository.Save(context.Background(), &p))
}

func (f *fixture) get(t *testing.T, id string) *domain.Playtester {
	t.Helper()
	p, err := f.players.InMemoryPlaytesterRepository.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

func member(id string) domain.Playtester {
	return *domain.NewPlaytester(id, id)
}

func admin(id string) domain.Playtester {
	p := domain.NewPlaytester(id, id)
	p.IsAdmin = true
	return *p
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok, "expected AppError, got %T: %v", err, err)
	require.Equal(t, code, appErr.Code)
}
