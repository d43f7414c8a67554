package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/playtestbot/roster/internal/domain"
)

var (
	_ PlaytesterRepository = (*InMemoryPlaytesterRepository)(nil)
	_ HistoryRepository    = (*InMemoryHistoryRepository)(nil)
)

// InMemoryPlaytesterRepository is a dev/test PlaytesterRepository.
type InMemoryPlaytesterRepository struct {
	mu   sync.Mutex
	data map[string]domain.Playtester
}

// NewInMemoryPlaytesterRepository creates an empty in-memory store.
func NewInMemoryPlaytesterRepository() *InMemoryPlaytesterRepository {
	return &InMemoryPlaytesterRepository{data: make(map[string]domain.Playtester)}
}

func (s *InMemoryPlaytesterRepository) FindByID(ctx context.Context, id string) (*domain.Playtester, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.data[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *InMemoryPlaytesterRepository) Save(ctx context.Context, p *domain.Playtester) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[p.ID] = *p
	return nil
}

func (s *InMemoryPlaytesterRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, id)
	return nil
}

func (s *InMemoryPlaytesterRepository) ListAll(ctx context.Context) ([]domain.Playtester, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Playtester, 0, len(s.data))
	for _, p := range s.data {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryPlaytesterRepository) CountAdmins(ctx context.Context, id string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.data[id]; ok && p.IsAdmin {
		return 1, nil
	}
	return 0, nil
}

// InMemoryHistoryRepository is a dev/test HistoryRepository.
type InMemoryHistoryRepository struct {
	mu      sync.Mutex
	records []domain.HistoryRecord
}

// NewInMemoryHistoryRepository creates an empty in-memory history.
func NewInMemoryHistoryRepository() *InMemoryHistoryRepository {
	return &InMemoryHistoryRepository{}
}

func (s *InMemoryHistoryRepository) ListSince(ctx context.Context, cutoff int64) ([]domain.HistoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.HistoryRecord
	for _, rec := range s.records {
		if rec.GeneratedAt > cutoff {
			out = append(out, cloneHistory(rec))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].GeneratedAt < out[j].GeneratedAt })
	return out, nil
}

func (s *InMemoryHistoryRepository) Append(ctx context.Context, rec domain.HistoryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, cloneHistory(rec))
	return nil
}

func cloneHistory(rec domain.HistoryRecord) domain.HistoryRecord {
	rec.Participants = append([]string(nil), rec.Participants...)
	return rec
}
