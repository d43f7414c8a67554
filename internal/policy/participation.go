package policy

import (
	"time"

	"github.com/playtestbot/roster/internal/domain"
)

// DefaultWindowWeeks is the trailing history window used when none is configured.
const DefaultWindowWeeks = 4

const secondsPerWeek = 7 * 24 * 60 * 60

// Participation holds per-user roster counts inside the trailing window.
type Participation struct {
	Counts   map[string]int `json:"counts"`
	MaxCount int            `json:"max_count"`
}

// Count returns the participation count for id (0 when absent).
func (p Participation) Count(id string) int {
	return p.Counts[id]
}

// ParticipationAggregator counts recent roster appearances for pool members.
type ParticipationAggregator struct {
	weeks int
}

// NewParticipationAggregator creates an aggregator over a window of weeks.
// Non-positive values fall back to DefaultWindowWeeks.
func NewParticipationAggregator(weeks int) *ParticipationAggregator {
	if weeks <= 0 {
		weeks = DefaultWindowWeeks
	}
	return &ParticipationAggregator{weeks: weeks}
}

// Weeks returns the configured window length.
func (a *ParticipationAggregator) Weeks() int { return a.weeks }

// Cutoff returns the epoch-second window start. Records must be strictly newer.
func (a *ParticipationAggregator) Cutoff(now time.Time) int64 {
	return now.Unix() - int64(a.weeks)*secondsPerWeek
}

// Aggregate counts, for every pool member, the history records in the window
// that include them. Records at or before the cutoff are ignored.
func (a *ParticipationAggregator) Aggregate(pool []domain.Playtester, history []domain.HistoryRecord, now time.Time) Participation {
	cutoff := a.Cutoff(now)
	counts := make(map[string]int, len(pool))
	for _, p := range pool {
		counts[p.ID] = 0
	}

	for _, rec := range history {
		if rec.GeneratedAt <= cutoff {
			continue
		}
		seen := make(map[string]bool, len(rec.Participants))
		for _, id := range rec.Participants {
			if seen[id] {
				continue
			}
			seen[id] = true
			if _, ok := counts[id]; ok {
				counts[id]++
			}
		}
	}

	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}
	return Participation{Counts: counts, MaxCount: maxCount}
}
