package domain

import "time"

// PermState is the sticky override that survives reset periods.
type PermState string

const (
	PermNeutral     PermState = "neutral"
	PermWhitelisted PermState = "whitelisted"
	PermBlacklisted PermState = "blacklisted"
)

// TempState is the override that only holds for the current reset period.
type TempState string

const (
	TempNeutral TempState = "neutral"
	TempAdded   TempState = "added"
	TempRemoved TempState = "removed"
)

// StateKind selects which override layer a SetState call writes.
type StateKind string

const (
	KindTemp StateKind = "temp"
	KindPerm StateKind = "perm"
)

// NeverRequested is the LastRequestAt of a freshly registered playtester.
// It is never after any reset boundary.
var NeverRequested = time.Unix(0, 0).UTC()

// Playtester is one registered participant.
type Playtester struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	PermState     PermState `json:"perm_state"`
	TempState     TempState `json:"temp_state"`
	LastRequestAt time.Time `json:"last_request_at"`
	IsAdmin       bool      `json:"is_admin"`
}

// NewPlaytester returns a record with both override layers neutral.
func NewPlaytester(id, name string) *Playtester {
	return &Playtester{
		ID:            id,
		Name:          name,
		PermState:     PermNeutral,
		TempState:     TempNeutral,
		LastRequestAt: NeverRequested,
	}
}

// EffectiveTempState returns the temp override in force at the given reset boundary.
// A record stamped at or before the boundary has no temp override.
func (p *Playtester) EffectiveTempState(boundary time.Time) TempState {
	if !p.LastRequestAt.After(boundary) {
		return TempNeutral
	}
	return p.TempState
}

// PermFromValue maps a 0/1 command value onto a permanent state.
func PermFromValue(v int) (PermState, bool) {
	switch v {
	case 1:
		return PermWhitelisted, true
	case 0:
		return PermBlacklisted, true
	}
	return "", false
}

// TempFromValue maps a 0/1 command value onto a temporary state.
func TempFromValue(v int) (TempState, bool) {
	switch v {
	case 1:
		return TempAdded, true
	case 0:
		return TempRemoved, true
	}
	return "", false
}
