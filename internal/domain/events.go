package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RosterGeneratedPayload is the body of an EventRosterGenerated event.
type RosterGeneratedPayload struct {
	HistoryID    string   `json:"history_id"`
	GeneratedAt  int64    `json:"generated_at"`
	Participants []string `json:"participants"`
	Requested    int      `json:"requested"`
	Shortfall    int      `json:"shortfall"`
}

// NewRosterGeneratedEvent creates the event emitted after a roster is recorded.
func NewRosterGeneratedEvent(rec HistoryRecord, requested, shortfall int) EventDraft {
	payload, _ := json.Marshal(RosterGeneratedPayload{
		HistoryID:    rec.ID,
		GeneratedAt:  rec.GeneratedAt,
		Participants: rec.Participants,
		Requested:    requested,
		Shortfall:    shortfall,
	})
	return EventDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateRoster,
		AggregateID:   rec.ID,
		EventType:     EventRosterGenerated,
		PartitionKey:  rec.ID,
		Payload:       payload,
		OccurredAt:    time.Unix(rec.GeneratedAt, 0).UTC(),
	}
}

// NewPlaytesterEvent creates a playtester lifecycle or state-change event.
func NewPlaytesterEvent(evtType EventType, callerID string, p *Playtester, at time.Time) EventDraft {
	payload, _ := json.Marshal(map[string]interface{}{
		"caller_id":  callerID,
		"playtester": p,
	})
	return EventDraft{
		EventID:       uuid.New(),
		AggregateType: AggregatePlaytester,
		AggregateID:   p.ID,
		EventType:     evtType,
		PartitionKey:  p.ID,
		Payload:       payload,
		OccurredAt:    at,
	}
}
