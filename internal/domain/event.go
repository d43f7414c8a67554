package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all domain event types.
type EventType string

const (
	EventRosterGenerated      EventType = "playtest.roster.generated"
	EventPlaytesterUpdated    EventType = "playtest.playtester.updated"
	EventPlaytesterRemoved    EventType = "playtest.playtester.unregistered"
	EventPlaytesterRegistered EventType = "playtest.playtester.registered"
)

// AggregateType enumerates the aggregate root types for published events.
type AggregateType string

const (
	AggregateRoster     AggregateType = "roster"
	AggregatePlaytester AggregateType = "playtester"
)

// EventDraft is a domain event ready to be published.
type EventDraft struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateType AggregateType   `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     EventType       `json:"event_type"`
	PartitionKey  string          `json:"-"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// Topic is the broker topic events of this type are published to, under prefix.
func (t EventType) Topic(prefix string) string {
	if prefix == "" {
		return string(t)
	}
	return prefix + "." + string(t)
}

// Topic is the broker topic the event is published to, under prefix.
func (e EventDraft) Topic(prefix string) string {
	return e.EventType.Topic(prefix)
}
