package domain

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// HistoryRecord is one past roster generation. Records are never updated.
type HistoryRecord struct {
	ID           string   `json:"id"`
	GeneratedAt  int64    `json:"generated_at"` // epoch seconds
	Participants []string `json:"participants"`
}

// Includes reports whether id took part in this roster.
func (h HistoryRecord) Includes(id string) bool {
	for _, p := range h.Participants {
		if p == id {
			return true
		}
	}
	return false
}

// NewHistoryID returns a ULID for a history record generated at now.
// ULIDs sort by generation time.
func NewHistoryID(now time.Time) (string, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
