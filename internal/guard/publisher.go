package guard

import (
	"context"
	"errors"

	"github.com/playtestbot/roster/internal/domain"
)

// ErrCircuitOpen is returned when an event is dropped because its topic's circuit is open.
var ErrCircuitOpen = errors.New("circuit open")

// Publisher delivers domain events.
type Publisher interface {
	Publish(ctx context.Context, evt domain.EventDraft) error
}

// BreakerPublisher skips publishing to topics whose recent writes keep failing,
// so a broker outage does not add a write timeout to every command.
type BreakerPublisher struct {
	next        Publisher
	breaker     *CircuitBreaker
	topicPrefix string
}

// NewBreakerPublisher wraps next with breaker, keyed by topic.
func NewBreakerPublisher(next Publisher, breaker *CircuitBreaker, topicPrefix string) *BreakerPublisher {
	return &BreakerPublisher{next: next, breaker: breaker, topicPrefix: topicPrefix}
}

// Publish forwards evt unless the circuit for its topic is open.
func (p *BreakerPublisher) Publish(ctx context.Context, evt domain.EventDraft) error {
	key := evt.Topic(p.topicPrefix)
	if res := p.breaker.Check(ctx, key); !res.Allowed {
		return errors.Join(ErrCircuitOpen, errors.New(res.Reason))
	}
	if err := p.next.Publish(ctx, evt); err != nil {
		p.breaker.RecordFailure(key)
		return err
	}
	p.breaker.RecordSuccess(key)
	return nil
}
