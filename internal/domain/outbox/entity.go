package outbox

import (
	"errors"
	"fmt"
	"time"
)

const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
	// StatusDead is terminal; the relay stops retrying the event.
	StatusDead = "dead"
)

// MaxRetries is the number of failed publishes after which an event is dead.
const MaxRetries = 10

// Exhausted reports whether one more failure makes the event dead.
func (e Event) Exhausted() bool {
	return e.RetryCount+1 >= MaxRetries
}

// Event is a message recorded in the same transaction as the state change
// it describes, relayed to Kafka afterwards.
type Event struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Topic         string
	Payload       []byte
	Status        string
	RetryCount    int
	NextRetryAt   time.Time
	CreatedAt     time.Time
}

func (e Event) Validate() error {
	if e.ID == "" {
		return errors.New("outbox id is required")
	}
	if e.Topic == "" {
		return errors.New("outbox topic is required")
	}
	if len(e.Payload) == 0 {
		return errors.New("outbox payload is required")
	}
	switch e.Status {
	case StatusPending, StatusSent, StatusFailed, StatusDead:
		return nil
	default:
		return fmt.Errorf("invalid outbox status: %s", e.Status)
	}
}
