// Package outbox implements the transactional outbox used to publish domain
// events: entries are appended in the same transaction as the state change and
// a worker relays them to Kafka.
package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Entry is a pending event in the outbox.
type Entry struct {
	ID            uuid.UUID
	AggregateType string // "issuance_process", "credential", "status_list"
	AggregateID   string
	EventType     string // "issuance.delivered", "credential.revoked", ...
	Payload       []byte // JSON-encoded event
	CreatedAt     time.Time
	ProcessedAt   *time.Time // nil while pending
}

// IsPending returns true if this entry has not been relayed yet.
func (e *Entry) IsPending() bool {
	return e.ProcessedAt == nil
}

// NewEntry creates a new outbox entry with a generated UUID.
func NewEntry(aggregateType, aggregateID, eventType string, payload []byte, now time.Time) *Entry {
	return &Entry{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     now,
	}
}
