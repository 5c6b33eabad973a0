package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"vcissuer/pkg/platform/outbox"
)

// Emitter is what producers of domain events depend on.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Publisher writes events to the outbox. Append joins the transaction carried
// by ctx, so an event commits or rolls back with the state change it describes.
type Publisher struct {
	store  outbox.Store
	logger *slog.Logger
	now    func() time.Time
}

type PublisherOption func(*Publisher)

func WithLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithClock(now func() time.Time) PublisherOption {
	return func(p *Publisher) {
		p.now = now
	}
}

func NewPublisher(store outbox.Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = p.now()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	entry := outbox.NewEntry(event.AggregateType, event.AggregateID, string(event.Type), payload, event.OccurredAt)
	if err := p.store.Append(ctx, entry); err != nil {
		return fmt.Errorf("append %s event: %w", event.Type, err)
	}
	if p.logger != nil {
		p.logger.DebugContext(ctx, "event appended to outbox",
			"event_type", event.Type,
			"aggregate_id", event.AggregateID,
		)
	}
	return nil
}

// Discard drops every event. Useful where no outbox is configured.
type Discard struct{}

func (Discard) Emit(context.Context, Event) error { return nil }

var (
	_ Emitter = (*Publisher)(nil)
	_ Emitter = Discard{}
)
