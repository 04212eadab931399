package events

import (
	"context"
	"encoding/json"
	"fmt"

	outboxDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/outbox"
)

const (
	OutboxStatusPending = "PENDING"
	OutboxStatusSent    = "SENT"
	OutboxStatusFailed  = "FAILED"
)

// AggregateEvent is an event that knows which row it describes.
type AggregateEvent interface {
	Event
	AggregateID() string
}

type OutboxRepository interface {
	Insert(ctx context.Context, evt *outboxDatamodel.OutboxEvent) error
	ListPending(ctx context.Context, limit int) ([]*outboxDatamodel.OutboxEvent, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string, maxAttempts int) error
}

// Outbox stores events in the same transaction as the state change that
// produced them; the Relay forwards them to the broker afterwards.
type Outbox struct {
	repo OutboxRepository
}

func NewOutbox(repo OutboxRepository) *Outbox {
	return &Outbox{repo: repo}
}

func (o *Outbox) Record(ctx context.Context, companyID int64, aggregateType string, event AggregateEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.EventType(), err)
	}

	return o.repo.Insert(ctx, &outboxDatamodel.OutboxEvent{
		ID:            event.EventID(),
		CompanyID:     companyID,
		AggregateType: aggregateType,
		AggregateID:   event.AggregateID(),
		EventType:     event.EventType(),
		Payload:       payload,
		Status:        OutboxStatusPending,
	})
}
