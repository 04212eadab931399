package events

import (
	"context"

	"github.com/frahmantamala/leave-management/internal/core/database"
)

// Recorder writes events to the outbox inside the caller's transaction and
// hands them to the in-process bus once that transaction commits. A nil
// Recorder, or one without outbox or bus, skips the missing half.
type Recorder struct {
	outbox *Outbox
	bus    *EventBus
}

func NewRecorder(outbox *Outbox, bus *EventBus) *Recorder {
	return &Recorder{outbox: outbox, bus: bus}
}

func (r *Recorder) Record(ctx context.Context, companyID int64, aggregateType string, event AggregateEvent) error {
	if r == nil {
		return nil
	}
	if r.outbox != nil {
		if err := r.outbox.Record(ctx, companyID, aggregateType, event); err != nil {
			return err
		}
	}
	if r.bus != nil {
		database.AfterCommit(ctx, func() {
			_ = r.bus.Publish(context.WithoutCancel(ctx), event)
		})
	}
	return nil
}
