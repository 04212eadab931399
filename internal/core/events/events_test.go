package events_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/frahmantamala/leave-management/internal/core/database"
	"github.com/frahmantamala/leave-management/internal/core/database/dbtest"
	outboxDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/outbox"
	"github.com/frahmantamala/leave-management/internal/core/events"
	eventsPostgres "github.com/frahmantamala/leave-management/internal/core/events/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	kafkago "github.com/segmentio/kafka-go"
	"gorm.io/gorm"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafkago.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

var quietLogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

var _ = Describe("EventBus", func() {
	It("should deliver to every subscriber and wait for them on Drain", func() {
		bus := events.NewEventBus(quietLogger)
		var calls int32
		bus.SubscribeAll(func(ctx context.Context, e events.Event) error {
			atomic.AddInt32(&calls, 1)
			return nil
		}, events.EventTypeLeaveSubmitted, events.EventTypeLedgerPosted)
		bus.Subscribe(events.EventTypeLeaveSubmitted, func(ctx context.Context, e events.Event) error {
			atomic.AddInt32(&calls, 1)
			return errors.New("logged, not returned")
		})

		Expect(bus.Publish(context.Background(), events.NewLeaveSubmittedEvent(1, 2, 3, 4, 5, 2))).To(Succeed())
		Expect(bus.Publish(context.Background(), events.NewLedgerPostedEvent(1, 9, 4, 5, "DEBIT", 2))).To(Succeed())
		Expect(bus.Drain(context.Background())).To(Succeed())
		Expect(atomic.LoadInt32(&calls)).To(Equal(int32(3)))
	})

	It("should run handlers after the publisher's context is cancelled", func() {
		bus := events.NewEventBus(quietLogger)
		release := make(chan struct{})
		var handlerErr atomic.Value
		bus.Subscribe(events.EventTypeLeaveSubmitted, func(ctx context.Context, e events.Event) error {
			<-release
			handlerErr.Store(fmt.Sprint(ctx.Err()))
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		Expect(bus.Publish(ctx, events.NewLeaveSubmittedEvent(1, 2, 3, 4, 5, 1))).To(Succeed())
		cancel()
		close(release)

		Expect(bus.Drain(context.Background())).To(Succeed())
		Expect(handlerErr.Load()).To(Equal("<nil>"))
	})

	It("should stop draining when its context expires", func() {
		bus := events.NewEventBus(quietLogger)
		block := make(chan struct{})
		defer close(block)
		bus.Subscribe(events.EventTypeLeaveSubmitted, func(ctx context.Context, e events.Event) error {
			<-block
			return nil
		})
		Expect(bus.Publish(context.Background(), events.NewLeaveSubmittedEvent(1, 2, 3, 4, 5, 1))).To(Succeed())

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		Expect(bus.Drain(ctx)).To(MatchError(context.DeadlineExceeded))
	})
})

var _ = Describe("Outbox", func() {
	var (
		db       *gorm.DB
		repo     events.OutboxRepository
		tx       *database.Transactor
		bus      *events.EventBus
		recorder *events.Recorder
		received chan events.Event
		ctx      context.Context
	)

	pending := func() []outboxDatamodel.OutboxEvent {
		var rows []outboxDatamodel.OutboxEvent
		Expect(db.Order("created_at ASC").Find(&rows).Error).NotTo(HaveOccurred())
		return rows
	}

	BeforeEach(func() {
		var err error
		db, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())
		repo = eventsPostgres.NewOutboxRepository(db)
		tx = database.NewTransactor(db, quietLogger)
		bus = events.NewEventBus(quietLogger)
		received = make(chan events.Event, 4)
		bus.Subscribe(events.EventTypeApprovalDecided, func(ctx context.Context, e events.Event) error {
			received <- e
			return nil
		})
		recorder = events.NewRecorder(events.NewOutbox(repo), bus)
		ctx = context.Background()
	})

	Describe("Recorder", func() {
		It("should store the event and publish it once the transaction commits", func() {
			evt := events.NewApprovalDecidedEvent(1, 10, 20, "APPROVED", "APPROVED", 3, "HR")
			err := tx.WithinTx(ctx, func(ctx context.Context) error {
				Expect(recorder.Record(ctx, 1, events.AggregateApproval, evt)).To(Succeed())
				Consistently(received, 20*time.Millisecond).ShouldNot(Receive())
				return nil
			})
			Expect(err).NotTo(HaveOccurred())

			Eventually(received).Should(Receive(WithTransform(events.Event.EventID, Equal(evt.EventID()))))
			rows := pending()
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].AggregateID).To(Equal("10"))
			Expect(rows[0].Status).To(Equal(events.OutboxStatusPending))
		})

		It("should neither store nor publish when the transaction rolls back", func() {
			boom := errors.New("boom")
			err := tx.WithinTx(ctx, func(ctx context.Context) error {
				Expect(recorder.Record(ctx, 1, events.AggregateApproval,
					events.NewApprovalDecidedEvent(1, 10, 20, "REJECTED", "REJECTED", 3, "HR"))).To(Succeed())
				return boom
			})
			Expect(err).To(MatchError(boom))

			Expect(bus.Drain(ctx)).To(Succeed())
			Expect(received).NotTo(Receive())
			Expect(pending()).To(BeEmpty())
		})

		It("should be a no-op when nil", func() {
			var nilRecorder *events.Recorder
			Expect(nilRecorder.Record(ctx, 1, events.AggregateLeave, events.NewLeaveSubmittedEvent(1, 2, 3, 4, 5, 1))).To(Succeed())
		})
	})

	Describe("Relay", func() {
		BeforeEach(func() {
			outbox := events.NewOutbox(repo)
			Expect(outbox.Record(ctx, 1, events.AggregateLeave, events.NewLeaveSubmittedEvent(1, 2, 3, 4, 5, 1))).To(Succeed())
			Expect(outbox.Record(ctx, 1, events.AggregateLedger, events.NewLedgerPostedEvent(1, 9, 4, 5, "DEBIT", 1))).To(Succeed())
		})

		It("should forward pending rows keyed by aggregate and mark them sent", func() {
			writer := &fakeWriter{}
			relay := events.NewRelay(repo, writer, events.RelayConfig{Topic: "leave.events"}, quietLogger)

			sent, err := relay.ProcessPending(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(sent).To(Equal(2))
			keys := []string{}
			for _, m := range writer.msgs {
				Expect(m.Topic).To(Equal("leave.events"))
				keys = append(keys, string(m.Key))
			}
			Expect(keys).To(ConsistOf("leave_request:2", "leave_ledger:9"))

			for _, row := range pending() {
				Expect(row.Status).To(Equal(events.OutboxStatusSent))
				Expect(row.SentAt).NotTo(BeNil())
			}

			sent, err = relay.ProcessPending(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(sent).To(BeZero())
		})

		It("should retry failed rows until the attempts run out", func() {
			writer := &fakeWriter{err: errors.New("broker down")}
			relay := events.NewRelay(repo, writer, events.RelayConfig{Topic: "leave.events", MaxAttempts: 2}, quietLogger)

			sent, err := relay.ProcessPending(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(sent).To(BeZero())
			for _, row := range pending() {
				Expect(row.Status).To(Equal(events.OutboxStatusPending))
				Expect(row.Attempts).To(Equal(1))
				Expect(row.LastError).To(HaveValue(Equal("broker down")))
			}

			_, err = relay.ProcessPending(ctx)
			Expect(err).NotTo(HaveOccurred())
			for _, row := range pending() {
				Expect(row.Status).To(Equal(events.OutboxStatusFailed))
				Expect(row.Attempts).To(Equal(2))
			}
		})
	})
})
