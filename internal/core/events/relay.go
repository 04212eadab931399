package events

import (
	"context"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

const defaultMaxAttempts = 5

// MessageWriter is satisfied by *kafkago.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

type RelayConfig struct {
	Topic        string
	BatchSize    int
	PollInterval time.Duration
	MaxAttempts  int
}

// Relay polls pending outbox rows and forwards them to kafka.
type Relay struct {
	repo   OutboxRepository
	writer MessageWriter
	cfg    RelayConfig
	logger *slog.Logger
}

func NewRelay(repo OutboxRepository, writer MessageWriter, cfg RelayConfig, logger *slog.Logger) *Relay {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	return &Relay{repo: repo, writer: writer, cfg: cfg, logger: logger}
}

// NewKafkaWriter leaves Topic unset; the relay stamps it per message.
func NewKafkaWriter(brokers []string) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
}

func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	r.logger.Info("outbox relay started", "poll_interval", r.cfg.PollInterval, "topic", r.cfg.Topic)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return
		case <-ticker.C:
			if _, err := r.ProcessPending(ctx); err != nil {
				r.logger.Error("process outbox events failed", "error", err)
			}
		}
	}
}

// ProcessPending forwards one batch and returns how many rows were sent.
func (r *Relay) ProcessPending(ctx context.Context) (int, error) {
	pending, err := r.repo.ListPending(ctx, r.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	r.logger.Debug("processing pending outbox events", "count", len(pending))

	sent := 0
	for _, evt := range pending {
		msg := kafkago.Message{
			Topic: r.cfg.Topic,
			Key:   []byte(evt.AggregateType + ":" + evt.AggregateID),
			Value: evt.Payload,
			Headers: []kafkago.Header{
				{Key: "event_id", Value: []byte(evt.ID)},
				{Key: "event_type", Value: []byte(evt.EventType)},
				{Key: "aggregate_type", Value: []byte(evt.AggregateType)},
			},
		}

		if err := r.writer.WriteMessages(ctx, msg); err != nil {
			r.logger.Error("publish outbox event failed",
				"outbox_id", evt.ID,
				"event_type", evt.EventType,
				"attempts", evt.Attempts+1,
				"error", err)
			if mErr := r.repo.MarkFailed(ctx, evt.ID, err.Error(), r.cfg.MaxAttempts); mErr != nil {
				r.logger.Error("mark outbox failed", "outbox_id", evt.ID, "error", mErr)
			}
			continue
		}

		if err := r.repo.MarkSent(ctx, evt.ID); err != nil {
			r.logger.Error("mark outbox sent failed", "outbox_id", evt.ID, "error", err)
			continue
		}
		sent++
	}

	return sent, nil
}
