package postgres

import (
	"context"
	"time"

	"github.com/frahmantamala/leave-management/internal/core/database"
	outboxDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/outbox"
	"github.com/frahmantamala/leave-management/internal/core/events"
	"gorm.io/gorm"
)

type OutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) events.OutboxRepository {
	return &OutboxRepository{db: db}
}

func (r *OutboxRepository) Insert(ctx context.Context, evt *outboxDatamodel.OutboxEvent) error {
	return database.Conn(ctx, r.db).Create(evt).Error
}

func (r *OutboxRepository) ListPending(ctx context.Context, limit int) ([]*outboxDatamodel.OutboxEvent, error) {
	var rows []*outboxDatamodel.OutboxEvent
	err := database.Conn(ctx, r.db).
		Where("status = ?", events.OutboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id string) error {
	now := time.Now()
	return database.Conn(ctx, r.db).
		Model(&outboxDatamodel.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":  events.OutboxStatusSent,
			"sent_at": now,
		}).Error
}

// MarkFailed keeps the row pending until it has used up maxAttempts.
func (r *OutboxRepository) MarkFailed(ctx context.Context, id string, reason string, maxAttempts int) error {
	status := gorm.Expr("CASE WHEN attempts + 1 >= ? THEN ? ELSE status END", maxAttempts, events.OutboxStatusFailed)
	return database.Conn(ctx, r.db).
		Model(&outboxDatamodel.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": reason,
			"status":     status,
		}).Error
}
