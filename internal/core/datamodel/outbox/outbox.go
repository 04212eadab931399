package outbox

import "time"

type OutboxEvent struct {
	ID            string     `gorm:"primaryKey;size:36"`
	CompanyID     int64      `gorm:"column:company_id;not null"`
	AggregateType string     `gorm:"column:aggregate_type;not null"`
	AggregateID   string     `gorm:"column:aggregate_id;not null"`
	EventType     string     `gorm:"column:event_type;not null"`
	Payload       []byte     `gorm:"column:payload;not null"`
	Status        string     `gorm:"column:status;not null;default:PENDING;index"`
	Attempts      int        `gorm:"column:attempts;not null;default:0"`
	LastError     *string    `gorm:"column:last_error"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	SentAt        *time.Time `gorm:"column:sent_at"`
}

func (OutboxEvent) TableName() string {
	return "outbox_events"
}
