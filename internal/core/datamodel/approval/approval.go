package approval

import "time"

type ApprovalRequest struct {
	ID          int64            `gorm:"primaryKey"`
	CompanyID   int64            `gorm:"column:company_id;not null;index"`
	RequestType string           `gorm:"column:request_type;not null"`
	ReferenceID int64            `gorm:"column:reference_id;not null;index"`
	RequestedBy int64            `gorm:"column:requested_by;not null"`
	Status      string           `gorm:"column:status;not null;default:PENDING"`
	CurrentStep int              `gorm:"column:current_step;not null;default:1"`
	Version     int              `gorm:"column:version;not null;default:1"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
	Steps       []ApprovalStep   `gorm:"foreignKey:RequestID"`
	Actions     []ApprovalAction `gorm:"foreignKey:RequestID"`
}

func (ApprovalRequest) TableName() string {
	return "approval_requests"
}

type ApprovalStep struct {
	ID           int64     `gorm:"primaryKey"`
	RequestID    int64     `gorm:"column:request_id;not null;uniqueIndex:idx_step_order"`
	StepOrder    int       `gorm:"column:step_order;not null;uniqueIndex:idx_step_order"`
	ApproverRole string    `gorm:"column:approver_role;not null"`
	Status       string    `gorm:"column:status;not null;default:PENDING"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ApprovalStep) TableName() string {
	return "approval_steps"
}

// ApprovalAction rows are insert-only.
type ApprovalAction struct {
	ID          int64     `gorm:"primaryKey"`
	RequestID   int64     `gorm:"column:request_id;not null;index"`
	StepOrder   int       `gorm:"column:step_order;not null"`
	ActorID     int64     `gorm:"column:actor_id;not null"`
	ActorRole   string    `gorm:"column:actor_role;not null"`
	Action      string    `gorm:"column:action;not null"`
	Remarks     string    `gorm:"column:remarks"`
	PerformedAt time.Time `gorm:"column:performed_at;not null"`
}

func (ApprovalAction) TableName() string {
	return "approval_actions"
}
