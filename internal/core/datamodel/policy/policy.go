package policy

import (
	"time"

	"github.com/frahmantamala/leave-management/internal/core/actor"
	"gorm.io/datatypes"
)

// Config is the typed shape of leave_policies.config.
type Config struct {
	Sandwich      bool         `json:"sandwich"`
	Proration     bool         `json:"proration"`
	WorkflowRoles []actor.Role `json:"workflow_roles"`
}

type LeavePolicy struct {
	ID            int64                      `gorm:"primaryKey"`
	CompanyID     int64                      `gorm:"column:company_id;not null;index"`
	Name          string                     `gorm:"column:name;not null"`
	EffectiveFrom time.Time                  `gorm:"column:effective_from;type:date;not null"`
	EffectiveTo   *time.Time                 `gorm:"column:effective_to;type:date"`
	Config        datatypes.JSONType[Config] `gorm:"column:config"`
	CreatedAt     time.Time                  `gorm:"column:created_at;autoCreateTime"`
}

func (LeavePolicy) TableName() string {
	return "leave_policies"
}

type LeavePolicyMapping struct {
	ID                int64       `gorm:"primaryKey"`
	CompanyID         int64       `gorm:"column:company_id;not null;index:idx_mapping_lookup"`
	PolicyID          int64       `gorm:"column:policy_id;not null"`
	LeaveTypeID       int64       `gorm:"column:leave_type_id;not null;index:idx_mapping_lookup"`
	EmployeeID        *int64      `gorm:"column:employee_id"`
	Department        *string     `gorm:"column:department"`
	Designation       *string     `gorm:"column:designation"`
	Unit              string      `gorm:"column:unit;not null;default:DAY"`
	AnnualAllocation  float64     `gorm:"column:annual_allocation;not null"`
	MaxBalance        *float64    `gorm:"column:max_balance"`
	CarryForwardLimit *float64    `gorm:"column:carry_forward_limit"`
	IsActive          bool        `gorm:"column:is_active;not null"`
	CreatedAt         time.Time   `gorm:"column:created_at;autoCreateTime"`
	Policy            LeavePolicy `gorm:"foreignKey:PolicyID"`
}

func (LeavePolicyMapping) TableName() string {
	return "leave_policy_mappings"
}

type LeaveType struct {
	ID        int64     `gorm:"primaryKey"`
	CompanyID int64     `gorm:"column:company_id;not null;uniqueIndex:idx_leave_type_code"`
	Code      string    `gorm:"column:code;not null;uniqueIndex:idx_leave_type_code"`
	Name      string    `gorm:"column:name;not null"`
	IsActive  bool      `gorm:"column:is_active;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (LeaveType) TableName() string {
	return "leave_types"
}
