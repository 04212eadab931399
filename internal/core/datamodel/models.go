package datamodel

import (
	"github.com/frahmantamala/leave-management/internal/core/datamodel/approval"
	"github.com/frahmantamala/leave-management/internal/core/datamodel/calendar"
	"github.com/frahmantamala/leave-management/internal/core/datamodel/employee"
	"github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
	"github.com/frahmantamala/leave-management/internal/core/datamodel/ledger"
	"github.com/frahmantamala/leave-management/internal/core/datamodel/outbox"
	"github.com/frahmantamala/leave-management/internal/core/datamodel/policy"
	"gorm.io/gorm"
)

// All lists every persisted model, in dependency order.
func All() []interface{} {
	return []interface{}{
		&employee.Employee{},
		&policy.LeaveType{},
		&policy.LeavePolicy{},
		&policy.LeavePolicyMapping{},
		&calendar.HolidayCalendar{},
		&calendar.Holiday{},
		&calendar.EmployeeHolidayCalendar{},
		&leave.LeaveRequest{},
		&leave.LeaveRequestDetail{},
		&ledger.LeaveLedger{},
		&ledger.LeaveEncashment{},
		&approval.ApprovalRequest{},
		&approval.ApprovalStep{},
		&approval.ApprovalAction{},
		&outbox.OutboxEvent{},
	}
}

// AutoMigrate creates the schema on sqlite; postgres uses the goose migrations.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
