package ledger

import "time"

// LeaveLedger rows are insert-only.
type LeaveLedger struct {
	ID          int64     `gorm:"primaryKey"`
	CompanyID   int64     `gorm:"column:company_id;not null;index:idx_ledger_pair"`
	EmployeeID  int64     `gorm:"column:employee_id;not null;index:idx_ledger_pair"`
	LeaveTypeID int64     `gorm:"column:leave_type_id;not null;index:idx_ledger_pair"`
	TxnType     string    `gorm:"column:txn_type;not null"`
	Units       float64   `gorm:"column:units;not null"`
	Note        string    `gorm:"column:note"`
	RequestID   *int64    `gorm:"column:request_id"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (LeaveLedger) TableName() string {
	return "leave_ledger"
}

type LeaveEncashment struct {
	ID          int64     `gorm:"primaryKey"`
	CompanyID   int64     `gorm:"column:company_id;not null;index"`
	EmployeeID  int64     `gorm:"column:employee_id;not null"`
	LeaveTypeID int64     `gorm:"column:leave_type_id;not null"`
	Units       float64   `gorm:"column:units;not null"`
	LedgerID    int64     `gorm:"column:ledger_id;not null;uniqueIndex"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (LeaveEncashment) TableName() string {
	return "leave_encashments"
}
