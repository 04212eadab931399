package leave

import "time"

type LeaveRequest struct {
	ID            int64               `gorm:"primaryKey"`
	CompanyID     int64               `gorm:"column:company_id;not null;index"`
	EmployeeID    int64               `gorm:"column:employee_id;not null;index"`
	LeaveTypeID   int64               `gorm:"column:leave_type_id;not null"`
	MappingID     int64               `gorm:"column:mapping_id;not null"`
	FromDate      time.Time           `gorm:"column:from_date;type:date;not null"`
	ToDate        time.Time           `gorm:"column:to_date;type:date;not null"`
	TotalDays     int                 `gorm:"column:total_days;not null"`
	Status        string              `gorm:"column:status;not null;default:PENDING"`
	ParentLeaveID *int64              `gorm:"column:parent_leave_id"`
	SegmentType   string              `gorm:"column:segment_type;not null;default:FULL"`
	Reason        string              `gorm:"column:reason"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
	Detail        *LeaveRequestDetail `gorm:"foreignKey:LeaveRequestID"`
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

type LeaveRequestDetail struct {
	ID              int64   `gorm:"primaryKey"`
	LeaveRequestID  int64   `gorm:"column:leave_request_id;not null;uniqueIndex"`
	UnitType        string  `gorm:"column:unit_type;not null"`
	Units           float64 `gorm:"column:units;not null"`
	SandwichCounted bool    `gorm:"column:sandwich_counted;not null;default:false"`
}

func (LeaveRequestDetail) TableName() string {
	return "leave_request_details"
}
