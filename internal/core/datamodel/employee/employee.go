package employee

import "time"

// Employee is a read-only projection of the HR directory.
type Employee struct {
	ID            int64     `gorm:"primaryKey"`
	CompanyID     int64     `gorm:"column:company_id;not null;index"`
	Name          string    `gorm:"column:name;not null"`
	Department    *string   `gorm:"column:department"`
	Designation   *string   `gorm:"column:designation"`
	DateOfJoining time.Time `gorm:"column:date_of_joining;type:date;not null"`
	IsActive      bool      `gorm:"column:is_active;not null"`
}

func (Employee) TableName() string {
	return "employees"
}
