package calendar

import (
	"time"

	"gorm.io/datatypes"
)

type HolidayCalendar struct {
	ID          int64                    `gorm:"primaryKey"`
	CompanyID   int64                    `gorm:"column:company_id;not null;index"`
	Name        string                   `gorm:"column:name;not null"`
	WeekendDays datatypes.JSONSlice[int] `gorm:"column:weekend_days"`
	IsActive    bool                     `gorm:"column:is_active;not null"`
	CreatedAt   time.Time                `gorm:"column:created_at;autoCreateTime"`
}

func (HolidayCalendar) TableName() string {
	return "holiday_calendars"
}

type Holiday struct {
	ID         int64     `gorm:"primaryKey"`
	CalendarID int64     `gorm:"column:calendar_id;not null;uniqueIndex:idx_holiday_calendar_date"`
	Date       time.Time `gorm:"column:date;type:date;not null;uniqueIndex:idx_holiday_calendar_date"`
	Name       string    `gorm:"column:name;not null"`
	IsOptional bool      `gorm:"column:is_optional;not null;default:false"`
}

func (Holiday) TableName() string {
	return "holidays"
}

type EmployeeHolidayCalendar struct {
	ID         int64 `gorm:"primaryKey"`
	EmployeeID int64 `gorm:"column:employee_id;not null;uniqueIndex:idx_employee_calendar"`
	CalendarID int64 `gorm:"column:calendar_id;not null;uniqueIndex:idx_employee_calendar"`
}

func (EmployeeHolidayCalendar) TableName() string {
	return "employee_holiday_calendars"
}
