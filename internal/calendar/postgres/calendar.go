package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/leave-management/internal/calendar"
	"github.com/frahmantamala/leave-management/internal/core/database"
	calendarDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/calendar"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CalendarRepository struct {
	db *gorm.DB
}

func NewCalendarRepository(db *gorm.DB) calendar.Repository {
	return &CalendarRepository{db: db}
}

func (r *CalendarRepository) FindEmployeeCalendar(ctx context.Context, companyID, employeeID int64) (*calendarDatamodel.HolidayCalendar, error) {
	var cal calendarDatamodel.HolidayCalendar
	err := database.Conn(ctx, r.db).
		Joins("JOIN employee_holiday_calendars ON employee_holiday_calendars.calendar_id = holiday_calendars.id").
		Where("employee_holiday_calendars.employee_id = ? AND holiday_calendars.company_id = ?", employeeID, companyID).
		Order("holiday_calendars.id ASC").
		First(&cal).Error
	return firstOrNil(&cal, err)
}

func (r *CalendarRepository) FindDefaultCalendar(ctx context.Context, companyID int64) (*calendarDatamodel.HolidayCalendar, error) {
	var cal calendarDatamodel.HolidayCalendar
	err := database.Conn(ctx, r.db).
		Where("company_id = ? AND is_active = ?", companyID, true).
		Order("id ASC").
		First(&cal).Error
	return firstOrNil(&cal, err)
}

func (r *CalendarRepository) GetCalendar(ctx context.Context, companyID, calendarID int64) (*calendarDatamodel.HolidayCalendar, error) {
	var cal calendarDatamodel.HolidayCalendar
	err := database.Conn(ctx, r.db).
		Where("id = ? AND company_id = ?", calendarID, companyID).
		First(&cal).Error
	return firstOrNil(&cal, err)
}

func (r *CalendarRepository) ListHolidays(ctx context.Context, calendarID int64) ([]*calendarDatamodel.Holiday, error) {
	var holidays []*calendarDatamodel.Holiday
	err := database.Conn(ctx, r.db).
		Where("calendar_id = ?", calendarID).
		Order("date ASC").
		Find(&holidays).Error
	return holidays, err
}

func (r *CalendarRepository) InsertHolidays(ctx context.Context, calendarID int64, inputs []calendar.HolidayInput) (int, error) {
	rows := make([]calendarDatamodel.Holiday, 0, len(inputs))
	for _, in := range inputs {
		rows = append(rows, calendarDatamodel.Holiday{
			CalendarID: calendarID,
			Date:       in.Date,
			Name:       in.Name,
			IsOptional: in.IsOptional,
		})
	}

	result := database.Conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "calendar_id"}, {Name: "date"}},
			DoNothing: true,
		}).
		Create(&rows)
	return int(result.RowsAffected), result.Error
}

func firstOrNil[T any](row *T, err error) (*T, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return row, nil
}
