package calendar

import (
	"context"
	"sort"
	"time"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/common/validation"
	calendarDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/calendar"
)

// DefaultWeekend is Saturday and Sunday with Monday as index 0.
var DefaultWeekend = []int{5, 6}

var ErrCalendarNotFound = internal.NewNotFoundError("holiday calendar not found", internal.ErrCodeCalendarNotFound)

// WeekdayIndex maps t onto a Monday=0 .. Sunday=6 index.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

type WeekdaySet map[int]struct{}

func NewWeekdaySet(days ...int) WeekdaySet {
	set := make(WeekdaySet, len(days))
	for _, d := range days {
		if d >= 0 && d <= 6 {
			set[d] = struct{}{}
		}
	}
	return set
}

func (s WeekdaySet) Contains(t time.Time) bool {
	_, ok := s[WeekdayIndex(t)]
	return ok
}

func (s WeekdaySet) Days() []int {
	days := make([]int, 0, len(s))
	for d := range s {
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}

// DateSet holds calendar dates keyed by YYYY-MM-DD.
type DateSet map[string]struct{}

func NewDateSet(dates ...time.Time) DateSet {
	set := make(DateSet, len(dates))
	for _, d := range dates {
		set.Add(d)
	}
	return set
}

func (s DateSet) Add(t time.Time) {
	s[t.Format(validation.DateLayout)] = struct{}{}
}

func (s DateSet) Contains(t time.Time) bool {
	_, ok := s[t.Format(validation.DateLayout)]
	return ok
}

// Resolved is the weekend and holiday view of one employee over a date range.
type Resolved struct {
	CalendarID *int64
	Weekend    WeekdaySet
	Holidays   DateSet
}

func (r *Resolved) IsExcluded(t time.Time) bool {
	return r.Weekend.Contains(t) || r.Holidays.Contains(t)
}

// Profile is the cacheable header of an employee's effective calendar.
type Profile struct {
	CalendarID  *int64   `json:"calendar_id,omitempty"`
	WeekendDays []int    `json:"weekend_days"`
	Holidays    []string `json:"holidays"`
}

// Window narrows the profile to [from, to].
func (p *Profile) Window(from, to time.Time) *Resolved {
	resolved := &Resolved{
		CalendarID: p.CalendarID,
		Weekend:    NewWeekdaySet(p.WeekendDays...),
		Holidays:   make(DateSet),
	}
	lo := from.Format(validation.DateLayout)
	hi := to.Format(validation.DateLayout)
	for _, h := range p.Holidays {
		if h >= lo && h <= hi {
			resolved.Holidays[h] = struct{}{}
		}
	}
	return resolved
}

type HolidayInput struct {
	Date       time.Time
	Name       string
	IsOptional bool
}

type Repository interface {
	// FindEmployeeCalendar returns nil when the employee has no explicit calendar.
	FindEmployeeCalendar(ctx context.Context, companyID, employeeID int64) (*calendarDatamodel.HolidayCalendar, error)
	// FindDefaultCalendar returns the lowest id active calendar of the company, or nil.
	FindDefaultCalendar(ctx context.Context, companyID int64) (*calendarDatamodel.HolidayCalendar, error)
	GetCalendar(ctx context.Context, companyID, calendarID int64) (*calendarDatamodel.HolidayCalendar, error)
	ListHolidays(ctx context.Context, calendarID int64) ([]*calendarDatamodel.Holiday, error)
	// InsertHolidays skips dates already present and reports how many rows were added.
	InsertHolidays(ctx context.Context, calendarID int64, holidays []HolidayInput) (int, error)
}
