package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/common/validation"
	"github.com/frahmantamala/leave-management/internal/core/database"
	calendarDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/calendar"
	"github.com/frahmantamala/leave-management/internal/core/metrics"
	"golang.org/x/sync/singleflight"
)

const profileKeyPrefix = "calendar:profile:"

func companyKeyPrefix(companyID int64) string {
	return fmt.Sprintf("%s%d:", profileKeyPrefix, companyID)
}

func profileKey(companyID, employeeID int64) string {
	return fmt.Sprintf("%s%d", companyKeyPrefix(companyID), employeeID)
}

type Service struct {
	repo   Repository
	cache  Cache
	ttl    time.Duration
	sf     singleflight.Group
	logger *slog.Logger
}

// NewService builds a calendar service. cache may be nil to disable caching.
func NewService(repo Repository, cache Cache, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// Resolve returns the weekend set and the holidays in [from, to] that apply
// to the employee.
func (s *Service) Resolve(ctx context.Context, companyID, employeeID int64, from, to time.Time) (*Resolved, error) {
	if vErr := validation.ValidateDateRange(from, to); vErr != nil {
		return nil, vErr
	}

	profile, err := s.Profile(ctx, companyID, employeeID)
	if err != nil {
		return nil, err
	}
	return profile.Window(validation.Truncate(from), validation.Truncate(to)), nil
}

func (s *Service) Profile(ctx context.Context, companyID, employeeID int64) (*Profile, error) {
	key := profileKey(companyID, employeeID)

	if s.cache != nil {
		raw, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("calendar cache read failed", "key", key, "error", err)
		} else if ok {
			var profile Profile
			if json.Unmarshal(raw, &profile) == nil {
				metrics.RecordCalendarCache("hit")
				return &profile, nil
			}
		}
		metrics.RecordCalendarCache("miss")
	}

	// A caller inside a transaction reads through its own tx and only
	// publishes to the cache once that tx commits.
	if database.InTx(ctx) {
		profile, err := s.loadProfile(ctx, companyID, employeeID)
		if err != nil {
			return nil, err
		}
		database.AfterCommit(ctx, func() {
			s.store(context.WithoutCancel(ctx), key, profile)
		})
		return profile, nil
	}

	ch := s.sf.DoChan(key, func() (interface{}, error) {
		loadCtx := context.WithoutCancel(ctx)
		profile, err := s.loadProfile(loadCtx, companyID, employeeID)
		if err != nil {
			return nil, err
		}
		s.store(loadCtx, key, profile)
		return profile, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Profile), nil
	}
}

func (s *Service) store(ctx context.Context, key string, profile *Profile) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.Warn("calendar cache write failed", "key", key, "error", err)
	}
}

func (s *Service) loadProfile(ctx context.Context, companyID, employeeID int64) (*Profile, error) {
	cal, err := s.repo.FindEmployeeCalendar(ctx, companyID, employeeID)
	if err != nil {
		s.logger.Error("failed to load employee calendar", "employee_id", employeeID, "error", err)
		return nil, internal.NewInternalError("failed to resolve calendar", err)
	}
	if cal == nil {
		cal, err = s.repo.FindDefaultCalendar(ctx, companyID)
		if err != nil {
			s.logger.Error("failed to load default calendar", "company_id", companyID, "error", err)
			return nil, internal.NewInternalError("failed to resolve calendar", err)
		}
	}

	if cal == nil {
		return &Profile{WeekendDays: DefaultWeekend, Holidays: []string{}}, nil
	}
	return s.buildProfile(ctx, cal)
}

func (s *Service) buildProfile(ctx context.Context, cal *calendarDatamodel.HolidayCalendar) (*Profile, error) {
	holidays, err := s.repo.ListHolidays(ctx, cal.ID)
	if err != nil {
		s.logger.Error("failed to list holidays", "calendar_id", cal.ID, "error", err)
		return nil, internal.NewInternalError("failed to resolve calendar", err)
	}

	id := cal.ID
	profile := &Profile{
		CalendarID:  &id,
		WeekendDays: DefaultWeekend,
		Holidays:    make([]string, 0, len(holidays)),
	}
	// NULL keeps the default; an explicit empty list means a seven day week.
	if cal.WeekendDays != nil {
		profile.WeekendDays = []int(cal.WeekendDays)
	}
	for _, h := range holidays {
		profile.Holidays = append(profile.Holidays, h.Date.UTC().Format(validation.DateLayout))
	}
	return profile, nil
}

// ImportHolidays adds holidays to a company calendar, skipping dates that
// already exist, and drops the company's cached profiles.
func (s *Service) ImportHolidays(ctx context.Context, companyID, calendarID int64, inputs []HolidayInput) (int, error) {
	cal, err := s.repo.GetCalendar(ctx, companyID, calendarID)
	if err != nil {
		s.logger.Error("failed to load calendar", "calendar_id", calendarID, "error", err)
		return 0, internal.NewInternalError("failed to load calendar", err)
	}
	if cal == nil {
		return 0, ErrCalendarNotFound
	}

	cleaned := make([]HolidayInput, 0, len(inputs))
	for i, in := range inputs {
		validator := validation.NewValidator()
		validator.Field(fmt.Sprintf("holidays[%d].date", i), in.Date).Required()
		validator.Field(fmt.Sprintf("holidays[%d].name", i), in.Name).Required().MaxLength(255)
		if vErr := validator.Validate(); vErr != nil {
			return 0, vErr
		}
		in.Date = validation.Truncate(in.Date)
		cleaned = append(cleaned, in)
	}
	if len(cleaned) == 0 {
		return 0, nil
	}

	inserted, err := s.repo.InsertHolidays(ctx, calendarID, cleaned)
	if err != nil {
		s.logger.Error("failed to insert holidays", "calendar_id", calendarID, "error", err)
		return 0, internal.NewInternalError("failed to import holidays", err)
	}

	s.Invalidate(ctx, companyID)
	s.logger.Info("holidays imported",
		"company_id", companyID,
		"calendar_id", calendarID,
		"received", len(cleaned),
		"inserted", inserted)
	return inserted, nil
}

// Invalidate drops every cached profile of the company.
func (s *Service) Invalidate(ctx context.Context, companyID int64) {
	if s.cache == nil {
		return
	}
	prefix := companyKeyPrefix(companyID)
	if err := s.cache.DeletePrefix(ctx, prefix); err != nil {
		s.logger.Error("failed to invalidate calendar cache", "prefix", prefix, "error", err)
	}
}
