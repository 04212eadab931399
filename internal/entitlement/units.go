package entitlement

import (
	"time"

	"github.com/frahmantamala/leave-management/internal/calendar"
	"github.com/frahmantamala/leave-management/internal/core/common/validation"
	"github.com/frahmantamala/leave-management/internal/policy"
)

// UnitsMeta explains how a units figure was reached.
type UnitsMeta struct {
	CalendarID      *int64      `json:"calendar_id,omitempty"`
	WeekendDays     []int       `json:"weekend_days"`
	Unit            policy.Unit `json:"unit"`
	SpanDays        int         `json:"span_days"`
	WorkingDays     int         `json:"working_days"`
	ExcludedDays    int         `json:"excluded_days"`
	SandwichCounted bool        `json:"sandwich_counted"`
}

type Units struct {
	Value float64   `json:"units"`
	Meta  UnitsMeta `json:"meta"`
}

const secondsPerDay = 24 * 60 * 60

// SpanDays counts the calendar days in [from, to]. Works on Unix seconds of
// the UTC dates, so spans wider than a time.Duration stay exact.
func SpanDays(from, to time.Time) int {
	from, to = validation.Truncate(from), validation.Truncate(to)
	return int((to.Unix()-from.Unix())/secondsPerDay) + 1
}

// ComputeUnits charges the working days of [from, to]. With the sandwich
// rule the whole span is charged instead. HOUR mappings get the working day
// count; hour arithmetic belongs to the caller. Zero is a valid result.
func ComputeUnits(m *policy.Mapping, resolved *calendar.Resolved, from, to time.Time) (*Units, error) {
	if vErr := validation.ValidateDateRange(from, to); vErr != nil {
		return nil, vErr
	}
	from, to = validation.Truncate(from), validation.Truncate(to)

	meta := UnitsMeta{
		CalendarID:  resolved.CalendarID,
		WeekendDays: resolved.Weekend.Days(),
		Unit:        m.Unit,
		SpanDays:    SpanDays(from, to),
	}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if resolved.IsExcluded(d) {
			meta.ExcludedDays++
		} else {
			meta.WorkingDays++
		}
	}

	units := float64(meta.WorkingDays)
	if m.Unit != policy.UnitHour && m.Policy.Config.Sandwich {
		units = float64(meta.SpanDays)
		meta.SandwichCounted = true
	}
	return &Units{Value: units, Meta: meta}, nil
}
