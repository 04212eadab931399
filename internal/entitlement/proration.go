package entitlement

import (
	"fmt"
	"time"

	"github.com/frahmantamala/leave-management/internal/core/common/validation"
	"github.com/frahmantamala/leave-management/internal/policy"
	"github.com/shopspring/decimal"
)

// Period is an inclusive fiscal window.
type Period struct {
	Start time.Time
	End   time.Time
}

func (p Period) String() string {
	return fmt.Sprintf("%s..%s", p.Start.Format(validation.DateLayout), p.End.Format(validation.DateLayout))
}

// FiscalPeriod returns the twelve month period that contains t when fiscal
// years begin on startMonth.
func FiscalPeriod(t time.Time, startMonth time.Month) Period {
	if startMonth < time.January || startMonth > time.December {
		startMonth = time.January
	}
	year := t.Year()
	if t.Month() < startMonth {
		year--
	}
	start := time.Date(year, startMonth, 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(1, 0, -1)}
}

func monthIndex(t time.Time) int {
	return 12*t.Year() + int(t.Month())
}

// prorationMonths returns remaining and total months. Joining any day of a
// month counts that month in full.
func prorationMonths(join, start, end time.Time) (remaining, total int) {
	join, start, end = validation.Truncate(join), validation.Truncate(start), validation.Truncate(end)
	total = monthIndex(end) - monthIndex(start) + 1
	switch {
	case !join.After(start):
		return total, total
	case join.After(end):
		return 0, total
	}
	remaining = monthIndex(end) - monthIndex(join) + 1
	if remaining > total {
		remaining = total
	}
	if remaining < 0 {
		remaining = 0
	}
	return remaining, total
}

// ProrationFactor is the share of the period the employee is entitled to,
// clamped to [0, 1].
func ProrationFactor(join, start, end time.Time) float64 {
	remaining, total := prorationMonths(join, start, end)
	if total <= 0 {
		return 0
	}
	return float64(remaining) / float64(total)
}

// Allocation is the annual allocation, prorated by join date when the
// policy asks for it, rounded to two decimals.
func Allocation(m *policy.Mapping, join time.Time, p Period) float64 {
	annual := decimal.NewFromFloat(m.AnnualAllocation)
	if !m.Policy.Config.Proration {
		f, _ := annual.Round(2).Float64()
		return f
	}

	remaining, total := prorationMonths(join, p.Start, p.End)
	if total <= 0 {
		return 0
	}
	f, _ := annual.Mul(decimal.NewFromInt(int64(remaining))).
		Div(decimal.NewFromInt(int64(total))).
		Round(2).
		Float64()
	return f
}
