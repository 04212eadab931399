package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/frahmantamala/leave-management/internal/core/common/validation"
)

var icsLayouts = []string{
	"20060102T150405Z",
	"20060102T150405",
	"20060102",
}

// ParseICS reads holiday events from an iCalendar feed. All-day events that
// span several days produce one holiday per day (DTEND is exclusive).
// Events tagged with the OPTIONAL category are imported as optional holidays.
func ParseICS(r io.Reader) ([]HolidayInput, error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parse ics: %w", err)
	}

	seen := make(DateSet)
	var out []HolidayInput
	for _, evt := range cal.Events() {
		name := ""
		if prop := evt.GetProperty(ics.ComponentPropertySummary); prop != nil {
			name = strings.TrimSpace(prop.Value)
		}
		if name == "" {
			name = "Holiday"
		}

		start, err := icsDate(evt, ics.ComponentPropertyDtStart)
		if err != nil {
			return nil, err
		}
		if start == nil {
			continue
		}
		end, err := icsDate(evt, ics.ComponentPropertyDtEnd)
		if err != nil {
			return nil, err
		}

		first := validation.Truncate(*start)
		last := first
		if end != nil {
			// a midnight DTEND is exclusive
			endDay := validation.Truncate(*end)
			if end.Equal(endDay) {
				endDay = endDay.AddDate(0, 0, -1)
			}
			if endDay.After(first) {
				last = endDay
			}
		}

		optional := isOptionalEvent(evt)
		for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
			if seen.Contains(d) {
				continue
			}
			seen.Add(d)
			out = append(out, HolidayInput{Date: d, Name: name, IsOptional: optional})
		}
	}
	return out, nil
}

// icsDate parses a DTSTART/DTEND property, returning nil if it is absent.
func icsDate(evt *ics.VEvent, prop ics.ComponentProperty) (*time.Time, error) {
	p := evt.GetProperty(prop)
	if p == nil {
		return nil, nil
	}
	for _, layout := range icsLayouts {
		if t, err := time.Parse(layout, p.Value); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unsupported %s value %q", prop, p.Value)
}

func isOptionalEvent(evt *ics.VEvent) bool {
	p := evt.GetProperty(ics.ComponentPropertyCategories)
	if p == nil {
		return false
	}
	for _, c := range strings.Split(p.Value, ",") {
		if strings.EqualFold(strings.TrimSpace(c), "OPTIONAL") {
			return true
		}
	}
	return false
}
