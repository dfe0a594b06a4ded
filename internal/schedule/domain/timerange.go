// Package domain holds the schedule value types: weekly time ranges and
// availability slots.
package domain

import (
	"fmt"
	"time"

	apperrors "github.com/pitchside/fieldbook/internal/platform/errors"
)

// MinutesPerDay bounds the minute-of-day coordinates of a TimeRange.
const MinutesPerDay = 24 * 60

// TimeRange is a half-open [Start, End) window on a weekly day, expressed in
// minutes since midnight. It is an immutable value type.
type TimeRange struct {
	Day   time.Weekday
	Start int
	End   int
}

// NewTimeRange validates and builds a TimeRange.
func NewTimeRange(day time.Weekday, start, end int) (TimeRange, error) {
	if day < time.Sunday || day > time.Saturday {
		return TimeRange{}, apperrors.WithMetadata(
			apperrors.CodeTimeRangeInvalidDay,
			"day of week is out of range",
			map[string]string{"Day": fmt.Sprintf("%d", int(day))},
		)
	}
	if start < 0 || end > MinutesPerDay || start >= end {
		return TimeRange{}, apperrors.WithMetadata(
			apperrors.CodeTimeRangeInvalid,
			"time range start must be before end within one day",
			map[string]string{
				"Start": fmt.Sprintf("%d", start),
				"End":   fmt.Sprintf("%d", end),
			},
		)
	}
	return TimeRange{Day: day, Start: start, End: end}, nil
}

// MustTimeRange builds a TimeRange and panics on invalid input. Intended for
// fixtures and tests with constant coordinates.
func MustTimeRange(day time.Weekday, start, end int) TimeRange {
	r, err := NewTimeRange(day, start, end)
	if err != nil {
		panic(err)
	}
	return r
}

// Overlaps reports whether two ranges share any time on the same day.
// Endpoints touching (a.End == b.Start) do not overlap.
func (r TimeRange) Overlaps(other TimeRange) bool {
	if r.Day != other.Day {
		return false
	}
	return r.Start < other.End && other.Start < r.End
}

// Contains reports whether the given day and minute-of-day fall inside the range.
func (r TimeRange) Contains(day time.Weekday, minute int) bool {
	return r.Day == day && minute >= r.Start && minute < r.End
}

// String renders the range as "Mon 10:00-11:30" for logs.
func (r TimeRange) String() string {
	return fmt.Sprintf("%s %02d:%02d-%02d:%02d",
		r.Day.String()[:3], r.Start/60, r.Start%60, r.End/60, r.End%60)
}

// EndOn returns the wall-clock instant at which the range ends on the given
// date, in the date's location. Used by expiry sweeps.
func (r TimeRange) EndOn(date time.Time) time.Time {
	year, month, day := date.Date()
	return time.Date(year, month, day, r.End/60, r.End%60, 0, 0, date.Location())
}
