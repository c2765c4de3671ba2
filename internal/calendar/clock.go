// Package calendar resolves weekly working hours into concrete open intervals
// and decides whether two appointment intervals collide.
//
// All times handled here are business-local civil timestamps: the wall clock
// of the business, carried in time.UTC so that comparisons never shift.
package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidClock is returned for a time of day that is not HH:MM or HH:MM:SS.
var ErrInvalidClock = errors.New("invalid time of day")

// Clock is a civil time of day, in minutes since midnight.
type Clock int

// EndOfDay is midnight at the end of the day, written "24:00".
const EndOfDay Clock = 24 * 60

// ParseClock parses "HH:MM" or "HH:MM:SS". Seconds are dropped.
// "24:00" is accepted as a closing time at midnight.
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	if s == "24:00" || s == "24:00:00" {
		return EndOfDay, nil
	}

	t, err := time.Parse("15:04:05", s)
	if err != nil {
		// Fallback: try short format if long format fails
		t, err = time.Parse("15:04", s)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return Clock(t.Hour()*60 + t.Minute()), nil
}

// String formats the clock as HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// On anchors the clock on the civil date of d.
func (c Clock) On(d time.Time) time.Time {
	return Date(d).Add(time.Duration(c) * time.Minute)
}

// Civil returns the wall clock of t as a civil timestamp.
func Civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// Date truncates t to the start of its civil day.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ClockOf returns the time of day of a civil timestamp.
func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

// NowIn returns a clock func reporting the current civil time in loc.
func NowIn(loc *time.Location) func() time.Time {
	return func() time.Time {
		return Civil(time.Now().In(loc))
	}
}
