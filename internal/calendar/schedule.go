package calendar

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrDuplicateWeekday = errors.New("weekday declared more than once")
	ErrInvalidWeekday   = errors.New("weekday out of range")
	ErrInvalidHours     = errors.New("opening time must be before closing time")
	ErrMalformedDay     = errors.New("malformed day record")
)

// noWeekday marks a record whose weekday could not be decoded. It matches no date.
const noWeekday time.Weekday = -1

// DayHours is the declared working hours of one weekday.
type DayHours struct {
	Weekday   time.Weekday `json:"weekday"`
	IsOpen    bool         `json:"is_open"`
	OpenTime  string       `json:"open_time"`  // HH:MM
	CloseTime string       `json:"close_time"` // HH:MM

	malformed bool
}

// Malformed reports whether the stored record could not be decoded.
func (d DayHours) Malformed() bool {
	return d.malformed
}

// UnmarshalJSON never fails: a record with a missing or mistyped field is
// kept as a malformed day, which reads as closed.
func (d *DayHours) UnmarshalJSON(b []byte) error {
	var raw struct {
		Weekday   json.RawMessage `json:"weekday"`
		IsOpen    json.RawMessage `json:"is_open"`
		OpenTime  json.RawMessage `json:"open_time"`
		CloseTime json.RawMessage `json:"close_time"`
	}

	*d = DayHours{Weekday: noWeekday, malformed: true}
	if err := json.Unmarshal(b, &raw); err != nil || len(raw.Weekday) == 0 || string(raw.Weekday) == "null" {
		return nil
	}

	var day DayHours
	if err := json.Unmarshal(raw.Weekday, &day.Weekday); err != nil {
		return nil
	}
	if day.Weekday < time.Sunday || day.Weekday > time.Saturday {
		return nil
	}
	// The weekday is known from here on; a bad field only closes that day.
	d.Weekday = day.Weekday

	for _, f := range []struct {
		raw json.RawMessage
		dst any
	}{
		{raw.IsOpen, &day.IsOpen},
		{raw.OpenTime, &day.OpenTime},
		{raw.CloseTime, &day.CloseTime},
	} {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil
		}
	}

	*d = day
	return nil
}

// hours parses the record. ok is false when the day is closed or malformed.
func (d DayHours) hours() (open, closing Clock, ok bool) {
	if d.malformed || !d.IsOpen {
		return 0, 0, false
	}
	open, err := ParseClock(d.OpenTime)
	if err != nil {
		return 0, 0, false
	}
	closing, err = ParseClock(d.CloseTime)
	if err != nil {
		return 0, 0, false
	}
	if open >= closing {
		return 0, 0, false
	}
	return open, closing, true
}

// WeeklySchedule holds at most one DayHours per weekday.
type WeeklySchedule []DayHours

// UnmarshalJSON decodes each day on its own so that one bad record does not
// hide the others. A value that is not an array decodes to a single
// malformed record: closed every day.
func (s *WeeklySchedule) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		*s = WeeklySchedule{{Weekday: noWeekday, malformed: true}}
		return nil
	}
	if raw == nil {
		*s = nil
		return nil
	}

	days := make(WeeklySchedule, len(raw))
	for i, r := range raw {
		// DayHours.UnmarshalJSON never returns an error.
		_ = days[i].UnmarshalJSON(r)
	}
	*s = days
	return nil
}

// OpenInterval returns the working hours of the given civil date.
// A missing, closed, duplicated or malformed day record yields ok == false;
// bad schedule data only ever means "no availability".
func (s WeeklySchedule) OpenInterval(date time.Time) (Interval, bool) {
	wd := date.Weekday()

	var (
		day   DayHours
		found bool
	)
	for _, d := range s {
		if d.Weekday != wd {
			continue
		}
		if found {
			return Interval{}, false
		}
		day, found = d, true
	}
	if !found {
		return Interval{}, false
	}

	open, closing, ok := day.hours()
	if !ok {
		return Interval{}, false
	}
	return Interval{Start: open.On(date), End: closing.On(date)}, true
}

// Validate checks the schedule invariants: one record per weekday and
// parseable hours with open < closing on open days.
func (s WeeklySchedule) Validate() error {
	seen := make(map[time.Weekday]bool, len(s))
	for _, d := range s {
		if d.malformed {
			if d.Weekday == noWeekday {
				return ErrMalformedDay
			}
			return fmt.Errorf("%s: %w", d.Weekday, ErrMalformedDay)
		}
		if d.Weekday < time.Sunday || d.Weekday > time.Saturday {
			return fmt.Errorf("%w: %d", ErrInvalidWeekday, d.Weekday)
		}
		if seen[d.Weekday] {
			return fmt.Errorf("%w: %s", ErrDuplicateWeekday, d.Weekday)
		}
		seen[d.Weekday] = true

		if !d.IsOpen {
			continue
		}
		open, err := ParseClock(d.OpenTime)
		if err != nil {
			return fmt.Errorf("%s: %w", d.Weekday, err)
		}
		closing, err := ParseClock(d.CloseTime)
		if err != nil {
			return fmt.Errorf("%s: %w", d.Weekday, err)
		}
		if open >= closing {
			return fmt.Errorf("%s: %w", d.Weekday, ErrInvalidHours)
		}
	}
	return nil
}
