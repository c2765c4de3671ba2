// Package availability computes bookable start times from working hours,
// service duration and the appointments already holding the calendar.
package availability

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/appointment-booking-backend/internal/calendar"
	"github.com/nekogravitycat/appointment-booking-backend/internal/pkg/apperror"
)

// Granularity is the step between candidate start times, independent of service duration.
const Granularity = 30 * time.Minute

var (
	ErrClosed              = apperror.New(http.StatusBadRequest, "business is closed on the requested date")
	ErrOutsideWorkingHours = apperror.New(http.StatusBadRequest, "appointment does not fit within working hours")
	ErrNotOnGrid           = apperror.New(http.StatusBadRequest, "start time is not on a 30 minute boundary")
	ErrStartInPast         = apperror.New(http.StatusBadRequest, "start time is in the past")
	ErrInvalidDuration     = apperror.New(http.StatusBadRequest, "service duration must be positive")
)

// Generate returns the ascending start times on date at which an appointment of
// the given duration fits within working hours, lies at or after now and does
// not overlap busy. Offered slots never overlap each other, so the result is a
// subset of the bookable starts, not all of them.
// It is pure: the same inputs always yield the same result.
func Generate(schedule calendar.WeeklySchedule, duration time.Duration, date time.Time, busy []calendar.Interval, now time.Time) []time.Time {
	if duration <= 0 {
		return nil
	}
	open, ok := schedule.OpenInterval(date)
	if !ok {
		return nil
	}

	slots := []time.Time{}
	var last calendar.Interval
	for t := open.Start; !t.Add(duration).After(open.End); t = t.Add(Granularity) {
		if t.Before(now) {
			continue
		}
		candidate := calendar.NewInterval(t, duration)
		if calendar.OverlapsAny(candidate, busy) {
			continue
		}
		// Offered slots tile the day without overlapping each other. A free
		// start that overlaps the previous offered slot is therefore not
		// listed, although CheckStart still accepts it for booking.
		if len(slots) > 0 && calendar.Overlaps(candidate, last) {
			continue
		}
		slots = append(slots, t)
		last = candidate
	}
	return slots
}

// CheckStart validates a requested start time the way Generate would have
// admitted it, leaving out occupancy. Occupancy is checked by the booking
// transaction against a fresh read.
func CheckStart(schedule calendar.WeeklySchedule, duration time.Duration, start, now time.Time) error {
	if duration <= 0 {
		return ErrInvalidDuration
	}
	if start.Before(now) {
		return ErrStartInPast
	}

	open, ok := schedule.OpenInterval(calendar.Date(start))
	if !ok {
		return ErrClosed
	}
	if start.Before(open.Start) || start.Add(duration).After(open.End) {
		return ErrOutsideWorkingHours
	}
	if start.Sub(open.Start)%Granularity != 0 {
		return ErrNotOnGrid
	}
	return nil
}
