package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/appointment-booking-backend/internal/calendar"
)

// 2026-02-09 is a Monday.
var monday = time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)

func at(d time.Time, hour, minute int) time.Time {
	return d.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func mondayMorning() calendar.WeeklySchedule {
	return calendar.WeeklySchedule{
		{Weekday: time.Monday, IsOpen: true, OpenTime: "09:00", CloseTime: "12:00"},
		{Weekday: time.Tuesday, IsOpen: false},
	}
}

func clocks(ts []time.Time) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = calendar.ClockOf(t).String()
	}
	return out
}

func TestGenerate(t *testing.T) {
	hour := time.Hour

	tests := []struct {
		name     string
		schedule calendar.WeeklySchedule
		duration time.Duration
		date     time.Time
		busy     []calendar.Interval
		now      time.Time
		want     []string
	}{
		{
			name:     "empty morning",
			schedule: mondayMorning(),
			duration: hour,
			date:     monday,
			now:      at(monday, 8, 0),
			want:     []string{"09:00", "10:00", "11:00"},
		},
		{
			name:     "booked 10:00",
			schedule: mondayMorning(),
			duration: hour,
			date:     monday,
			busy:     []calendar.Interval{calendar.NewInterval(at(monday, 10, 0), hour)},
			now:      at(monday, 8, 0),
			want:     []string{"09:00", "11:00"},
		},
		{
			name:     "back to back with existing appointment",
			schedule: mondayMorning(),
			duration: hour,
			date:     monday,
			busy:     []calendar.Interval{calendar.NewInterval(at(monday, 9, 0), hour)},
			now:      at(monday, 8, 0),
			want:     []string{"10:00", "11:00"},
		},
		{
			name:     "off grid appointment",
			schedule: mondayMorning(),
			duration: hour,
			date:     monday,
			busy:     []calendar.Interval{calendar.NewInterval(at(monday, 9, 30), hour)},
			now:      at(monday, 8, 0),
			want:     []string{"10:30"},
		},
		{
			name:     "short service steps on the grid",
			schedule: mondayMorning(),
			duration: 30 * time.Minute,
			date:     monday,
			now:      at(monday, 8, 0),
			want:     []string{"09:00", "09:30", "10:00", "10:30", "11:00", "11:30"},
		},
		{
			name:     "same day skips started slots",
			schedule: mondayMorning(),
			duration: hour,
			date:     monday,
			now:      at(monday, 9, 15),
			want:     []string{"09:30", "10:30"},
		},
		{
			name:     "slot starting exactly now is offered",
			schedule: mondayMorning(),
			duration: hour,
			date:     monday,
			now:      at(monday, 10, 0),
			want:     []string{"10:00", "11:00"},
		},
		{
			name:     "past date",
			schedule: mondayMorning(),
			duration: hour,
			date:     monday,
			now:      at(monday, 23, 0),
			want:     []string{},
		},
		{
			name:     "closed day",
			schedule: mondayMorning(),
			duration: hour,
			date:     monday.AddDate(0, 0, 1),
			now:      at(monday, 8, 0),
			want:     nil,
		},
		{
			name:     "missing day",
			schedule: mondayMorning(),
			duration: hour,
			date:     monday.AddDate(0, 0, 2),
			now:      at(monday, 8, 0),
			want:     nil,
		},
		{
			name:     "service longer than opening hours",
			schedule: mondayMorning(),
			duration: 4 * hour,
			date:     monday,
			now:      at(monday, 8, 0),
			want:     []string{},
		},
		{
			name: "malformed hours",
			schedule: calendar.WeeklySchedule{
				{Weekday: time.Monday, IsOpen: true, OpenTime: "9am", CloseTime: "12:00"},
			},
			duration: hour,
			date:     monday,
			now:      at(monday, 8, 0),
			want:     nil,
		},
		{
			name:     "zero duration",
			schedule: mondayMorning(),
			duration: 0,
			date:     monday,
			now:      at(monday, 8, 0),
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(tt.schedule, tt.duration, tt.date, tt.busy, tt.now)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, clocks(got))
		})
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	busy := []calendar.Interval{calendar.NewInterval(at(monday, 10, 30), 30*time.Minute)}
	now := at(monday, 8, 0)

	first := Generate(mondayMorning(), 30*time.Minute, monday, busy, now)
	second := Generate(mondayMorning(), 30*time.Minute, monday, busy, now)

	assert.Equal(t, first, second)
	assert.Len(t, busy, 1)
}

func TestGeneratedSlotsAreBookable(t *testing.T) {
	busy := []calendar.Interval{
		calendar.NewInterval(at(monday, 9, 30), 30*time.Minute),
		calendar.NewInterval(at(monday, 11, 0), 30*time.Minute),
	}
	now := at(monday, 8, 0)

	for _, d := range []time.Duration{30 * time.Minute, time.Hour, 90 * time.Minute} {
		for _, start := range Generate(mondayMorning(), d, monday, busy, now) {
			require.NoError(t, CheckStart(mondayMorning(), d, start, now), "start %s duration %s", start, d)
			assert.False(t, calendar.OverlapsAny(calendar.NewInterval(start, d), busy))
		}
	}
}

func TestGenerateOmitsStartsOverlappingAnOfferedSlot(t *testing.T) {
	hour := time.Hour
	busy := []calendar.Interval{calendar.NewInterval(at(monday, 9, 0), 30*time.Minute)}
	now := at(monday, 8, 0)

	got := Generate(mondayMorning(), hour, monday, busy, now)
	assert.Equal(t, []string{"09:30", "10:30"}, clocks(got))

	// 10:00 and 11:00 are free and bookable, they are only left out of the listing.
	for _, start := range []time.Time{at(monday, 10, 0), at(monday, 11, 0)} {
		require.NoError(t, CheckStart(mondayMorning(), hour, start, now))
		assert.False(t, calendar.OverlapsAny(calendar.NewInterval(start, hour), busy))
		assert.NotContains(t, got, start)
	}
}

func TestCheckStart(t *testing.T) {
	now := at(monday, 8, 0)

	tests := []struct {
		name     string
		duration time.Duration
		start    time.Time
		wantErr  error
	}{
		{"first slot", time.Hour, at(monday, 9, 0), nil},
		{"ends at closing", time.Hour, at(monday, 11, 0), nil},
		{"half hour boundary", time.Hour, at(monday, 9, 30), nil},
		{"runs past closing", time.Hour, at(monday, 11, 30), ErrOutsideWorkingHours},
		{"before opening", time.Hour, at(monday, 8, 30), ErrOutsideWorkingHours},
		{"off grid", time.Hour, at(monday, 9, 15), ErrNotOnGrid},
		{"closed day", time.Hour, at(monday.AddDate(0, 0, 1), 9, 0), ErrClosed},
		{"in the past", time.Hour, at(monday, 7, 0), ErrStartInPast},
		{"zero duration", 0, at(monday, 9, 0), ErrInvalidDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckStart(mondayMorning(), tt.duration, tt.start, now)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
