package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2026-02-09 is a Monday.
var monday = time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)

func at(d time.Time, hour, minute int) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, time.UTC)
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{"09:00", 9 * 60, false},
		{"09:30:00", 9*60 + 30, false},
		{" 17:45 ", 17*60 + 45, false},
		{"24:00", EndOfDay, false},
		{"9am", 0, true},
		{"25:00", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidClock)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClockString(t *testing.T) {
	assert.Equal(t, "09:05", Clock(9*60+5).String())
	assert.Equal(t, "24:00", EndOfDay.String())
}

func TestCivil(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*60*60)
	instant := time.Date(2026, 2, 9, 1, 30, 0, 0, time.UTC)

	got := Civil(instant.In(loc))
	assert.Equal(t, time.Date(2026, 2, 9, 9, 30, 0, 0, time.UTC), got)
	assert.Equal(t, Clock(9*60+30), ClockOf(got))
	assert.Equal(t, monday, Date(got))
}

func TestOpenInterval(t *testing.T) {
	tests := []struct {
		name     string
		schedule WeeklySchedule
		date     time.Time
		want     Interval
		wantOpen bool
	}{
		{
			name:     "open weekday",
			schedule: WeeklySchedule{{Weekday: time.Monday, IsOpen: true, OpenTime: "09:00", CloseTime: "12:00"}},
			date:     monday,
			want:     Interval{Start: at(monday, 9, 0), End: at(monday, 12, 0)},
			wantOpen: true,
		},
		{
			name:     "date with time of day still resolves its day",
			schedule: WeeklySchedule{{Weekday: time.Monday, IsOpen: true, OpenTime: "09:00:00", CloseTime: "17:30:00"}},
			date:     at(monday, 15, 20),
			want:     Interval{Start: at(monday, 9, 0), End: at(monday, 17, 30)},
			wantOpen: true,
		},
		{
			name:     "closing at midnight",
			schedule: WeeklySchedule{{Weekday: time.Monday, IsOpen: true, OpenTime: "18:00", CloseTime: "24:00"}},
			date:     monday,
			want:     Interval{Start: at(monday, 18, 0), End: monday.AddDate(0, 0, 1)},
			wantOpen: true,
		},
		{
			name:     "weekday not declared",
			schedule: WeeklySchedule{{Weekday: time.Tuesday, IsOpen: true, OpenTime: "09:00", CloseTime: "12:00"}},
			date:     monday,
		},
		{
			name:     "declared closed",
			schedule: WeeklySchedule{{Weekday: time.Monday, IsOpen: false, OpenTime: "09:00", CloseTime: "12:00"}},
			date:     monday,
		},
		{
			name:     "malformed time is closed",
			schedule: WeeklySchedule{{Weekday: time.Monday, IsOpen: true, OpenTime: "nine", CloseTime: "12:00"}},
			date:     monday,
		},
		{
			name:     "inverted hours are closed",
			schedule: WeeklySchedule{{Weekday: time.Monday, IsOpen: true, OpenTime: "12:00", CloseTime: "09:00"}},
			date:     monday,
		},
		{
			name: "duplicate weekday is closed",
			schedule: WeeklySchedule{
				{Weekday: time.Monday, IsOpen: true, OpenTime: "09:00", CloseTime: "12:00"},
				{Weekday: time.Monday, IsOpen: true, OpenTime: "13:00", CloseTime: "18:00"},
			},
			date: monday,
		},
		{
			name: "empty schedule",
			date: monday,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.schedule.OpenInterval(tt.date)
			assert.Equal(t, tt.wantOpen, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := WeeklySchedule{
		{Weekday: time.Monday, IsOpen: true, OpenTime: "09:00", CloseTime: "18:00"},
		{Weekday: time.Sunday, IsOpen: false},
	}
	require.NoError(t, valid.Validate())

	dup := WeeklySchedule{
		{Weekday: time.Monday, IsOpen: false},
		{Weekday: time.Monday, IsOpen: true, OpenTime: "09:00", CloseTime: "18:00"},
	}
	assert.ErrorIs(t, dup.Validate(), ErrDuplicateWeekday)

	inverted := WeeklySchedule{{Weekday: time.Friday, IsOpen: true, OpenTime: "18:00", CloseTime: "18:00"}}
	assert.ErrorIs(t, inverted.Validate(), ErrInvalidHours)

	badClock := WeeklySchedule{{Weekday: time.Friday, IsOpen: true, OpenTime: "x", CloseTime: "18:00"}}
	assert.ErrorIs(t, badClock.Validate(), ErrInvalidClock)

	badDay := WeeklySchedule{{Weekday: time.Weekday(9)}}
	assert.ErrorIs(t, badDay.Validate(), ErrInvalidWeekday)
}

func TestScheduleUnmarshalKeepsGoodDays(t *testing.T) {
	stored := `[
		{"weekday":1,"is_open":true,"open_time":"09:00","close_time":"12:00"},
		{"weekday":"tuesday","is_open":true,"open_time":"09:00","close_time":"12:00"},
		{"weekday":3,"is_open":true,"open_time":900,"close_time":"12:00"},
		{"is_open":true,"open_time":"09:00","close_time":"12:00"},
		null
	]`

	var s WeeklySchedule
	require.NoError(t, json.Unmarshal([]byte(stored), &s))
	require.Len(t, s, 5)

	got, ok := s.OpenInterval(monday)
	require.True(t, ok)
	assert.Equal(t, Interval{Start: at(monday, 9, 0), End: at(monday, 12, 0)}, got)
	assert.False(t, s[0].Malformed())

	for i := 1; i < len(s); i++ {
		assert.True(t, s[i].Malformed(), "record %d", i)
	}
	assert.Equal(t, time.Wednesday, s[2].Weekday)

	_, ok = s.OpenInterval(monday.AddDate(0, 0, 1))
	assert.False(t, ok, "tuesday record is unreadable")
	_, ok = s.OpenInterval(monday.AddDate(0, 0, 2))
	assert.False(t, ok, "wednesday has a mistyped opening time")
	_, ok = s.OpenInterval(monday.AddDate(0, 0, 6))
	assert.False(t, ok, "a record without weekday is not sunday")

	assert.ErrorIs(t, s.Validate(), ErrMalformedDay)
}

func TestScheduleUnmarshalNotAnArray(t *testing.T) {
	var s WeeklySchedule
	require.NoError(t, json.Unmarshal([]byte(`{"monday":"9-5"}`), &s))

	for i := 0; i < 7; i++ {
		_, ok := s.OpenInterval(monday.AddDate(0, 0, i))
		assert.False(t, ok)
	}
	assert.ErrorIs(t, s.Validate(), ErrMalformedDay)
}

func TestScheduleJSONRoundTrip(t *testing.T) {
	in := WeeklySchedule{
		{Weekday: time.Monday, IsOpen: true, OpenTime: "09:00", CloseTime: "18:00"},
		{Weekday: time.Sunday, IsOpen: false},
	}
	b, err := json.Marshal(in)
	require.NoError(t, err)

	var out WeeklySchedule
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)
	require.NoError(t, out.Validate())
}

func TestOverlaps(t *testing.T) {
	nineToTen := Interval{Start: at(monday, 9, 0), End: at(monday, 10, 0)}

	tests := []struct {
		name string
		b    Interval
		want bool
	}{
		{"identical", nineToTen, true},
		{"contained", Interval{Start: at(monday, 9, 15), End: at(monday, 9, 45)}, true},
		{"containing", Interval{Start: at(monday, 8, 0), End: at(monday, 11, 0)}, true},
		{"partial start", Interval{Start: at(monday, 8, 30), End: at(monday, 9, 30)}, true},
		{"partial end", Interval{Start: at(monday, 9, 30), End: at(monday, 10, 30)}, true},
		{"back-to-back after", Interval{Start: at(monday, 10, 0), End: at(monday, 11, 0)}, false},
		{"back-to-back before", Interval{Start: at(monday, 8, 0), End: at(monday, 9, 0)}, false},
		{"disjoint", Interval{Start: at(monday, 13, 0), End: at(monday, 14, 0)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(nineToTen, tt.b))
			assert.Equal(t, tt.want, Overlaps(tt.b, nineToTen), "overlap must be symmetric")
		})
	}
}

func TestOverlapsAny(t *testing.T) {
	slot := NewInterval(at(monday, 10, 0), time.Hour)
	busy := []Interval{
		NewInterval(at(monday, 9, 0), time.Hour),
		NewInterval(at(monday, 11, 0), time.Hour),
	}
	assert.False(t, OverlapsAny(slot, busy))
	assert.True(t, OverlapsAny(NewInterval(at(monday, 10, 30), time.Hour), busy))
	assert.False(t, OverlapsAny(slot, nil))
}
