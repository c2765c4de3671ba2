package calendar

import "time"

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval returns the interval starting at start and lasting d.
func NewInterval(start time.Time, d time.Duration) Interval {
	return Interval{Start: start, End: start.Add(d)}
}

// Overlaps reports whether a and b share any instant.
// Intervals that only touch (a.End == b.Start) do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// OverlapsAny reports whether a overlaps at least one of others.
func OverlapsAny(a Interval, others []Interval) bool {
	for _, o := range others {
		if Overlaps(a, o) {
			return true
		}
	}
	return false
}
