package domain

import "time"

// TimeWindow is a half-open interval [Start, End). It is derived from an
// appointment's start time and never persisted on its own.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// NewTimeWindow builds the window covered by a slot starting at start.
func NewTimeWindow(start time.Time, duration time.Duration) TimeWindow {
	start = start.UTC()
	return TimeWindow{Start: start, End: start.Add(duration)}
}

// Overlaps reports whether the two windows collide once each side is padded
// with buffer. Windows that merely touch after padding do not overlap:
// a slot starting exactly duration+buffer after another's start is free.
func (w TimeWindow) Overlaps(other TimeWindow, buffer time.Duration) bool {
	return w.Start.Before(other.End.Add(buffer)) && other.Start.Before(w.End.Add(buffer))
}
