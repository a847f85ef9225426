package domain

import "time"

// TimeWindow is a half-open UTC date interval [Start, End).
// Immutable once constructed; Start is never after End.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Days returns the window length in whole days
func (w TimeWindow) Days() int {
	return int(w.End.Sub(w.Start).Hours() / 24)
}

// String formats the window as "2006-01-02 to 2006-01-02" for display
func (w TimeWindow) String() string {
	return w.Start.Format("2006-01-02") + " to " + w.End.Format("2006-01-02")
}

// WeeklySeries is an ordered sequence of contiguous, non-overlapping
// weekly windows covering a larger range.
type WeeklySeries []TimeWindow
