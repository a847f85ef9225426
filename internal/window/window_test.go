package window

import (
	"testing"
	"time"

	apperrors "github.com/mkurata/teampulse/internal/errors"
)

func TestFromDatesInclusive(t *testing.T) {
	win, err := FromDates("2025-01-01", "2025-01-07")
	if err != nil {
		t.Fatal(err)
	}
	if win.Days() != 7 {
		t.Fatalf("expected 7 days, got %d", win.Days())
	}
	if !win.Contains(time.Date(2025, 1, 7, 23, 59, 0, 0, time.UTC)) {
		t.Fatal("expected end date to be covered")
	}
	if win.Contains(time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("expected window end to be exclusive")
	}
}

func TestFromDatesSingleDay(t *testing.T) {
	win, err := FromDates("2025-03-15", "2025-03-15")
	if err != nil {
		t.Fatal(err)
	}
	if win.Days() != 1 {
		t.Fatalf("expected 1 day, got %d", win.Days())
	}
}

func TestFromDatesInvertedRange(t *testing.T) {
	_, err := FromDates("2025-02-01", "2025-01-01")
	if !apperrors.IsCode(err, apperrors.ErrCodeInvalidRange) {
		t.Fatalf("expected invalid range error, got %v", err)
	}
}

func TestFromDatesBadFormat(t *testing.T) {
	for _, value := range []string{"01/02/2025", "2025-13-01", "", "yesterday"} {
		_, err := FromDates(value, "2025-01-01")
		if !apperrors.IsCode(err, apperrors.ErrCodeInvalidDateFormat) {
			t.Fatalf("value %q: expected invalid date format error, got %v", value, err)
		}
	}
}

func TestFromQuarterBounds(t *testing.T) {
	tests := []struct {
		year    int
		quarter int
		start   time.Time
		end     time.Time
		days    int
	}{
		{2025, 1, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), 90},
		{2024, 1, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), 91},
		{2025, 2, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), 91},
		{2025, 3, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), 92},
		{2025, 4, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 92},
	}
	for _, tt := range tests {
		win, err := FromQuarter(tt.year, tt.quarter)
		if err != nil {
			t.Fatalf("Q%d %d: %v", tt.quarter, tt.year, err)
		}
		if !win.Start.Equal(tt.start) || !win.End.Equal(tt.end) {
			t.Fatalf("Q%d %d: got %v", tt.quarter, tt.year, win)
		}
		if win.Days() != tt.days {
			t.Fatalf("Q%d %d: expected %d days, got %d", tt.quarter, tt.year, tt.days, win.Days())
		}
	}
}

func TestFromQuarterInvalid(t *testing.T) {
	for _, q := range []int{0, 5, -1} {
		_, err := FromQuarter(2025, q)
		if !apperrors.IsCode(err, apperrors.ErrCodeInvalidQuarter) {
			t.Fatalf("quarter %d: expected invalid quarter error, got %v", q, err)
		}
	}
}

func TestQuarterWeeks(t *testing.T) {
	series, err := QuarterWeeks(2025, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(series) != WeeksPerQuarter {
		t.Fatalf("expected %d weeks, got %d", WeeksPerQuarter, len(series))
	}

	quarter, _ := FromQuarter(2025, 3)
	if !series[0].Start.Equal(quarter.Start) {
		t.Fatalf("first week starts at %v", series[0].Start)
	}
	for i := 1; i < len(series); i++ {
		if !series[i].Start.Equal(series[i-1].End) {
			t.Fatalf("gap between week %d and %d", i-1, i)
		}
	}
	// 92-day quarter: 13 full weeks cover 91 days and never overrun
	last := series[len(series)-1]
	if last.End.After(quarter.End) {
		t.Fatalf("last week overruns quarter: %v", last)
	}
	if last.Days() != 7 {
		t.Fatalf("expected full final week, got %d days", last.Days())
	}
}

func TestQuarterWeeksShortQuarter(t *testing.T) {
	// 90-day quarter: 13th week has 6 days
	series, err := QuarterWeeks(2025, 1)
	if err != nil {
		t.Fatal(err)
	}
	last := series[len(series)-1]
	if last.Days() != 6 {
		t.Fatalf("expected 6-day final week, got %d", last.Days())
	}
}

func TestCurrentWeek(t *testing.T) {
	now := time.Date(2025, 6, 18, 15, 30, 0, 0, time.UTC)
	win := CurrentWeek(now)
	if !win.End.Equal(time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected end at today midnight, got %v", win.End)
	}
	if win.Days() != 7 {
		t.Fatalf("expected 7 days, got %d", win.Days())
	}
}

func TestCurrentQuarter(t *testing.T) {
	now := time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC)
	win := CurrentQuarter(now)
	if !win.Start.Equal(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected Q3 start, got %v", win.Start)
	}
	if !win.End.Equal(now) {
		t.Fatalf("expected end at now, got %v", win.End)
	}
}

func TestWeekContaining(t *testing.T) {
	tests := []struct {
		date  string
		start time.Time
	}{
		// Wednesday
		{"2025-06-18", time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)},
		// Monday maps to itself
		{"2025-06-16", time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)},
		// Sunday belongs to the preceding Monday's week
		{"2025-06-22", time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		win, err := WeekContaining(tt.date)
		if err != nil {
			t.Fatal(err)
		}
		if !win.Start.Equal(tt.start) {
			t.Fatalf("%s: expected week start %v, got %v", tt.date, tt.start, win.Start)
		}
		if win.Days() != 7 {
			t.Fatalf("%s: expected 7 days", tt.date)
		}
	}
}

func TestWeeklyRangesCoverWindow(t *testing.T) {
	win, _ := FromDates("2025-06-18", "2025-07-02")
	series := WeeklyRanges(win)
	if len(series) == 0 {
		t.Fatal("expected at least one week")
	}
	if series[0].Start.After(win.Start) {
		t.Fatal("first week must not start after the window")
	}
	if series[len(series)-1].End.Before(win.End) {
		t.Fatal("last week must cover the window end")
	}
	for _, w := range series {
		if w.Start.Weekday() != time.Monday {
			t.Fatalf("week not Monday-aligned: %v", w.Start)
		}
	}
}
