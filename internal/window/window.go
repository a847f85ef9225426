// Package window resolves report time specifications into canonical
// half-open UTC windows and weekly decompositions for batch runs.
package window

import (
	"time"

	"github.com/mkurata/teampulse/internal/domain"
	apperrors "github.com/mkurata/teampulse/internal/errors"
)

// WeeksPerQuarter is the fixed number of weekly windows a quarter is
// decomposed into for batch processing.
const WeeksPerQuarter = 13

// ParseDate parses a YYYY-MM-DD date as midnight UTC
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, apperrors.NewInvalidDateFormatError(value, err)
	}
	return t.UTC(), nil
}

// FromDates builds a window from inclusive calendar dates, so
// FromDates("2025-01-01", "2025-01-07") covers the full seven days as
// [Jan 1, Jan 8). Start and end may be equal for a one-day window.
func FromDates(start, end string) (domain.TimeWindow, error) {
	startT, err := ParseDate(start)
	if err != nil {
		return domain.TimeWindow{}, err
	}
	endT, err := ParseDate(end)
	if err != nil {
		return domain.TimeWindow{}, err
	}
	if startT.After(endT) {
		return domain.TimeWindow{}, apperrors.NewInvalidRangeError(start, end)
	}
	return domain.TimeWindow{Start: startT, End: endT.AddDate(0, 0, 1)}, nil
}

// FromQuarter builds the calendar-quarter window for (year, quarter):
// Q1=[Jan 1, Apr 1), Q2=[Apr 1, Jul 1), Q3=[Jul 1, Oct 1), Q4=[Oct 1, next Jan 1).
func FromQuarter(year, quarter int) (domain.TimeWindow, error) {
	if quarter < 1 || quarter > 4 {
		return domain.TimeWindow{}, apperrors.NewInvalidQuarterError(quarter)
	}
	startMonth := time.Month((quarter-1)*3 + 1)
	start := time.Date(year, startMonth, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 3, 0)
	return domain.TimeWindow{Start: start, End: end}, nil
}

// CurrentWeek returns the trailing seven days [now-7d, now) at date
// resolution, the default for weekly reports with no date arguments.
func CurrentWeek(now time.Time) domain.TimeWindow {
	today := truncateToDay(now.UTC())
	return domain.TimeWindow{Start: today.AddDate(0, 0, -7), End: today}
}

// CurrentQuarter returns [start of the current quarter, now), the
// default for quarterly reports with no arguments.
func CurrentQuarter(now time.Time) domain.TimeWindow {
	now = now.UTC()
	quarter := (int(now.Month())-1)/3 + 1
	startMonth := time.Month((quarter-1)*3 + 1)
	start := time.Date(now.Year(), startMonth, 1, 0, 0, 0, 0, time.UTC)
	return domain.TimeWindow{Start: start, End: now}
}

// WeekContaining returns the Monday-to-Monday window that contains the
// given date.
func WeekContaining(date string) (domain.TimeWindow, error) {
	t, err := ParseDate(date)
	if err != nil {
		return domain.TimeWindow{}, err
	}
	monday := mondayOf(t)
	return domain.TimeWindow{Start: monday, End: monday.AddDate(0, 0, 7)}, nil
}

// QuarterWeeks decomposes a quarter into exactly 13 contiguous 7-day
// windows starting at the quarter start. The final window is clamped to
// the quarter end when the quarter length is not a multiple of seven;
// that is truncation, not an error.
func QuarterWeeks(year, quarter int) (domain.WeeklySeries, error) {
	q, err := FromQuarter(year, quarter)
	if err != nil {
		return nil, err
	}
	series := make(domain.WeeklySeries, 0, WeeksPerQuarter)
	for i := 0; i < WeeksPerQuarter; i++ {
		start := q.Start.AddDate(0, 0, i*7)
		end := start.AddDate(0, 0, 7)
		if end.After(q.End) {
			end = q.End
		}
		series = append(series, domain.TimeWindow{Start: start, End: end})
	}
	return series, nil
}

// WeeklyRanges decomposes an arbitrary window into Monday-aligned weekly
// windows covering it. The first window may begin before the range start.
func WeeklyRanges(w domain.TimeWindow) domain.WeeklySeries {
	var series domain.WeeklySeries
	monday := mondayOf(w.Start)
	for monday.Before(w.End) {
		series = append(series, domain.TimeWindow{Start: monday, End: monday.AddDate(0, 0, 7)})
		monday = monday.AddDate(0, 0, 7)
	}
	return series
}

// mondayOf returns midnight UTC of the Monday of t's week
func mondayOf(t time.Time) time.Time {
	t = truncateToDay(t)
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return t.AddDate(0, 0, -(weekday - 1))
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
