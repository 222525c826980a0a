// Package window defines the fixed observation window and the pure
// operations that keep a window value within its invariants.
package window

import "time"

// TotalDays is the fixed observation window length
// ⭐ SSOT: 추적 기간은 20일 고정
const TotalDays = 20

// DateLayout is the calendar-day key format
const DateLayout = "2006-01-02"

// Days returns the window length
func Days() int {
	return TotalDays
}

// Percentage returns min(completed/total, 1) * 100, 0 when total <= 0
func Percentage(completed, total int) float64 {
	if total <= 0 || completed <= 0 {
		return 0
	}
	ratio := float64(completed) / float64(total)
	if ratio > 1 {
		ratio = 1
	}
	return ratio * 100
}

// IsComplete reports whether the window has reached its length
func IsComplete(completed, total int) bool {
	return completed >= total
}

// CompletedDays clamps an entry count to the window length
func CompletedDays(count, total int) int {
	if count < 0 {
		return 0
	}
	if count > total {
		return total
	}
	return count
}

// Day normalises an instant to its calendar day (UTC midnight)
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey formats a calendar day as YYYY-MM-DD
func DateKey(t time.Time) string {
	return Day(t).Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD calendar day
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

// EndDate returns the last day of a window starting at start
func EndDate(start time.Time) time.Time {
	return Day(start).AddDate(0, 0, TotalDays-1)
}

// InRange reports whether d falls within [start, start+TotalDays-1]
func InRange(start, d time.Time) bool {
	s := Day(start)
	day := Day(d)
	return !day.Before(s) && !day.After(EndDate(s))
}

// Dates enumerates every calendar day of the window starting at start
func Dates(start time.Time) []time.Time {
	s := Day(start)
	dates := make([]time.Time, TotalDays)
	for i := range dates {
		dates[i] = s.AddDate(0, 0, i)
	}
	return dates
}
