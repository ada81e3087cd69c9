package utils

import (
	"time"
)

// LastNDays returns the n consecutive UTC calendar dates ending at and
// including reference's UTC calendar day, ascending, each at midnight UTC.
// Calendar arithmetic keeps month/year boundaries and leap years correct.
func LastNDays(reference time.Time, n int) []time.Time {
	dates := make([]time.Time, 0, n)

	ref := reference.UTC()
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)

	for i := n - 1; i >= 0; i-- {
		dates = append(dates, day.AddDate(0, 0, -i))
	}

	return dates
}

// EarliestSelectableDate returns today's UTC calendar date minus maxPastDays.
func EarliestSelectableDate(maxPastDays int) time.Time {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	return today.AddDate(0, 0, -maxPastDays)
}

// ValidateDate reports whether date falls inside the allowed look-back
// window: no older than maxPastDays before today's UTC calendar day, and not
// in the future. Time-of-day is ignored.
func ValidateDate(date time.Time, maxPastDays int) bool {
	d := date.UTC()
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)

	return !day.Before(EarliestSelectableDate(maxPastDays)) && !day.After(EarliestSelectableDate(0))
}

func ParseDate(dateStr string) (time.Time, error) {
	return time.Parse("2006-01-02", dateStr)
}

func FormatDate(date time.Time) string {
	return date.UTC().Format("2006-01-02")
}
