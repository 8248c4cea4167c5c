package utils

import (
	"fmt"
	"time"
)

// ParseRFC3339 returns a time from the provided string or an error.
func ParseRFC3339(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time: %w", err)
	}
	return t, nil
}

// DaysBetween returns the signed day span from start to end. Negative when
// end precedes start, so callers can tell lead time from lag.
func DaysBetween(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24
}
