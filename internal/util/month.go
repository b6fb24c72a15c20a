package util

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	monthKeyLayout = "2006-01"
	dateLayout     = "2006-01-02"
)

// MonthKey returns the zero-padded YYYY-MM bucket for t
func MonthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// ParseMonthKey parses a YYYY-MM key into the first day of that month (UTC)
func ParseMonthKey(key string) (time.Time, error) {
	return time.Parse(monthKeyLayout, key)
}

// dateLayouts are the accepted transaction date formats, tried in order
var dateLayouts = []string{
	dateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// ParseDate parses a transaction date. Only the year, month and day of the
// result are meaningful.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// MonthLabel returns the short English month name for a YYYY-MM key,
// or the key itself when it cannot be parsed
func MonthLabel(key string) string {
	t, err := ParseMonthKey(key)
	if err != nil {
		return key
	}
	return t.Format("Jan")
}

// TrailingMonths sorts month keys chronologically and keeps the last n.
// Keys must already be valid; the input slice is not modified.
func TrailingMonths(keys []string, n int) []string {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	// Zero-padded YYYY-MM keys order lexicographically the same as chronologically
	sort.Strings(sorted)
	if n >= 0 && len(sorted) > n {
		sorted = sorted[len(sorted)-n:]
	}
	return sorted
}

// MonthRange returns the first day of the given month and the first day of
// the following month, both UTC
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
