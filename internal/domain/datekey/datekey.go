// Package datekey handles the canonical YYYY-MM-DD keys that identify a
// single day's puzzle. Keys are zero-padded and fixed width, so plain string
// comparison orders them chronologically; everything downstream (slot
// scheduling, the time lock, calendar queries) relies on that equivalence.
package datekey

import (
	"fmt"
	"strings"
	"time"

	"codele_backend/internal/common"
)

const Layout = "2006-01-02"

// Parse validates a strict YYYY-MM-DD key and returns its components.
// Both the shape (fixed width, zero padded) and the calendar date must be
// valid; time.Parse alone accepts unpadded fields, so the shape is checked
// first.
func Parse(s string) (year, month, day int, err error) {
	if !wellFormed(s) {
		return 0, 0, 0, fmt.Errorf("datekey.Parse %q: %w", s, common.ErrInvalidDateFormat)
	}
	t, perr := time.Parse(Layout, s)
	if perr != nil {
		return 0, 0, 0, fmt.Errorf("datekey.Parse %q: %w", s, common.ErrInvalidDateFormat)
	}
	return t.Year(), int(t.Month()), t.Day(), nil
}

func wellFormed(s string) bool {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return false
	}
	for i, c := range s {
		if i == 4 || i == 7 {
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Format builds a zero-padded key from components.
func Format(year, month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

// Compare orders two keys. Lexicographic order equals chronological order
// for this fixed-width format.
func Compare(a, b string) int {
	return strings.Compare(a, b)
}

// AddDays returns the key n days after (or before, for negative n) the
// given key.
func AddDays(key string, n int) (string, error) {
	if _, _, _, err := Parse(key); err != nil {
		return "", err
	}
	t, err := time.Parse(Layout, key)
	if err != nil {
		return "", fmt.Errorf("datekey.AddDays %q: %w", key, common.ErrInvalidDateFormat)
	}
	return t.AddDate(0, 0, n).Format(Layout), nil
}

// FromTime formats a time as a date key in UTC.
func FromTime(t time.Time) string {
	return t.UTC().Format(Layout)
}

// MonthBounds returns the first and last possible keys of a YYYY-MM month
// string, for range queries. "-31" is a safe upper bound for every month
// because keys are compared as strings.
func MonthBounds(month string) (minKey, maxKey string, err error) {
	if len(month) != 7 || month[4] != '-' {
		return "", "", fmt.Errorf("datekey.MonthBounds %q: %w", month, common.ErrInvalidDateFormat)
	}
	if _, _, _, perr := Parse(month + "-01"); perr != nil {
		return "", "", fmt.Errorf("datekey.MonthBounds %q: %w", month, common.ErrInvalidDateFormat)
	}
	return month + "-01", month + "-31", nil
}
