// Package utils holds the scalar coercions shared by the normalizer and the
// consistency checker.
package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
)

// SentinelDate stands in for an unknown creation date: the last day
// representable by a signed 32-bit Unix timestamp.
var SentinelDate = civil.Date{Year: 2038, Month: time.January, Day: 19}

// Timestamp layouts accepted from either store, tried in order. Zoned
// layouts come first; the naive ones are interpreted in the caller's
// location.
var (
	zonedLayouts = []string{
		"2006-01-02 15:04:05.999999999-07",
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999Z07:00",
		time.RFC3339Nano,
	}
	naiveLayouts = []string{
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04:05.999999999",
	}
)

// Blank reports whether a raw value is NULL or empty.
func Blank(v *string) bool {
	return v == nil || *v == ""
}

// ParseUUID parses a UUID. There is no default for a missing identity.
func ParseUUID(v *string) (uuid.UUID, error) {
	if Blank(v) {
		return uuid.Nil, fmt.Errorf("value is missing")
	}
	id, err := uuid.Parse(strings.TrimSpace(*v))
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Truncate cuts s to at most max characters. Over-long values are shortened
// silently.
func Truncate(s string, max int) string {
	if max < 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// ParseDate parses an ISO-8601 calendar date, substituting SentinelDate when
// the value is absent.
func ParseDate(v *string) (civil.Date, error) {
	if Blank(v) {
		return SentinelDate, nil
	}
	d, err := civil.ParseDate(strings.TrimSpace(*v))
	if err != nil {
		return civil.Date{}, err
	}
	return d, nil
}

// ParseRating parses a float. Anything that is not a finite number becomes
// nil instead of an error.
func ParseRating(v *string) *float64 {
	if Blank(v) {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(*v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// ParseTimestamp parses a timestamp in one of the accepted layouts and
// returns it in UTC at microsecond precision. Values without an offset are
// read in loc. Absent values take now().
func ParseTimestamp(v *string, loc *time.Location, now func() time.Time) (time.Time, error) {
	if Blank(v) {
		return normalizeTime(now()), nil
	}
	s := strings.TrimSpace(*v)
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return normalizeTime(t), nil
		}
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return normalizeTime(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse timestamp: %s", s)
}

func normalizeTime(t time.Time) time.Time {
	return t.UTC().Round(time.Microsecond)
}
