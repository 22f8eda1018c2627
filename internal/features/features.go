// Package features turns raw location and context fields into model inputs.
package features

import (
	"strings"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// ParseTimestamp parses an ISO-8601 timestamp with or without a zone.
// A trailing "Z" is accepted. It reports false for anything else.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// Hour resolves the hour of day from an explicit value or a timestamp.
// The explicit hour wins; without either the hour is 0.
func Hour(hour *int, timestamp string) int {
	if hour != nil {
		return *hour
	}
	if t, ok := ParseTimestamp(timestamp); ok {
		return t.Hour()
	}
	return 0
}

// Bool returns 1 for true and 0 for false.
func Bool(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
