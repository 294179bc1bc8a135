package recording

import (
	"strings"
	"time"
)

// apiLayouts are the formats the API is known to emit, tried in order.
var apiLayouts = []string{
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999Z",
}

// isoLayouts are the general ISO-8601 fallbacks, with either a T or a
// space between date and time, optional seconds and an optional offset.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime parses the timestamp formats seen in API responses.
// Values without an offset are taken as UTC. Returns nil for an empty or
// unparseable string; it never fails.
func ParseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	for _, layout := range apiLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return &t
		}
	}

	iso := s
	if rest, ok := strings.CutSuffix(iso, "Z"); ok {
		iso = rest + "+00:00"
	}
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, iso, time.UTC); err == nil {
			return &t
		}
	}

	return nil
}
