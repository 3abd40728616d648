package util

import (
	"strconv"
	"strings"
	"time"
)

// Layouts seen on the exchange pages, most specific first.
var asOfLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006",
}

// ParseAsOf parses the "As of ..." / "As on ..." banner the exchange
// prints above its tables. Returns (t, true) when a date was found.
func ParseAsOf(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"As of", "As on"} {
		if idx := strings.Index(s, prefix); idx >= 0 {
			s = strings.TrimSpace(s[idx+len(prefix):])
			break
		}
	}
	s = strings.TrimSuffix(s, ".")
	for _, layout := range asOfLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}
