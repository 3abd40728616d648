package util

import (
	"strconv"
	"strings"
)

// ParseDecimal cleans and parses a numeric cell as scraped from the
// exchange tables: thousands separators ("2,935,914,910.74"), leading
// "Rs." prefixes and percent suffixes are stripped. Placeholder cells
// ("-", "--", "") report ok=false.
func ParseDecimal(s string) (float64, bool) {
	cleaned := cleanNumeric(s)
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseDecimalDefault parses a numeric cell or returns def.
func ParseDecimalDefault(s string, def float64) float64 {
	if v, ok := ParseDecimal(s); ok {
		return v
	}
	return def
}

// ParseVolume parses an integer cell that may carry thousands separators
// or a trailing decimal part ("12,500.00" means 12500 shares).
func ParseVolume(s string) (int64, bool) {
	v, ok := ParseDecimal(s)
	if !ok || v < 0 {
		return 0, false
	}
	return int64(v), true
}

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func cleanNumeric(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" || s == "--" {
		return ""
	}
	// Skip any currency prefix like "Rs." so its dot does not survive
	// into the number.
	start := strings.IndexFunc(s, func(r rune) bool {
		return (r >= '0' && r <= '9') || r == '-'
	})
	if start < 0 {
		return ""
	}
	s = s[start:]
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == '-' && (i == 0 || b.Len() == 0):
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "-" || out == "." {
		return ""
	}
	return out
}
