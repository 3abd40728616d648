package util

import (
	"regexp"
	"strings"
)

// Exchange symbols are 2-6 uppercase letters.
var symbolRe = regexp.MustCompile(`^[A-Z]{2,6}$`)

// NormalizeSymbol upcases and trims a user-supplied symbol.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidSymbol reports whether s is a plausible exchange symbol after
// normalization.
func ValidSymbol(s string) bool {
	return symbolRe.MatchString(NormalizeSymbol(s))
}
