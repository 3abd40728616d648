package util

import (
	"testing"
	"time"
)

func TestParseAsOfBanner(t *testing.T) {
	got, ok := ParseAsOf("As of 2025-09-28 15:00:02")
	if !ok {
		t.Fatalf("expected ok")
	}
	want := time.Date(2025, 9, 28, 15, 0, 2, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseAsOfDateOnly(t *testing.T) {
	got, ok := ParseAsOf("As on 2025-09-28")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Year() != 2025 || got.Month() != 9 || got.Day() != 28 {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseAsOfGarbage(t *testing.T) {
	if _, ok := ParseAsOf("Weekly Turnover Rs. 25 Arba"); ok {
		t.Fatalf("expected not ok")
	}
}

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestValidSymbol(t *testing.T) {
	for s, want := range map[string]bool{
		"nabil":         true,
		"ADBL":          true,
		"A":             false,
		"TOOLONGSYMBOL": false,
		"NAB1L":         false,
		"":              false,
	} {
		if got := ValidSymbol(s); got != want {
			t.Errorf("ValidSymbol(%q) = %v, want %v", s, got, want)
		}
	}
}
