package timeutil

import (
	"testing"
	"time"
)

func TestParseDuration_Units(t *testing.T) {
	cases := map[string]time.Duration{
		"90s": 90 * time.Second,
		"2d":  48 * time.Hour,
		"1w":  7 * 24 * time.Hour,
	}
	for in, want := range cases {
		got, err := ParseDuration(in)
		if err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if got != want {
			t.Fatalf("%s: expected %s, got %s", in, want, got)
		}
	}
	if _, err := ParseDuration("3y"); err == nil {
		t.Fatal("expected unknown unit error")
	}
}

func TestParseDate_Forms(t *testing.T) {
	now := time.Date(2025, 6, 10, 15, 30, 0, 0, time.UTC)

	got, err := ParseDate("2017-01-01", now)
	if err != nil || !got.Equal(time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("plain date: %v %v", got, err)
	}

	got, err = ParseDate("-10d", now)
	if err != nil || !got.Equal(time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("relative date: %v %v", got, err)
	}

	got, err = ParseDate("2024-02-03 11:12:13", now)
	if err != nil || !got.Equal(time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("timestamp: %v %v", got, err)
	}

	if _, err := ParseDate("yesterday", now); err == nil {
		t.Fatal("expected error for unsupported text")
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 2, 27, 23, 0, 0, 0, time.UTC)
	b := time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC)
	if d := DaysBetween(a, b); d != 3 {
		t.Fatalf("expected 3 days across leap day, got %d", d)
	}
	if d := DaysBetween(b, a); d != -3 {
		t.Fatalf("expected -3, got %d", d)
	}
}
