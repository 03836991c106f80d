package scheduler

import (
	"testing"
	"time"
)

func mustHours(t *testing.T) *MarketHours {
	t.Helper()
	h, err := NewMarketHours("America/New_York")
	if err != nil {
		t.Fatalf("market hours: %v", err)
	}
	return h
}

func nyTime(t *testing.T, value string) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	ts, err := time.ParseInLocation("2006-01-02 15:04", value, loc)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return ts
}

func TestMarketHoursWeekdaySession(t *testing.T) {
	h := mustHours(t)

	cases := []struct {
		at   string
		open bool
	}{
		{"2026-03-02 09:29", false}, // Monday, pre-open
		{"2026-03-02 09:30", true},  // open is inclusive
		{"2026-03-02 12:00", true},
		{"2026-03-02 15:59", true},
		{"2026-03-02 16:00", false}, // close is exclusive
		{"2026-03-02 20:00", false},
	}
	for _, tc := range cases {
		if got := h.IsOpen(nyTime(t, tc.at)); got != tc.open {
			t.Fatalf("%s: expected open=%v, got %v", tc.at, tc.open, got)
		}
	}
}

func TestMarketHoursWeekendClosed(t *testing.T) {
	h := mustHours(t)

	if h.IsOpen(nyTime(t, "2026-03-07 12:00")) { // Saturday
		t.Fatal("Saturday noon must be closed")
	}
	if h.IsOpen(nyTime(t, "2026-03-08 12:00")) { // Sunday
		t.Fatal("Sunday noon must be closed")
	}
}

func TestMarketHoursOtherTimezone(t *testing.T) {
	h := mustHours(t)

	// 18:00 UTC on a March Monday is 13:00 in New York (EST): open.
	at := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	if !h.IsOpen(at) {
		t.Fatal("18:00 UTC should map into the New York session")
	}
	// 03:00 UTC is 22:00 the previous evening in New York: closed.
	at = time.Date(2026, 3, 3, 3, 0, 0, 0, time.UTC)
	if h.IsOpen(at) {
		t.Fatal("03:00 UTC should be outside the session")
	}
}

func TestNextOpenSkipsWeekend(t *testing.T) {
	h := mustHours(t)

	// Friday after close rolls to Monday 09:30.
	next := h.NextOpen(nyTime(t, "2026-03-06 17:00"))
	want := nyTime(t, "2026-03-09 09:30")
	if !next.Equal(want) {
		t.Fatalf("expected next open %s, got %s", want, next)
	}
}

func TestEveryFormat(t *testing.T) {
	if got := every(120 * time.Second); got != "@every 2m0s" {
		t.Fatalf("unexpected spec: %s", got)
	}
	if got := every(time.Hour); got != "@every 1h0m0s" {
		t.Fatalf("unexpected spec: %s", got)
	}
}
