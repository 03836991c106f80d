package util

import (
    "strconv"
    "testing"
    "time"
)

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

func TestParseTimeUnix(t *testing.T) {
    ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
    got, ok := ParseTime(strconv.FormatInt(ts, 10))
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Unix() != ts {
        t.Fatalf("unexpected unix %v", got.Unix())
    }
}

func TestParseTimeDefault(t *testing.T) {
    def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
    got := ParseTimeDefault("", def)
    if !got.Equal(def) {
        t.Fatalf("expected default")
    }
}

func TestAlignFromTo(t *testing.T) {
    from := time.Date(2026, 3, 2, 10, 7, 42, 0, time.UTC)
    to := time.Date(2026, 3, 2, 15, 59, 59, 0, time.UTC)

    af, at := AlignFromTo(from, to, "15Min")
    if af.Minute() != 0 || at.Minute() != 45 {
        t.Fatalf("unexpected 15Min alignment: %v %v", af, at)
    }

    af, at = AlignFromTo(from, to, "1Hour")
    if af.Minute() != 0 || af.Hour() != 10 || at.Hour() != 15 {
        t.Fatalf("unexpected 1Hour alignment: %v %v", af, at)
    }

    // Unknown timeframes fall back to minute alignment.
    af, _ = AlignFromTo(from, to, "3Sec")
    if af.Second() != 0 || af.Minute() != 7 {
        t.Fatalf("unexpected fallback alignment: %v", af)
    }
}