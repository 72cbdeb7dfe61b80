package util

import (
	"errors"
	"testing"
	"time"
)

func TestPeriodStart(t *testing.T) {
	now := time.Date(2024, 10, 10, 15, 30, 0, 0, time.UTC)
	cases := []struct {
		period string
		want   time.Time
	}{
		{"5d", time.Date(2024, 10, 5, 0, 0, 0, 0, time.UTC)},
		{"1mo", time.Date(2024, 9, 10, 0, 0, 0, 0, time.UTC)},
		{"6mo", time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)},
		{"1y", time.Date(2023, 10, 10, 0, 0, 0, 0, time.UTC)},
		{"2wk", time.Date(2024, 9, 26, 0, 0, 0, 0, time.UTC)},
		{"ytd", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"6MO", time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, err := PeriodStart(tc.period, now)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.period, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("%s: got %v want %v", tc.period, got, tc.want)
		}
	}
}

func TestPeriodStartRejectsGarbage(t *testing.T) {
	for _, p := range []string{"", "six months", "0mo", "-1y", "mo"} {
		if _, err := PeriodStart(p, time.Now()); !errors.Is(err, ErrUnsupportedPeriod) {
			t.Fatalf("%q: expected ErrUnsupportedPeriod, got %v", p, err)
		}
	}
}

func TestValidInterval(t *testing.T) {
	if !ValidInterval("1d") || !ValidInterval("1wk") {
		t.Fatalf("expected daily and weekly to be valid")
	}
	if ValidInterval("7d") {
		t.Fatalf("7d should not be valid")
	}
	if ValidInterval("2h") {
		t.Fatalf("2h should not be valid")
	}
}

func TestNormalizeSymbols(t *testing.T) {
	got := NormalizeSymbols([]string{" bbca.jk", "BBCA.JK", "", "tlkm.jk "})
	if len(got) != 2 || got[0] != "BBCA.JK" || got[1] != "TLKM.JK" {
		t.Fatalf("unexpected symbols %v", got)
	}
}
