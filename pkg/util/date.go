package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrUnsupportedPeriod is returned for lookback windows the market data
// vendors do not understand.
var ErrUnsupportedPeriod = fmt.Errorf("unsupported period")

// ErrUnsupportedInterval is returned for bar intervals the market data
// vendors do not understand.
var ErrUnsupportedInterval = fmt.Errorf("unsupported interval")

var intervals = map[string]struct{}{
	"1m": {}, "2m": {}, "5m": {}, "15m": {}, "30m": {}, "60m": {}, "90m": {}, "1h": {},
	"1d": {}, "5d": {}, "1wk": {}, "1mo": {}, "3mo": {},
}

// ValidInterval reports whether s is a known bar interval ("1d", "1wk", ...).
func ValidInterval(s string) bool {
	_, ok := intervals[s]
	return ok
}

// PeriodStart resolves a lookback period such as "6mo", "1y", "5d" or "ytd"
// into the first calendar day it covers, relative to now.
func PeriodStart(period string, now time.Time) (time.Time, error) {
	p := strings.ToLower(strings.TrimSpace(period))
	day := TruncateDay(now)

	switch p {
	case "ytd":
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), nil
	case "max":
		return time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC), nil
	}

	var unit string
	for _, u := range []string{"mo", "wk", "d", "y"} {
		if strings.HasSuffix(p, u) {
			unit = u
			break
		}
	}
	if unit == "" {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnsupportedPeriod, period)
	}
	n, err := strconv.Atoi(strings.TrimSuffix(p, unit))
	if err != nil || n <= 0 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnsupportedPeriod, period)
	}

	switch unit {
	case "d":
		return day.AddDate(0, 0, -n), nil
	case "wk":
		return day.AddDate(0, 0, -7*n), nil
	case "mo":
		return day.AddDate(0, -n, 0), nil
	default:
		return day.AddDate(-n, 0, 0), nil
	}
}

// ValidPeriod reports whether PeriodStart understands period.
func ValidPeriod(period string) bool {
	_, err := PeriodStart(period, time.Now())
	return err == nil
}

// TruncateDay drops the clock part of t, keeping its location.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
