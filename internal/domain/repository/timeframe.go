package repository

import "SmartMoney/pkg/util"

const (
	DefaultPeriod   = "6mo"
	DefaultInterval = "1d"
)

// NormalizePeriod returns period, or fallback when it is empty or unknown.
func NormalizePeriod(period, fallback string) string {
	if period != "" && util.ValidPeriod(period) {
		return period
	}
	if fallback != "" {
		return fallback
	}
	return DefaultPeriod
}

// NormalizeInterval returns interval, or fallback when it is empty or unknown.
func NormalizeInterval(interval, fallback string) string {
	if interval != "" && util.ValidInterval(interval) {
		return interval
	}
	if fallback != "" {
		return fallback
	}
	return DefaultInterval
}
