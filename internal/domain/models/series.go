package models

import (
	"errors"
	"fmt"
	"time"
)

// MinObservations is the shortest history a ticker needs to be scored.
const MinObservations = 40

var ErrUnorderedSeries = errors.New("series dates are not strictly increasing")

// Bar is one OHLCV observation.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series is the date-indexed history of one symbol, oldest bar first.
type Series struct {
	Symbol string `json:"symbol"`
	Bars   []Bar  `json:"bars"`
}

func (s Series) Len() int { return len(s.Bars) }

func (s Series) Empty() bool { return len(s.Bars) == 0 }

// Last returns the most recent bar. It panics on an empty series.
func (s Series) Last() Bar { return s.Bars[len(s.Bars)-1] }

// Validate checks that dates are strictly increasing.
func (s Series) Validate() error {
	for i := 1; i < len(s.Bars); i++ {
		if !s.Bars[i].Date.After(s.Bars[i-1].Date) {
			return fmt.Errorf("%s at %s: %w", s.Symbol, s.Bars[i].Date.Format(time.DateOnly), ErrUnorderedSeries)
		}
	}
	return nil
}

func (s Series) Dates() []time.Time {
	out := make([]time.Time, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Date
	}
	return out
}

func (s Series) Highs() []float64  { return s.column(func(b Bar) float64 { return b.High }) }
func (s Series) Lows() []float64   { return s.column(func(b Bar) float64 { return b.Low }) }
func (s Series) Closes() []float64 { return s.column(func(b Bar) float64 { return b.Close }) }
func (s Series) Volumes() []float64 {
	return s.column(func(b Bar) float64 { return b.Volume })
}

func (s Series) column(pick func(Bar) float64) []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = pick(b)
	}
	return out
}
