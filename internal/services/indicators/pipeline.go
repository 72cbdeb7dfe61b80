package indicators

import (
	"errors"
	"time"

	"SmartMoney/internal/domain/models"
)

var ErrEmptySeries = errors.New("indicators: empty series")

// Params holds the look-back windows and ratios used by Compute.
type Params struct {
	SlopeLag           int
	CMFPeriod          int
	DMIPeriod          int
	RVOLPeriod         int
	MFIPeriod          int
	RSIPeriod          int
	VWAPPeriod         int
	VolatilityWindow   int
	ContractionWindow  int
	ContractionRatio   float64
	BreakoutWindow     int
	VolumeWindow       int
	DryUpRatio         float64
	SurgeRatio         float64
	ForceWindow        int
	RelativeStrengthMA int
}

func DefaultParams() Params {
	return Params{
		SlopeLag:           5,
		CMFPeriod:          20,
		DMIPeriod:          14,
		RVOLPeriod:         20,
		MFIPeriod:          14,
		RSIPeriod:          14,
		VWAPPeriod:         14,
		VolatilityWindow:   10,
		ContractionWindow:  60,
		ContractionRatio:   0.8,
		BreakoutWindow:     20,
		VolumeWindow:       20,
		DryUpRatio:         0.5,
		SurgeRatio:         2,
		ForceWindow:        10,
		RelativeStrengthMA: 20,
	}
}

// Frame is the ticker's history augmented with every derived column. All
// slices share the length and index of Dates. NaN marks unavailable values.
type Frame struct {
	Symbol string
	Dates  []time.Time
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64

	OBV        []float64
	OBVSlope   []float64
	CMF        []float64
	ADX        []float64
	DIPos      []float64
	DINeg      []float64
	RVOL       []float64
	MFI        []float64
	RSI        []float64
	RSITrend   []float64
	VWAP       []float64
	ADL        []float64
	ADLSlope   []float64
	Range      []float64
	Volatility []float64
	Force      []float64
	Benchmark  []float64
	RS         []float64
	RSMA       []float64

	VolContraction []bool
	Breakout       []bool
	VolDryUp       []bool
	VolSurge       []bool
	ForcePos       []bool
	RSStrength     []bool
}

func (f *Frame) Len() int { return len(f.Dates) }

// Last returns the index of the most recent bar.
func (f *Frame) Last() int { return len(f.Dates) - 1 }

// Compute runs the pipeline with DefaultParams.
func Compute(series, benchmark models.Series) (*Frame, error) {
	return DefaultParams().Compute(series, benchmark)
}

// Compute derives every indicator column for series. The benchmark is
// aligned onto the series' dates before relative strength is taken.
func (p Params) Compute(series, benchmark models.Series) (*Frame, error) {
	if series.Empty() {
		return nil, ErrEmptySeries
	}

	highs, lows := series.Highs(), series.Lows()
	closes, volumes := series.Closes(), series.Volumes()
	n := len(closes)

	f := &Frame{
		Symbol: series.Symbol,
		Dates:  series.Dates(),
		High:   highs,
		Low:    lows,
		Close:  closes,
		Volume: volumes,
	}

	f.OBV = CalculateOBV(closes, volumes)
	f.OBVSlope = Diff(f.OBV, p.SlopeLag)
	f.CMF = CalculateCMF(highs, lows, closes, volumes, p.CMFPeriod)

	dmi := CalculateDMI(highs, lows, closes, p.DMIPeriod)
	f.ADX, f.DIPos, f.DINeg = dmi.ADX, dmi.PlusDI, dmi.MinusDI

	f.RVOL = CalculateRVOL(volumes, p.RVOLPeriod)
	f.MFI = CalculateMFI(highs, lows, closes, volumes, p.MFIPeriod)
	f.RSI = CalculateRSI(closes, p.RSIPeriod)
	f.RSITrend = Diff(f.RSI, p.SlopeLag)
	f.VWAP = CalculateVWAP(highs, lows, closes, volumes, p.VWAPPeriod)
	f.ADL = CalculateADL(highs, lows, closes, volumes)
	f.ADLSlope = Diff(f.ADL, p.SlopeLag)

	f.Range = make([]float64, n)
	for i := range closes {
		f.Range[i] = div(highs[i]-lows[i], closes[i])
	}
	f.Volatility = RollingStd(f.Range, p.VolatilityWindow)
	volMean := RollingMean(f.Volatility, p.ContractionWindow)

	priorMax := Shift(RollingMax(closes, p.BreakoutWindow), 1)
	avgVolume := RollingMean(volumes, p.VolumeWindow)

	f.Force = CalculateForceIndex(closes, volumes)
	forceMean := RollingMean(f.Force, p.ForceWindow)

	f.Benchmark = AlignBenchmark(f.Dates, benchmark)
	f.RS = make([]float64, n)
	for i := range closes {
		f.RS[i] = div(closes[i], f.Benchmark[i])
	}
	f.RSMA = RollingMean(f.RS, p.RelativeStrengthMA)

	f.VolContraction = make([]bool, n)
	f.Breakout = make([]bool, n)
	f.VolDryUp = make([]bool, n)
	f.VolSurge = make([]bool, n)
	f.ForcePos = make([]bool, n)
	f.RSStrength = make([]bool, n)
	for i := 0; i < n; i++ {
		// NaN compares false, so warm-up bars never raise a flag
		f.VolContraction[i] = f.Volatility[i] < volMean[i]*p.ContractionRatio
		f.Breakout[i] = closes[i] > priorMax[i]
		f.VolDryUp[i] = volumes[i] < avgVolume[i]*p.DryUpRatio
		f.VolSurge[i] = volumes[i] > avgVolume[i]*p.SurgeRatio
		f.ForcePos[i] = forceMean[i] > 0
		f.RSStrength[i] = f.RS[i] > f.RSMA[i]
	}

	return f, nil
}

// AlignBenchmark maps the benchmark close onto dates. A date the benchmark
// lacks takes the value aligned on the previous date; dates before the first
// match stay NaN.
func AlignBenchmark(dates []time.Time, benchmark models.Series) []float64 {
	byDay := make(map[string]float64, benchmark.Len())
	for _, b := range benchmark.Bars {
		byDay[dayKey(b.Date)] = b.Close
	}

	out := nanSlice(len(dates))
	last := NaN
	for i, d := range dates {
		if v, ok := byDay[dayKey(d)]; ok && !isNaN(v) {
			last = v
		}
		out[i] = last
	}
	return out
}

func dayKey(t time.Time) string { return t.Format(time.DateOnly) }
