package scoring

import (
	"math"
	"testing"
	"time"

	"SmartMoney/internal/domain/models"
	"SmartMoney/internal/services/indicators"
)

// frame builds an n-bar frame whose latest bar satisfies every condition.
func frame(n int) *indicators.Frame {
	fill := func(v float64) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = v
		}
		return out
	}
	bools := func(v bool) []bool {
		out := make([]bool, n)
		for i := range out {
			out[i] = v
		}
		return out
	}
	f := &indicators.Frame{
		Symbol:         "BBCA.JK",
		Dates:          make([]time.Time, n),
		Close:          fill(110),
		CMF:            fill(0.2),
		RVOL:           fill(3),
		ADX:            fill(30),
		DIPos:          fill(30),
		DINeg:          fill(10),
		OBVSlope:       fill(1000),
		MFI:            fill(70),
		RSI:            fill(60),
		RSITrend:       fill(2),
		VWAP:           fill(100),
		ADLSlope:       fill(500),
		RS:             fill(1.2),
		RSMA:           fill(1.1),
		Volatility:     fill(0.02),
		RSStrength:     bools(true),
		VolContraction: bools(true),
		Breakout:       bools(true),
		VolSurge:       bools(true),
		VolDryUp:       bools(true),
		ForcePos:       bools(true),
	}
	return f
}

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  models.Label
	}{
		{14, models.LabelInstitutionalBreakout},
		{12, models.LabelInstitutionalBreakout},
		{11, models.LabelStrongAccumulation},
		{9, models.LabelStrongAccumulation},
		{8, models.LabelEarlyAccumulation},
		{6, models.LabelEarlyAccumulation},
		{5, models.LabelNeutralWeak},
		{0, models.LabelNeutralWeak},
	}
	for _, tc := range cases {
		if got := Classify(tc.score); got != tc.want {
			t.Fatalf("Classify(%d) = %q want %q", tc.score, got, tc.want)
		}
	}
}

func TestSynthesizeAllTrue(t *testing.T) {
	flags := Synthesize(frame(30))
	if flags.Count() != models.FlagCount {
		t.Fatalf("expected all %d flags, got %d: %+v", models.FlagCount, flags.Count(), flags)
	}
}

func TestThirteenFlagsIsInstitutionalBreakout(t *testing.T) {
	f := frame(30)
	f.ADX[f.Last()] = 20

	flags := Synthesize(f)
	if flags.ADXStrong {
		t.Fatalf("ADX below threshold should not be strong")
	}
	rec := Record(f, flags)
	if rec.SmartScore != 13 || rec.Label != models.LabelInstitutionalBreakout {
		t.Fatalf("got score %d label %q", rec.SmartScore, rec.Label)
	}
}

func TestAllFalseIsNeutral(t *testing.T) {
	rec := Record(frame(30), models.Flags{})
	if rec.SmartScore != 0 || rec.Label != models.LabelNeutralWeak {
		t.Fatalf("got score %d label %q", rec.SmartScore, rec.Label)
	}
}

func TestSynthesizeTreatsNaNAsFalse(t *testing.T) {
	f := frame(30)
	i := f.Last()
	f.CMF[i] = math.NaN()
	f.RSI[i] = math.NaN()
	f.VWAP[i] = math.NaN()
	f.DINeg[i] = math.NaN()

	flags := Synthesize(f)
	if flags.CMFPos || flags.RSITrendPos || flags.AboveVWAP || flags.DITrend {
		t.Fatalf("NaN inputs must yield false flags: %+v", flags)
	}
	rec := Record(f, flags)
	if rec.CMF != nil || rec.RSI != nil || rec.VWAP != nil {
		t.Fatalf("NaN numerics must be nil in the record")
	}
}

func TestVolumePattern(t *testing.T) {
	cases := []struct {
		name   string
		dryUps int
		surge  bool
		want   bool
	}{
		{"four dry-ups then surge", 4, true, true},
		{"three dry-ups is not enough", 3, true, false},
		{"no surge", 10, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := frame(30)
			last := f.Last()
			for i := range f.VolDryUp {
				f.VolDryUp[i] = false
			}
			for i := 0; i < tc.dryUps; i++ {
				f.VolDryUp[last-1-i] = true
			}
			f.VolSurge[last] = tc.surge
			if got := Synthesize(f).VolumePattern; got != tc.want {
				t.Fatalf("VolumePattern = %v want %v", got, tc.want)
			}
		})
	}
}

func TestVolumePatternNeedsFullWindow(t *testing.T) {
	f := frame(10)
	if Synthesize(f).VolumePattern {
		t.Fatalf("window before the latest bar is incomplete, flag must be false")
	}
}

func TestRecordRounding(t *testing.T) {
	f := frame(30)
	i := f.Last()
	f.Close[i] = 1234.5678
	f.RSI[i] = 61.234

	rec := Record(f, Synthesize(f))
	if rec.Close != 1234.57 {
		t.Fatalf("close = %v", rec.Close)
	}
	if rec.RSI == nil || *rec.RSI != 61.23 {
		t.Fatalf("rsi = %v", rec.RSI)
	}
}

func TestScorerEndToEnd(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := models.Series{Symbol: "TLKM.JK"}
	bench := models.Series{Symbol: "^JKSE"}
	for i := 0; i < 90; i++ {
		c := 100 + float64(i)
		d := base.AddDate(0, 0, i)
		series.Bars = append(series.Bars, models.Bar{Date: d, Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000})
		bench.Bars = append(bench.Bars, models.Bar{Date: d, Close: 7000})
	}

	rec, err := NewScorer().Score(series, bench)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if rec.Ticker != "TLKM.JK" || rec.Close != 189 {
		t.Fatalf("unexpected record head: %s %v", rec.Ticker, rec.Close)
	}
	if rec.SmartScore != rec.Flags.Count() || rec.Label != Classify(rec.SmartScore) {
		t.Fatalf("score/label inconsistent: %d %q", rec.SmartScore, rec.Label)
	}
	if !rec.Breakout || !rec.OBVUp || !rec.RSStrength {
		t.Fatalf("steady uptrend should break out with rising OBV and RS: %+v", rec.Flags)
	}
}

func TestScorerRejectsEmpty(t *testing.T) {
	if _, err := NewScorer().Score(models.Series{Symbol: "X"}, models.Series{}); err == nil {
		t.Fatalf("expected error for empty series")
	}
}
