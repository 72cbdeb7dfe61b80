package scoring

import (
	"SmartMoney/internal/domain/models"
	"SmartMoney/internal/services/indicators"
)

// Thresholds are the cut-offs that turn indicator values into flags.
type Thresholds struct {
	CMF         float64
	RVOL        float64
	ADX         float64
	MFI         float64
	RSI         float64
	DryUpWindow int
	DryUpCount  float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		CMF:         0.1,
		RVOL:        2,
		ADX:         25,
		MFI:         60,
		RSI:         50,
		DryUpWindow: 10,
		DryUpCount:  3,
	}
}

// Synthesize evaluates the flags on the frame's latest bar with the
// default thresholds.
func Synthesize(f *indicators.Frame) models.Flags {
	return DefaultThresholds().Synthesize(f)
}

// Synthesize evaluates the flags on the frame's latest bar. Any condition
// that touches an unavailable value is false.
func (t Thresholds) Synthesize(f *indicators.Frame) models.Flags {
	i := f.Last()
	if i < 0 {
		return models.Flags{}
	}

	return models.Flags{
		CMFPos:        f.CMF[i] > t.CMF,
		RVOLHigh:      f.RVOL[i] > t.RVOL,
		ADXStrong:     f.ADX[i] > t.ADX,
		DITrend:       f.DIPos[i] > f.DINeg[i],
		OBVUp:         f.OBVSlope[i] > 0,
		RSStrength:    f.RSStrength[i],
		VolContract:   f.VolContraction[i],
		Breakout:      f.Breakout[i],
		VolumePattern: f.VolSurge[i] && t.priorDryUps(f, i) > t.DryUpCount,
		ForcePos:      f.ForcePos[i],
		MFIStrong:     f.MFI[i] > t.MFI,
		RSITrendPos:   f.RSI[i] > t.RSI && f.RSITrend[i] > 0,
		AboveVWAP:     f.Close[i] > f.VWAP[i],
		ADLUp:         f.ADLSlope[i] > 0,
	}
}

// priorDryUps counts dry-up bars in the window that ends on the bar before i.
// It is NaN when that window is incomplete.
func (t Thresholds) priorDryUps(f *indicators.Frame, i int) float64 {
	if i < 1 {
		return indicators.NaN
	}
	return indicators.CountTrue(f.VolDryUp[:i], t.DryUpWindow)[i-1]
}
