package scoring

import (
	"fmt"

	"SmartMoney/internal/domain/models"
	"SmartMoney/internal/services/indicators"
)

// SmartScore is the number of flags that hold.
func SmartScore(flags models.Flags) int {
	return flags.Count()
}

// Classify maps a SmartScore onto its label.
func Classify(score int) models.Label {
	switch {
	case score >= 12:
		return models.LabelInstitutionalBreakout
	case score >= 9:
		return models.LabelStrongAccumulation
	case score >= 6:
		return models.LabelEarlyAccumulation
	default:
		return models.LabelNeutralWeak
	}
}

// Record assembles the result-table row for a computed frame.
func Record(f *indicators.Frame, flags models.Flags) models.ScoreRecord {
	i := f.Last()
	score := SmartScore(flags)
	return models.ScoreRecord{
		Ticker:     f.Symbol,
		Close:      models.Round2(f.Close[i]),
		CMF:        models.Rounded(f.CMF[i]),
		RVOL:       models.Rounded(f.RVOL[i]),
		ADX:        models.Rounded(f.ADX[i]),
		DIPos:      models.Rounded(f.DIPos[i]),
		DINeg:      models.Rounded(f.DINeg[i]),
		OBVSlope:   models.Rounded(f.OBVSlope[i]),
		RS:         models.Rounded(f.RS[i]),
		RSMA:       models.Rounded(f.RSMA[i]),
		Volatility: models.Rounded(f.Volatility[i]),
		MFI:        models.Rounded(f.MFI[i]),
		RSI:        models.Rounded(f.RSI[i]),
		RSITrend:   models.Rounded(f.RSITrend[i]),
		VWAP:       models.Rounded(f.VWAP[i]),
		ADLSlope:   models.Rounded(f.ADLSlope[i]),
		Flags:      flags,
		SmartScore: score,
		Label:      Classify(score),
	}
}

// Scorer runs the indicator pipeline, the flag synthesizer and the
// classifier for one ticker.
type Scorer struct {
	params     indicators.Params
	thresholds Thresholds
}

func NewScorer() *Scorer {
	return &Scorer{params: indicators.DefaultParams(), thresholds: DefaultThresholds()}
}

func (s *Scorer) Score(series, benchmark models.Series) (models.ScoreRecord, error) {
	f, err := s.params.Compute(series, benchmark)
	if err != nil {
		return models.ScoreRecord{}, fmt.Errorf("compute %s: %w", series.Symbol, err)
	}
	return Record(f, s.thresholds.Synthesize(f)), nil
}
