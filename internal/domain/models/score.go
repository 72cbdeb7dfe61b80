package models

import (
	"math"

	"github.com/shopspring/decimal"
)

// Label is the accumulation class derived from a SmartScore.
type Label string

const (
	LabelInstitutionalBreakout Label = "Institutional Breakout"
	LabelStrongAccumulation    Label = "Strong Accumulation"
	LabelEarlyAccumulation     Label = "Early Accumulation"
	LabelNeutralWeak           Label = "Neutral/Weak"
)

// AllLabels lists every label from strongest to weakest.
func AllLabels() []Label {
	return []Label{
		LabelInstitutionalBreakout,
		LabelStrongAccumulation,
		LabelEarlyAccumulation,
		LabelNeutralWeak,
	}
}

func (l Label) Valid() bool {
	for _, v := range AllLabels() {
		if l == v {
			return true
		}
	}
	return false
}

// FlagCount is the number of boolean conditions behind a SmartScore.
const FlagCount = 14

// Flags holds the boolean conditions evaluated on a ticker's latest bar.
type Flags struct {
	CMFPos        bool `json:"CMF_Pos"`
	RVOLHigh      bool `json:"RVOL_High"`
	ADXStrong     bool `json:"ADX_Strong"`
	DITrend       bool `json:"DI_Trend"`
	OBVUp         bool `json:"OBV_Up"`
	RSStrength    bool `json:"RS_Strength"`
	VolContract   bool `json:"Vol_Contract"`
	Breakout      bool `json:"Breakout"`
	VolumePattern bool `json:"Volume_Pattern"`
	ForcePos      bool `json:"Force_Pos"`
	MFIStrong     bool `json:"MFI_Strong"`
	RSITrendPos   bool `json:"RSI_Trend_Pos"`
	AboveVWAP     bool `json:"Above_VWAP"`
	ADLUp         bool `json:"ADL_Up"`
}

// FlagNames returns the column names in the order Values reports them.
func FlagNames() []string {
	return []string{
		"CMF_Pos", "RVOL_High", "ADX_Strong", "DI_Trend", "OBV_Up", "RS_Strength", "Vol_Contract",
		"Breakout", "Volume_Pattern", "Force_Pos", "MFI_Strong", "RSI_Trend_Pos", "Above_VWAP", "ADL_Up",
	}
}

func (f Flags) Values() []bool {
	return []bool{
		f.CMFPos, f.RVOLHigh, f.ADXStrong, f.DITrend, f.OBVUp, f.RSStrength, f.VolContract,
		f.Breakout, f.VolumePattern, f.ForcePos, f.MFIStrong, f.RSITrendPos, f.AboveVWAP, f.ADLUp,
	}
}

// Count returns how many flags are set.
func (f Flags) Count() int {
	n := 0
	for _, v := range f.Values() {
		if v {
			n++
		}
	}
	return n
}

// ScoreRecord is one row of the result table. Numeric indicators are nil
// when the underlying value was unavailable on the latest bar.
type ScoreRecord struct {
	Ticker     string   `json:"Ticker"`
	Close      float64  `json:"Close"`
	CMF        *float64 `json:"CMF"`
	RVOL       *float64 `json:"RVOL"`
	ADX        *float64 `json:"ADX"`
	DIPos      *float64 `json:"DI_pos"`
	DINeg      *float64 `json:"DI_neg"`
	OBVSlope   *float64 `json:"OBV_Slope"`
	RS         *float64 `json:"RS"`
	RSMA       *float64 `json:"RS_MA"`
	Volatility *float64 `json:"Volatility"`
	MFI        *float64 `json:"MFI"`
	RSI        *float64 `json:"RSI"`
	RSITrend   *float64 `json:"RSI_Trend"`
	VWAP       *float64 `json:"VWAP"`
	ADLSlope   *float64 `json:"ADL_Slope"`
	Flags
	SmartScore int   `json:"SmartScore"`
	Label      Label `json:"Label"`
}

// NumericNames returns the indicator column names in NumericValues order.
func NumericNames() []string {
	return []string{
		"CMF", "RVOL", "ADX", "DI_pos", "DI_neg", "OBV_Slope", "RS", "RS_MA",
		"Volatility", "MFI", "RSI", "RSI_Trend", "VWAP", "ADL_Slope",
	}
}

func (r ScoreRecord) NumericValues() []*float64 {
	return []*float64{
		r.CMF, r.RVOL, r.ADX, r.DIPos, r.DINeg, r.OBVSlope, r.RS, r.RSMA,
		r.Volatility, r.MFI, r.RSI, r.RSITrend, r.VWAP, r.ADLSlope,
	}
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Rounded converts an indicator value into its table form: nil when the
// value is unavailable, otherwise rounded to two decimals.
func Rounded(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	r := Round2(v)
	return &r
}
