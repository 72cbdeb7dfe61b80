package models

import "time"

// FailureKind says at which stage a ticker dropped out of a run.
type FailureKind string

const (
	FailureBatch    FailureKind = "batch"
	FailureMissing  FailureKind = "missing"
	FailureTooShort FailureKind = "too_short"
	FailureInvalid  FailureKind = "invalid"
	FailureCompute  FailureKind = "compute"
)

// Failure records a ticker that could not be scored.
type Failure struct {
	Ticker string      `json:"ticker"`
	Kind   FailureKind `json:"kind"`
	Reason string      `json:"reason,omitempty"`
}

// ScreeningResult is the output of one screening run: the ranked result
// table plus the tickers that failed.
type ScreeningResult struct {
	RunID      string        `json:"run_id"`
	Benchmark  string        `json:"benchmark"`
	Period     string        `json:"period"`
	Interval   string        `json:"interval"`
	Universe   int           `json:"universe"`
	Records    []ScoreRecord `json:"records"`
	Failures   []Failure     `json:"failures"`
	ComputedAt time.Time     `json:"computed_at"`
	Duration   time.Duration `json:"duration"`
}

// Summary is the headline count of a run.
type Summary struct {
	RunID          string              `json:"run_id"`
	Analyzed       int                 `json:"analyzed"`
	Failed         int                 `json:"failed"`
	Universe       int                 `json:"universe"`
	ByLabel        map[Label]int       `json:"by_label"`
	FailuresByKind map[FailureKind]int `json:"failures_by_kind"`
	ComputedAt     time.Time           `json:"computed_at"`
	DurationMs     int64               `json:"duration_ms"`
	Cached         bool                `json:"cached"`
}

func (r *ScreeningResult) Summary() Summary {
	s := Summary{
		RunID:          r.RunID,
		Analyzed:       len(r.Records),
		Failed:         len(r.Failures),
		Universe:       r.Universe,
		ByLabel:        make(map[Label]int, 4),
		FailuresByKind: make(map[FailureKind]int),
		ComputedAt:     r.ComputedAt,
		DurationMs:     r.Duration.Milliseconds(),
	}
	for _, rec := range r.Records {
		s.ByLabel[rec.Label]++
	}
	for _, f := range r.Failures {
		s.FailuresByKind[f.Kind]++
	}
	return s
}

// FailedTickers returns the failed symbols in the order they were recorded.
func (r *ScreeningResult) FailedTickers() []string {
	out := make([]string, len(r.Failures))
	for i, f := range r.Failures {
		out[i] = f.Ticker
	}
	return out
}

// ProgressEvent is emitted after each batch of a run.
type ProgressEvent struct {
	RunID    string  `json:"run_id"`
	Batch    int     `json:"batch"`
	Batches  int     `json:"batches"`
	Fraction float64 `json:"fraction"`
	Scored   int     `json:"scored"`
	Failed   int     `json:"failed"`
	Done     bool    `json:"done"`
}
