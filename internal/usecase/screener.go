package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"SmartMoney/internal/domain/models"
	drepo "SmartMoney/internal/domain/repository"
	dsvc "SmartMoney/internal/domain/service"
	applogger "SmartMoney/pkg/logger"

	"github.com/google/uuid"
)

// ErrBenchmarkUnavailable aborts a run: relative strength cannot be computed
// for anyone without the benchmark.
var ErrBenchmarkUnavailable = errors.New("benchmark series unavailable")

const DefaultBatchSize = 50

// Screener scores a ticker universe batch by batch against one benchmark.
type Screener struct {
	data      drepo.MarketData
	scorer    dsvc.TickerScorer
	metrics   drepo.Metrics
	l         *applogger.Logger
	benchmark string
	batchSize int
}

type ScreenerOption func(*Screener)

func WithBenchmark(symbol string) ScreenerOption {
	return func(s *Screener) { s.benchmark = symbol }
}

func WithBatchSize(n int) ScreenerOption {
	return func(s *Screener) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

func WithScreenerMetrics(m drepo.Metrics) ScreenerOption {
	return func(s *Screener) {
		if m != nil {
			s.metrics = m
		}
	}
}

func NewScreener(data drepo.MarketData, scorer dsvc.TickerScorer, l *applogger.Logger, opts ...ScreenerOption) *Screener {
	if l == nil {
		l = applogger.Nop()
	}
	s := &Screener{
		data:      data,
		scorer:    scorer,
		metrics:   nopMetrics{},
		l:         l.Component("screener"),
		benchmark: "^JKSE",
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunParams describes one screening run.
type RunParams struct {
	RunID     string
	Universe  []string
	Period    string
	Interval  string
	BatchSize int
	Progress  drepo.ProgressReporter
}

// Run loads the benchmark once, then fetches and scores the universe in
// sequential batches. Per-ticker and per-batch problems end up in the
// result's failures; only a missing benchmark fails the run. Once ctx is
// done the remaining batches are recorded as batch failures and the tickers
// scored so far are returned.
func (s *Screener) Run(ctx context.Context, p RunParams) (*models.ScreeningResult, error) {
	start := time.Now()
	if p.RunID == "" {
		p.RunID = uuid.NewString()
	}
	size := p.BatchSize
	if size <= 0 {
		size = s.batchSize
	}
	l := s.l.With(applogger.String("run_id", p.RunID))

	bench, err := s.loadBenchmark(ctx, p.Period, p.Interval)
	if err != nil {
		s.metrics.RecordRun("benchmark_failed", time.Since(start))
		l.Error("benchmark load failed", applogger.String("benchmark", s.benchmark), applogger.Error(err))
		return nil, err
	}

	res := &models.ScreeningResult{
		RunID:     p.RunID,
		Benchmark: s.benchmark,
		Period:    p.Period,
		Interval:  p.Interval,
		Universe:  len(p.Universe),
		Records:   make([]models.ScoreRecord, 0, len(p.Universe)),
		Failures:  make([]models.Failure, 0),
	}
	failed := make(map[string]struct{})
	fail := func(ticker string, kind models.FailureKind, reason string) {
		if _, ok := failed[ticker]; ok {
			return
		}
		failed[ticker] = struct{}{}
		res.Failures = append(res.Failures, models.Failure{Ticker: ticker, Kind: kind, Reason: reason})
		s.metrics.RecordFailure(string(kind))
	}

	batches := Partition(p.Universe, size)
	cancelled := false
	for b, batch := range batches {
		if err := ctx.Err(); err != nil {
			for _, sym := range batch {
				fail(sym, models.FailureBatch, err.Error())
			}
			s.metrics.RecordBatch("cancelled", 0)
			if !cancelled {
				cancelled = true
				l.Warn("screening run cancelled, remaining batches skipped",
					applogger.Int("batch", b+1),
					applogger.Int("batches", len(batches)),
					applogger.Error(err),
				)
			}
		} else {
			s.runBatch(ctx, l, batch, bench, p, res, fail)
		}

		fraction := float64(b+1) / float64(len(batches))
		s.metrics.RecordProgress(fraction)
		if p.Progress != nil {
			p.Progress.Report(models.ProgressEvent{
				RunID:    p.RunID,
				Batch:    b + 1,
				Batches:  len(batches),
				Fraction: fraction,
				Scored:   len(res.Records),
				Failed:   len(res.Failures),
				Done:     b+1 == len(batches),
			})
		}
	}
	if len(batches) == 0 && p.Progress != nil {
		p.Progress.Report(models.ProgressEvent{RunID: p.RunID, Fraction: 1, Done: true})
	}

	SortByScore(res.Records)
	res.ComputedAt = time.Now().UTC()
	res.Duration = time.Since(start)
	status := "ok"
	if cancelled {
		status = "cancelled"
	}
	s.metrics.RecordRun(status, res.Duration)

	l.Info("screening run complete",
		applogger.Int("universe", res.Universe),
		applogger.Int("analyzed", len(res.Records)),
		applogger.Int("failed", len(res.Failures)),
		applogger.Int("batches", len(batches)),
		applogger.Duration("duration_ms", res.Duration),
	)
	return res, nil
}

func (s *Screener) runBatch(
	ctx context.Context,
	l *applogger.Logger,
	batch []string,
	bench models.Series,
	p RunParams,
	res *models.ScreeningResult,
	fail func(string, models.FailureKind, string),
) {
	start := time.Now()

	data, err := s.data.BatchHistory(ctx, batch, p.Period, p.Interval)
	if err != nil {
		for _, sym := range batch {
			fail(sym, models.FailureBatch, err.Error())
		}
		s.metrics.RecordBatch("failed", time.Since(start))
		l.Warn("batch download failed", applogger.Strings("tickers", batch), applogger.Error(err))
		return
	}

	for _, sym := range batch {
		series, ok := data[sym]
		if !ok || series.Empty() {
			fail(sym, models.FailureMissing, "no data returned")
			continue
		}
		if err := series.Validate(); err != nil {
			fail(sym, models.FailureInvalid, err.Error())
			continue
		}
		if series.Len() < models.MinObservations {
			fail(sym, models.FailureTooShort, fmt.Sprintf("%d bars, need %d", series.Len(), models.MinObservations))
			continue
		}

		series.Symbol = sym
		rec, err := s.scoreTicker(series, bench)
		if err != nil {
			fail(sym, models.FailureCompute, err.Error())
			continue
		}
		res.Records = append(res.Records, rec)
		s.metrics.RecordScored(string(rec.Label))
	}

	s.metrics.RecordBatch("ok", time.Since(start))
	l.Debug("batch scored",
		applogger.Int("size", len(batch)),
		applogger.Int("scored_total", len(res.Records)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
}

func (s *Screener) loadBenchmark(ctx context.Context, period, interval string) (models.Series, error) {
	bench, err := s.data.History(ctx, s.benchmark, period, interval)
	if err != nil {
		return models.Series{}, fmt.Errorf("%w: %s: %v", ErrBenchmarkUnavailable, s.benchmark, err)
	}
	if bench.Empty() {
		return models.Series{}, fmt.Errorf("%w: %s returned no bars", ErrBenchmarkUnavailable, s.benchmark)
	}
	return bench, nil
}

// scoreTicker isolates a single ticker: a panic in the indicator chain is
// reported as an error for that ticker only.
func (s *Screener) scoreTicker(series, bench models.Series) (rec models.ScoreRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic scoring %s: %v", series.Symbol, r)
		}
	}()
	return s.scorer.Score(series, bench)
}

// Partition splits symbols into consecutive batches of at most size items.
func Partition(symbols []string, size int) [][]string {
	if size <= 0 {
		size = DefaultBatchSize
	}
	out := make([][]string, 0, (len(symbols)+size-1)/size)
	for i := 0; i < len(symbols); i += size {
		end := min(i+size, len(symbols))
		out = append(out, symbols[i:end])
	}
	return out
}

// SortByScore orders records by SmartScore, highest first. Ties keep their
// input order.
func SortByScore(records []models.ScoreRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].SmartScore > records[j].SmartScore
	})
}

type nopMetrics struct{}

func (nopMetrics) RecordRun(string, time.Duration)   {}
func (nopMetrics) RecordBatch(string, time.Duration) {}
func (nopMetrics) RecordScored(string)               {}
func (nopMetrics) RecordFailure(string)              {}
func (nopMetrics) RecordProgress(float64)            {}
func (nopMetrics) RecordError(string)                {}
