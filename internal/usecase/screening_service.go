package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"SmartMoney/internal/domain/models"
	drepo "SmartMoney/internal/domain/repository"
	"SmartMoney/pkg/cache"
	applogger "SmartMoney/pkg/logger"
	"SmartMoney/pkg/util"
)

var (
	ErrEmptyUniverse = errors.New("ticker universe is empty")
	ErrNoResults     = errors.New("no screening results yet")
	ErrRunInProgress = errors.New("another screening run holds the lock")
)

// ScreeningDefaults are applied to commands that leave a field empty.
type ScreeningDefaults struct {
	Universe   []string
	Period     string
	Interval   string
	BatchSize  int
	RunTimeout time.Duration
}

// RunCommand asks for a screening run. Zero fields fall back to defaults.
type RunCommand struct {
	Tickers    []string
	Period     string
	Interval   string
	BatchSize  int
	Refresh    bool
	// RefreshAll drops every cached run, not only this universe's.
	RefreshAll bool
}

// RunOutcome is a finished run and whether it was served from cache.
type RunOutcome struct {
	Result *models.ScreeningResult
	Cached bool
}

// ScreeningService is the command surface over the screener: run screening
// (cache-aware) and filter the most recent result.
type ScreeningService struct {
	screener  *Screener
	cache     drepo.ResultCache
	publisher drepo.ResultPublisher
	progress  drepo.ProgressReporter
	metrics   drepo.Metrics
	l         *applogger.Logger
	defaults  ScreeningDefaults

	runMu  sync.Mutex
	mu     sync.RWMutex
	last   *models.ScreeningResult
	cached bool
}

func NewScreeningService(
	screener *Screener,
	resultCache drepo.ResultCache,
	publisher drepo.ResultPublisher,
	progress drepo.ProgressReporter,
	metrics drepo.Metrics,
	l *applogger.Logger,
	defaults ScreeningDefaults,
) *ScreeningService {
	if l == nil {
		l = applogger.Nop()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	defaults.Universe = util.NormalizeSymbols(defaults.Universe)
	defaults.Period = drepo.NormalizePeriod(defaults.Period, drepo.DefaultPeriod)
	defaults.Interval = drepo.NormalizeInterval(defaults.Interval, drepo.DefaultInterval)
	if defaults.BatchSize <= 0 {
		defaults.BatchSize = DefaultBatchSize
	}
	return &ScreeningService{
		screener:  screener,
		cache:     resultCache,
		publisher: publisher,
		progress:  progress,
		metrics:   metrics,
		l:         l.Component("screening"),
		defaults:  defaults,
	}
}

// RunScreening serves the run from cache when a fresh entry exists for the
// same universe, period and interval; otherwise it runs the screener. Refresh
// invalidates the cached entry first. Runs are serialised in-process and,
// through the cache lock, across replicas sharing a Redis store. A run that
// hits RunTimeout returns its partial result, which is not cached.
func (s *ScreeningService) RunScreening(ctx context.Context, cmd RunCommand) (*RunOutcome, error) {
	universe := s.defaults.Universe
	if len(cmd.Tickers) > 0 {
		universe = util.NormalizeSymbols(cmd.Tickers)
	}
	if len(universe) == 0 {
		return nil, ErrEmptyUniverse
	}
	period := drepo.NormalizePeriod(cmd.Period, s.defaults.Period)
	interval := drepo.NormalizeInterval(cmd.Interval, s.defaults.Interval)
	batchSize := cmd.BatchSize
	if batchSize <= 0 {
		batchSize = s.defaults.BatchSize
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	// Runs are detached from the caller; only RunTimeout bounds them.
	ctx = context.WithoutCancel(ctx)
	runCtx := ctx
	if s.defaults.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.defaults.RunTimeout)
		defer cancel()
	}

	var key string
	if s.cache != nil {
		key = s.cache.Key(universe, period, interval)
		unlock, err := s.cache.Lock(runCtx, key)
		switch {
		case err == nil:
			defer unlock()
		case runCtx.Err() != nil:
			return nil, fmt.Errorf("%w: %v", ErrRunInProgress, err)
		default:
			s.metrics.RecordError("cache_lock")
			s.l.Warn("run lock unavailable, running unlocked", applogger.String("key", key), applogger.Error(err))
		}

		if cmd.RefreshAll {
			if err := s.cache.InvalidateAll(ctx); err != nil {
				s.l.Warn("cache invalidate all failed", applogger.Error(err))
			}
		} else if cmd.Refresh {
			if err := s.cache.Invalidate(ctx, key); err != nil {
				s.l.Warn("cache invalidate failed", applogger.String("key", key), applogger.Error(err))
			}
		} else if res, err := s.cache.Get(ctx, key); err == nil {
			s.setLast(res, true)
			s.l.Info("screening served from cache",
				applogger.String("key", key),
				applogger.String("run_id", res.RunID),
			)
			return &RunOutcome{Result: res, Cached: true}, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.metrics.RecordError("cache_get")
			s.l.Warn("cache read failed", applogger.String("key", key), applogger.Error(err))
		}
	}

	res, err := s.screener.Run(runCtx, RunParams{
		Universe:  universe,
		Period:    period,
		Interval:  interval,
		BatchSize: batchSize,
		Progress:  s.progress,
	})
	if err != nil {
		return nil, err
	}
	s.setLast(res, false)

	if s.cache != nil && runCtx.Err() == nil {
		if err := s.cache.Put(ctx, key, res); err != nil {
			s.metrics.RecordError("cache_put")
			s.l.Warn("cache write failed", applogger.String("key", key), applogger.Error(err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishResult(ctx, res); err != nil {
			s.metrics.RecordError("publish")
			s.l.Warn("result publish failed", applogger.String("run_id", res.RunID), applogger.Error(err))
		}
	}
	return &RunOutcome{Result: res}, nil
}

// ApplyFilters filters the most recent result table.
func (s *ScreeningService) ApplyFilters(f Filter) ([]models.ScoreRecord, error) {
	res, _, ok := s.Last()
	if !ok {
		return nil, ErrNoResults
	}
	return f.Apply(res.Records), nil
}

// Last returns the most recent result and whether it came from cache.
func (s *ScreeningService) Last() (*models.ScreeningResult, bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil, false, false
	}
	return s.last, s.cached, true
}

// Universe returns the default ticker universe.
func (s *ScreeningService) Universe() []string {
	return append([]string(nil), s.defaults.Universe...)
}

func (s *ScreeningService) setLast(res *models.ScreeningResult, cached bool) {
	s.mu.Lock()
	s.last = res
	s.cached = cached
	s.mu.Unlock()
}
