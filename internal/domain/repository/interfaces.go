package repository

import (
	"context"
	"errors"
	"time"

	"SmartMoney/internal/domain/models"
)

// ErrNoData is returned by MarketData when the vendor has nothing for a symbol.
var ErrNoData = errors.New("no market data")

// MarketData retrieves daily OHLCV histories from a vendor or a local store.
type MarketData interface {
	// History returns the bars of one symbol over the lookback period.
	History(ctx context.Context, symbol, period, interval string) (models.Series, error)
	// BatchHistory retrieves several symbols in one grouped call. Symbols the
	// vendor could not serve are simply absent from the map; an error means
	// the whole batch is lost.
	BatchHistory(ctx context.Context, symbols []string, period, interval string) (map[string]models.Series, error)
}

// ResultCache stores finished screening runs.
type ResultCache interface {
	Get(ctx context.Context, key string) (*models.ScreeningResult, error)
	Put(ctx context.Context, key string, res *models.ScreeningResult) error
	Invalidate(ctx context.Context, key string) error
	InvalidateAll(ctx context.Context) error
	Key(universe []string, period, interval string) string
	// Lock blocks until the run lock for key is held or ctx is done.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// ResultPublisher ships finished runs to downstream consumers.
type ResultPublisher interface {
	PublishResult(ctx context.Context, res *models.ScreeningResult) error
	Close() error
}

// ProgressReporter receives a progress event after every batch.
type ProgressReporter interface {
	Report(ev models.ProgressEvent)
}

type Metrics interface {
	RecordRun(status string, d time.Duration)
	RecordBatch(status string, d time.Duration)
	RecordScored(label string)
	RecordFailure(kind string)
	RecordProgress(fraction float64)
	RecordError(kind string)
}
