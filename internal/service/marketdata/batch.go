package marketdata

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"SmartMoney/internal/domain/models"
	drepo "SmartMoney/internal/domain/repository"
	applogger "SmartMoney/pkg/logger"
)

// historyFunc fetches one symbol.
type historyFunc func(ctx context.Context, symbol, period, interval string) (models.Series, error)

// fetchBatch runs fetch for every symbol with at most workers in flight.
// Symbols that fail are left out of the map. The batch itself only fails
// when the context ends or when every symbol failed for a reason other than
// missing data, which is how a dead upstream shows itself.
func fetchBatch(ctx context.Context, l *applogger.Logger, workers int, symbols []string, period, interval string, fetch historyFunc) (map[string]models.Series, error) {
	if workers <= 0 {
		workers = 1
	}
	if l == nil {
		l = applogger.Nop()
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		out      = make(map[string]models.Series, len(symbols))
		firstErr error
		hardErrs int
	)
	sem := make(chan struct{}, workers)

	for _, sym := range symbols {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			defer func() { <-sem }()

			series, err := fetch(ctx, sym, period, interval)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if !errors.Is(err, drepo.ErrNoData) {
					hardErrs++
					if firstErr == nil {
						firstErr = err
					}
				}
				l.Debug("symbol fetch failed", applogger.String("symbol", sym), applogger.Error(err))
				return
			}
			out[sym] = series
		}(sym)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(symbols) > 0 && hardErrs == len(symbols) {
		return nil, fmt.Errorf("batch of %d symbols failed: %w", len(symbols), firstErr)
	}
	return out, nil
}
