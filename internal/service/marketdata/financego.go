package marketdata

import (
	"context"
	"fmt"
	"time"

	"SmartMoney/internal/domain/models"
	drepo "SmartMoney/internal/domain/repository"
	applogger "SmartMoney/pkg/logger"
	"SmartMoney/pkg/util"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"golang.org/x/time/rate"
)

// FinanceGo reads daily bars through the piquette/finance-go chart client.
type FinanceGo struct {
	limiter *rate.Limiter
	workers int
	loc     *time.Location
	now     func() time.Time
	l       *applogger.Logger
}

func NewFinanceGo(l *applogger.Logger, perSec float64, burst, workers int, loc *time.Location) *FinanceGo {
	if l == nil {
		l = applogger.Nop()
	}
	if loc == nil {
		loc = time.UTC
	}
	lim := rate.NewLimiter(rate.Inf, 1)
	if perSec > 0 {
		lim = rate.NewLimiter(rate.Limit(perSec), max(burst, 1))
	}
	return &FinanceGo{
		limiter: lim,
		workers: max(workers, 1),
		loc:     loc,
		now:     time.Now,
		l:       l.Component("financego"),
	}
}

func (f *FinanceGo) History(ctx context.Context, symbol, period, interval string) (models.Series, error) {
	now := f.now().In(f.loc)
	start, err := util.PeriodStart(period, now)
	if err != nil {
		return models.Series{}, err
	}
	if !util.ValidInterval(interval) {
		return models.Series{}, fmt.Errorf("%w: %q", util.ErrUnsupportedInterval, interval)
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return models.Series{}, err
	}

	end := now.AddDate(0, 0, 1)
	params := &chart.Params{
		Params:   finance.Params{Context: &ctx},
		Symbol:   symbol,
		Start:    &datetime.Datetime{Month: int(start.Month()), Day: start.Day(), Year: start.Year()},
		End:      &datetime.Datetime{Month: int(end.Month()), Day: end.Day(), Year: end.Year()},
		Interval: datetime.Interval(interval),
	}

	series := models.Series{Symbol: symbol}
	iter := chart.Get(params)
	for iter.Next() {
		b := iter.Bar()
		open, _ := b.Open.Float64()
		high, _ := b.High.Float64()
		low, _ := b.Low.Float64()
		cls, _ := b.Close.Float64()
		day := util.TruncateDay(time.Unix(int64(b.Timestamp), 0).In(f.loc))
		bar := models.Bar{Date: day, Open: open, High: high, Low: low, Close: cls, Volume: float64(b.Volume)}
		if n := len(series.Bars); n > 0 && series.Bars[n-1].Date.Equal(day) {
			series.Bars[n-1] = bar
			continue
		}
		series.Bars = append(series.Bars, bar)
	}
	if err := iter.Err(); err != nil {
		return models.Series{}, fmt.Errorf("finance-go chart %s: %w", symbol, err)
	}
	if series.Empty() {
		return series, fmt.Errorf("%s: %w", symbol, drepo.ErrNoData)
	}
	return series, nil
}

func (f *FinanceGo) BatchHistory(ctx context.Context, symbols []string, period, interval string) (map[string]models.Series, error) {
	return fetchBatch(ctx, f.l, f.workers, symbols, period, interval, f.History)
}
