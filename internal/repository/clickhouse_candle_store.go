package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"SmartMoney/internal/domain/models"
	drepo "SmartMoney/internal/domain/repository"
	pkgch "SmartMoney/pkg/clickhouse"
	applogger "SmartMoney/pkg/logger"
	"SmartMoney/pkg/util"
)

// CHCandleStore implements MarketData over a ClickHouse table of daily bars.
type CHCandleStore struct {
	db    *sql.DB
	table string
	now   func() time.Time
	l     *applogger.Logger
}

func NewCHCandleStore(ch *pkgch.Client, table string, l *applogger.Logger) *CHCandleStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHCandleStore{
		db:    ch.DB(),
		table: qualify(ch.Database(), table),
		now:   time.Now,
		l:     l.Component("ch_candles"),
	}
}

// CandleSchema returns the DDL for the bars table.
func CandleSchema(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            symbol LowCardinality(String),
            day    Date,
            open   Float64,
            high   Float64,
            low    Float64,
            close  Float64,
            volume Float64
        ) ENGINE = ReplacingMergeTree
        ORDER BY (symbol, day)`, qualify(database, table)),
	}
}

func (s *CHCandleStore) History(ctx context.Context, symbol, period, interval string) (models.Series, error) {
	out, err := s.BatchHistory(ctx, []string{symbol}, period, interval)
	if err != nil {
		return models.Series{}, err
	}
	series, ok := out[symbol]
	if !ok {
		return models.Series{}, fmt.Errorf("%s: %w", symbol, drepo.ErrNoData)
	}
	return series, nil
}

// BatchHistory loads the whole batch with one query.
func (s *CHCandleStore) BatchHistory(ctx context.Context, symbols []string, period, interval string) (map[string]models.Series, error) {
	if len(symbols) == 0 {
		return map[string]models.Series{}, nil
	}
	from, err := util.PeriodStart(period, s.now().UTC())
	if err != nil {
		return nil, err
	}
	q, args, err := buildBarsQuery(s.table, symbols, from, interval)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.l.Error("clickhouse bars query error",
			applogger.String("table", s.table),
			applogger.Int("symbols", len(symbols)),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.Series, len(symbols))
	n := 0
	for rows.Next() {
		var (
			sym string
			bar models.Bar
		)
		if err := rows.Scan(&sym, &bar.Date, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			s.l.Error("clickhouse bars scan error", applogger.String("table", s.table), applogger.Error(err))
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		appendBar(out, sym, bar)
		n++
	}
	if err := rows.Err(); err != nil {
		s.l.Error("clickhouse bars rows error", applogger.String("table", s.table), applogger.Error(err))
		return nil, fmt.Errorf("rows: %w", err)
	}

	s.l.Debug("clickhouse bars ok",
		applogger.String("table", s.table),
		applogger.Int("symbols", len(symbols)),
		applogger.Int("found", len(out)),
		applogger.Int("rows", n),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func appendBar(out map[string]models.Series, sym string, bar models.Bar) {
	series := out[sym]
	series.Symbol = sym
	bar.Date = util.TruncateDay(bar.Date)
	series.Bars = append(series.Bars, bar)
	out[sym] = series
}

func buildBarsQuery(table string, symbols []string, from time.Time, interval string) (string, []interface{}, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(symbols)), ", ")
	args := make([]interface{}, 0, len(symbols)+1)
	for _, sym := range symbols {
		args = append(args, sym)
	}
	args = append(args, from)

	switch interval {
	case "1d":
		return fmt.Sprintf(`
        SELECT symbol, day, open, high, low, close, volume
        FROM %s FINAL
        WHERE symbol IN (%s) AND day >= ?
        ORDER BY symbol, day ASC`, table, placeholders), args, nil
	case "1wk":
		return fmt.Sprintf(`
        SELECT symbol, toStartOfWeek(day, 1) AS wk,
               argMin(open, day), max(high), min(low), argMax(close, day), sum(volume)
        FROM %s FINAL
        WHERE symbol IN (%s) AND day >= ?
        GROUP BY symbol, wk
        ORDER BY symbol, wk ASC`, table, placeholders), args, nil
	default:
		return "", nil, fmt.Errorf("%w: %q", util.ErrUnsupportedInterval, interval)
	}
}

func qualify(database, table string) string {
	if database == "" || strings.Contains(table, ".") {
		return table
	}
	return database + "." + table
}
