package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"SmartMoney/internal/domain/models"
	pkgch "SmartMoney/pkg/clickhouse"
	applogger "SmartMoney/pkg/logger"
)

const scoreInsertColumns = 17

// execer is the part of *sql.DB the snapshot writer uses.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CHScoreStore keeps the latest result table in ClickHouse. Every run
// replaces the previous rows wholesale.
type CHScoreStore struct {
	db    execer
	table string
	l     *applogger.Logger
}

func NewCHScoreStore(ch *pkgch.Client, table string, l *applogger.Logger) *CHScoreStore {
	return newCHScoreStore(ch.DB(), qualify(ch.Database(), table), l)
}

func newCHScoreStore(db execer, table string, l *applogger.Logger) *CHScoreStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHScoreStore{db: db, table: table, l: l.Component("ch_scores")}
}

// ScoreSchema returns the DDL for the latest-results table.
func ScoreSchema(database, table string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            run_id       String,
            computed_at  DateTime64(3, 'UTC'),
            period       LowCardinality(String),
            bar_interval LowCardinality(String),
            ticker       String,
            close        Float64,
            cmf          Nullable(Float64),
            rvol         Nullable(Float64),
            adx          Nullable(Float64),
            mfi          Nullable(Float64),
            rsi          Nullable(Float64),
            rs           Nullable(Float64),
            volatility   Nullable(Float64),
            vwap         Nullable(Float64),
            flags        Array(UInt8),
            smart_score  UInt8,
            label        LowCardinality(String)
        ) ENGINE = ReplacingMergeTree(computed_at)
        ORDER BY ticker`, qualify(database, table)),
	}
}

// PublishResult truncates the table and inserts the run's records in chunks,
// so tickers missing from this run do not linger from an earlier one.
func (s *CHScoreStore) PublishResult(ctx context.Context, res *models.ScreeningResult) error {
	if res == nil {
		return nil
	}
	start := time.Now()
	if _, err := s.db.ExecContext(ctx, "TRUNCATE TABLE IF EXISTS "+s.table); err != nil {
		s.l.Error("clickhouse truncate scores error", applogger.String("table", s.table), applogger.Error(err))
		return fmt.Errorf("truncate scores: %w", err)
	}
	const chunkSize = 1000
	for lo := 0; lo < len(res.Records); lo += chunkSize {
		hi := min(lo+chunkSize, len(res.Records))
		q, args := buildScoreInsert(s.table, res, res.Records[lo:hi])
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse insert scores error",
				applogger.String("table", s.table),
				applogger.String("run_id", res.RunID),
				applogger.Error(err),
			)
			return fmt.Errorf("insert scores: %w", err)
		}
	}
	s.l.Debug("clickhouse scores replaced",
		applogger.String("run_id", res.RunID),
		applogger.Int("rows", len(res.Records)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

func (s *CHScoreStore) Close() error { return nil }

func buildScoreInsert(table string, res *models.ScreeningResult, recs []models.ScoreRecord) (string, []interface{}) {
	row := "(" + strings.TrimSuffix(strings.Repeat("?, ", scoreInsertColumns), ", ") + ")"
	values := make([]string, 0, len(recs))
	args := make([]interface{}, 0, len(recs)*scoreInsertColumns)
	for _, r := range recs {
		flags := make([]uint8, 0, models.FlagCount)
		for _, f := range r.Flags.Values() {
			var v uint8
			if f {
				v = 1
			}
			flags = append(flags, v)
		}
		values = append(values, row)
		args = append(args,
			res.RunID, res.ComputedAt, res.Period, res.Interval,
			r.Ticker, r.Close,
			r.CMF, r.RVOL, r.ADX, r.MFI, r.RSI, r.RS, r.Volatility, r.VWAP,
			flags, uint8(r.SmartScore), string(r.Label),
		)
	}
	q := fmt.Sprintf(`INSERT INTO %s (run_id, computed_at, period, bar_interval, ticker, close,
        cmf, rvol, adx, mfi, rsi, rs, volatility, vwap, flags, smart_score, label) VALUES %s`,
		table, strings.Join(values, ","))
	return q, args
}
