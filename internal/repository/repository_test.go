package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"SmartMoney/internal/domain/models"
	pkgkafka "SmartMoney/pkg/kafka"
)

func TestBuildBarsQuery(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	q, args, err := buildBarsQuery("smartmoney.daily_bars", []string{"A", "B", "C"}, from, "1d")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(q, "symbol IN (?, ?, ?)") || !strings.Contains(q, "FROM smartmoney.daily_bars") {
		t.Fatalf("unexpected query %s", q)
	}
	if len(args) != 4 || args[0] != "A" || args[3] != from {
		t.Fatalf("args = %v", args)
	}

	wq, _, err := buildBarsQuery("t", []string{"A"}, from, "1wk")
	if err != nil || !strings.Contains(wq, "toStartOfWeek") {
		t.Fatalf("weekly query = %s, %v", wq, err)
	}
	if _, _, err := buildBarsQuery("t", []string{"A"}, from, "5m"); err == nil {
		t.Fatalf("intraday interval accepted")
	}
}

func TestAppendBarGroupsBySymbol(t *testing.T) {
	out := map[string]models.Series{}
	d := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	appendBar(out, "A", models.Bar{Date: d, Close: 1})
	appendBar(out, "B", models.Bar{Date: d, Close: 2})
	appendBar(out, "A", models.Bar{Date: d.AddDate(0, 0, 1), Close: 3})

	if out["A"].Len() != 2 || out["B"].Len() != 1 || out["A"].Symbol != "A" {
		t.Fatalf("grouping wrong: %+v", out)
	}
	if out["A"].Bars[0].Date.Hour() != 0 {
		t.Fatalf("date not truncated")
	}
}

func TestQualify(t *testing.T) {
	if qualify("db", "bars") != "db.bars" || qualify("db", "x.bars") != "x.bars" || qualify("", "bars") != "bars" {
		t.Fatalf("qualify broken")
	}
}

func TestBuildScoreInsert(t *testing.T) {
	rsi := 55.0
	res := &models.ScreeningResult{RunID: "r", Period: "6mo", Interval: "1d", ComputedAt: time.Now()}
	recs := []models.ScoreRecord{
		{Ticker: "A", RSI: &rsi, Flags: models.Flags{CMFPos: true}, SmartScore: 1, Label: models.LabelNeutralWeak},
		{Ticker: "B"},
	}
	q, args := buildScoreInsert("db.scores", res, recs)
	if strings.Count(q, "(?, ") != 2 {
		t.Fatalf("expected two value rows: %s", q)
	}
	if len(args) != 2*scoreInsertColumns {
		t.Fatalf("args = %d", len(args))
	}
	flags, ok := args[14].([]uint8)
	if !ok || len(flags) != models.FlagCount || flags[0] != 1 || flags[1] != 0 {
		t.Fatalf("flags arg = %v", args[14])
	}
}

type fakeProducer struct {
	batches map[string][]pkgkafka.Message
	single  map[string][]interface{}
	err     error
	closed  bool
}

func newFakeProducer() *fakeProducer {
	return &fakeProducer{batches: map[string][]pkgkafka.Message{}, single: map[string][]interface{}{}}
}

func (p *fakeProducer) PublishBatch(_ context.Context, topic string, msgs []pkgkafka.Message) error {
	if p.err != nil {
		return p.err
	}
	p.batches[topic] = append(p.batches[topic], msgs...)
	return nil
}

func (p *fakeProducer) Publish(_ context.Context, topic string, _ []byte, v interface{}) error {
	p.single[topic] = append(p.single[topic], v)
	return nil
}

func (p *fakeProducer) Close() error {
	p.closed = true
	return nil
}

func TestKafkaResultPublisher(t *testing.T) {
	prod := newFakeProducer()
	pub := NewKafkaResultPublisher(prod, "scores", "runs")
	res := &models.ScreeningResult{
		RunID:   "run-1",
		Records: []models.ScoreRecord{{Ticker: "BBCA.JK", SmartScore: 9, Label: models.LabelStrongAccumulation}, {Ticker: "TLKM.JK"}},
	}
	if err := pub.PublishResult(context.Background(), res); err != nil {
		t.Fatalf("publish: %v", err)
	}
	msgs := prod.batches["scores"]
	if len(msgs) != 2 || string(msgs[0].Key) != "BBCA.JK" || msgs[0].Headers["run_id"] != "run-1" {
		t.Fatalf("score messages = %+v", msgs)
	}
	b, _ := json.Marshal(msgs[0].Value)
	var decoded map[string]interface{}
	_ = json.Unmarshal(b, &decoded)
	if decoded["run_id"] != "run-1" || decoded["Ticker"] != "BBCA.JK" || decoded["SmartScore"] != float64(9) {
		t.Fatalf("event = %s", b)
	}
	if len(prod.single["runs"]) != 1 {
		t.Fatalf("summary not published")
	}
	if sum, ok := prod.single["runs"][0].(models.Summary); !ok || sum.Analyzed != 2 {
		t.Fatalf("summary = %+v", prod.single["runs"][0])
	}
	_ = pub.Close()
	if !prod.closed {
		t.Fatalf("producer not closed")
	}
}

type stubPublisher struct {
	err   error
	calls int
}

func (s *stubPublisher) PublishResult(context.Context, *models.ScreeningResult) error {
	s.calls++
	return s.err
}

func (s *stubPublisher) Close() error { return nil }

func TestMultiPublisherJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	a, b := &stubPublisher{err: boom}, &stubPublisher{}
	err := MultiPublisher{a, b}.PublishResult(context.Background(), &models.ScreeningResult{})
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Fatalf("every sink must be called")
	}
}

type fakeExecer struct {
	queries []string
	failOn  string
}

func (f *fakeExecer) ExecContext(_ context.Context, query string, _ ...interface{}) (sql.Result, error) {
	f.queries = append(f.queries, query)
	if f.failOn != "" && strings.HasPrefix(query, f.failOn) {
		return nil, errors.New("code: 60, table does not exist")
	}
	return nil, nil
}

func TestScoreStoreReplacesPreviousRun(t *testing.T) {
	db := &fakeExecer{}
	store := newCHScoreStore(db, "smartmoney.smart_scores", nil)
	res := &models.ScreeningResult{
		RunID:      "r2",
		ComputedAt: time.Now(),
		Records:    []models.ScoreRecord{{Ticker: "BBCA.JK"}, {Ticker: "TLKM.JK"}},
	}
	if err := store.PublishResult(context.Background(), res); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(db.queries) != 2 {
		t.Fatalf("queries = %v", db.queries)
	}
	if db.queries[0] != "TRUNCATE TABLE IF EXISTS smartmoney.smart_scores" {
		t.Fatalf("first statement must clear the table, got %q", db.queries[0])
	}
	if !strings.HasPrefix(db.queries[1], "INSERT INTO smartmoney.smart_scores") {
		t.Fatalf("second statement = %q", db.queries[1])
	}

	// An empty run still clears the previous snapshot.
	db.queries = nil
	if err := store.PublishResult(context.Background(), &models.ScreeningResult{RunID: "r3"}); err != nil {
		t.Fatalf("publish empty: %v", err)
	}
	if len(db.queries) != 1 || !strings.HasPrefix(db.queries[0], "TRUNCATE") {
		t.Fatalf("empty run queries = %v", db.queries)
	}
}

func TestScoreStoreStopsWhenTruncateFails(t *testing.T) {
	db := &fakeExecer{failOn: "TRUNCATE"}
	store := newCHScoreStore(db, "scores", nil)
	err := store.PublishResult(context.Background(), &models.ScreeningResult{Records: []models.ScoreRecord{{Ticker: "A"}}})
	if err == nil || len(db.queries) != 1 {
		t.Fatalf("err=%v queries=%v", err, db.queries)
	}
}

func TestScoreSchemaKeepsOneRowPerTicker(t *testing.T) {
	ddl := ScoreSchema("smartmoney", "smart_scores")[0]
	if !strings.Contains(ddl, "ReplacingMergeTree") || !strings.Contains(ddl, "ORDER BY ticker") {
		t.Fatalf("ddl = %s", ddl)
	}
}
