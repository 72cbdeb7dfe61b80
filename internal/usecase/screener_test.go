package usecase

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"SmartMoney/internal/domain/models"
	dsvc "SmartMoney/internal/domain/service"
)

func makeSeries(sym string, n int) models.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := models.Series{Symbol: sym, Bars: make([]models.Bar, n)}
	for i := range s.Bars {
		c := 100 + float64(i)
		s.Bars[i] = models.Bar{Date: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000}
	}
	return s
}

type fakeData struct {
	mu        sync.Mutex
	series    map[string]models.Series
	benchErr  error
	failBatch string
	calls     [][]string
	history   int
	// afterBatch runs once each BatchHistory call has been served.
	afterBatch func()
}

func (f *fakeData) History(_ context.Context, symbol, _, _ string) (models.Series, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history++
	if f.benchErr != nil {
		return models.Series{}, f.benchErr
	}
	return f.series[symbol], nil
}

func (f *fakeData) BatchHistory(_ context.Context, symbols []string, _, _ string) (map[string]models.Series, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.afterBatch != nil {
		defer f.afterBatch()
	}
	f.calls = append(f.calls, append([]string(nil), symbols...))
	out := make(map[string]models.Series)
	for _, s := range symbols {
		if s == f.failBatch {
			return nil, errors.New("upstream timeout")
		}
		if series, ok := f.series[s]; ok {
			out[s] = series
		}
	}
	return out, nil
}

func (f *fakeData) batchCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type progressLog struct {
	mu     sync.Mutex
	events []models.ProgressEvent
}

func (p *progressLog) Report(ev models.ProgressEvent) {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
}

// scoreByName scores a ticker with the number embedded after its dash,
// e.g. "X-9" scores 9. A ticker named "PANIC" panics.
func scoreByName() dsvc.TickerScorer {
	return dsvc.TickerScorerFunc(func(series, bench models.Series) (models.ScoreRecord, error) {
		if series.Symbol == "PANIC" {
			panic("index out of range")
		}
		if bench.Empty() {
			return models.ScoreRecord{}, errors.New("no benchmark")
		}
		score := 0
		if i := strings.LastIndex(series.Symbol, "-"); i >= 0 {
			for _, r := range series.Symbol[i+1:] {
				score = score*10 + int(r-'0')
			}
		}
		return models.ScoreRecord{Ticker: series.Symbol, Close: series.Last().Close, SmartScore: score}, nil
	})
}

func universeData() *fakeData {
	unordered := makeSeries("BAD", 45)
	unordered.Bars[10], unordered.Bars[11] = unordered.Bars[11], unordered.Bars[10]
	return &fakeData{series: map[string]models.Series{
		"^JKSE": makeSeries("^JKSE", 60),
		"A-3":   makeSeries("A-3", 45),
		"B-9":   makeSeries("B-9", 45),
		"SHORT": makeSeries("SHORT", 39),
		"BAD":   unordered,
		"PANIC": makeSeries("PANIC", 45),
		"G-9":   makeSeries("G-9", 40),
	}}
}

func TestRunScoresSortsAndIsolatesFailures(t *testing.T) {
	data := universeData()
	progress := &progressLog{}
	s := NewScreener(data, scoreByName(), nil, WithBatchSize(3))

	res, err := s.Run(context.Background(), RunParams{
		Universe: []string{"A-3", "B-9", "MISSING", "SHORT", "BAD", "PANIC", "G-9"},
		Period:   "6mo",
		Interval: "1d",
		Progress: progress,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var tickers []string
	for _, r := range res.Records {
		tickers = append(tickers, r.Ticker)
	}
	if want := []string{"B-9", "G-9", "A-3"}; !reflect.DeepEqual(tickers, want) {
		t.Fatalf("records = %v, want %v", tickers, want)
	}

	kinds := map[string]models.FailureKind{}
	for _, f := range res.Failures {
		kinds[f.Ticker] = f.Kind
	}
	want := map[string]models.FailureKind{
		"MISSING": models.FailureMissing,
		"SHORT":   models.FailureTooShort,
		"BAD":     models.FailureInvalid,
		"PANIC":   models.FailureCompute,
	}
	if !reflect.DeepEqual(kinds, want) {
		t.Fatalf("failures = %v", kinds)
	}
	if len(res.Records)+len(res.Failures) != res.Universe {
		t.Fatalf("records and failures must partition the universe")
	}

	if len(data.calls) != 3 {
		t.Fatalf("batches = %d, want 3", len(data.calls))
	}
	if len(progress.events) != 3 {
		t.Fatalf("progress events = %d", len(progress.events))
	}
	last := progress.events[2]
	if !last.Done || last.Fraction != 1 || last.Batches != 3 {
		t.Fatalf("last event = %+v", last)
	}
	if progress.events[0].Done || progress.events[0].Fraction <= 0.33 || progress.events[0].Fraction >= 0.34 {
		t.Fatalf("first event = %+v", progress.events[0])
	}
	if res.RunID == "" || res.Benchmark != "^JKSE" || res.ComputedAt.IsZero() {
		t.Fatalf("run metadata missing: %+v", res)
	}
}

func TestRunBatchFailureOnlyDropsThatBatch(t *testing.T) {
	data := universeData()
	data.failBatch = "SHORT"
	s := NewScreener(data, scoreByName(), nil, WithBatchSize(2))

	res, err := s.Run(context.Background(), RunParams{Universe: []string{"A-3", "B-9", "SHORT", "MISSING", "G-9"}, Period: "6mo", Interval: "1d"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Records) != 3 {
		t.Fatalf("records = %d", len(res.Records))
	}
	for _, f := range res.Failures {
		if f.Kind != models.FailureBatch || (f.Ticker != "SHORT" && f.Ticker != "MISSING") {
			t.Fatalf("unexpected failure %+v", f)
		}
	}
	if len(res.Failures) != 2 {
		t.Fatalf("failures = %+v", res.Failures)
	}
}

func TestRunBenchmarkUnavailable(t *testing.T) {
	data := universeData()
	data.benchErr = errors.New("404")
	s := NewScreener(data, scoreByName(), nil)

	if _, err := s.Run(context.Background(), RunParams{Universe: []string{"A-3"}}); !errors.Is(err, ErrBenchmarkUnavailable) {
		t.Fatalf("want ErrBenchmarkUnavailable, got %v", err)
	}
	if data.batchCalls() != 0 {
		t.Fatalf("no batch should be fetched without a benchmark")
	}

	empty := universeData()
	delete(empty.series, "^JKSE")
	if _, err := NewScreener(empty, scoreByName(), nil).Run(context.Background(), RunParams{Universe: []string{"A-3"}}); !errors.Is(err, ErrBenchmarkUnavailable) {
		t.Fatalf("empty benchmark: want ErrBenchmarkUnavailable, got %v", err)
	}
}

func TestRunEmptyUniverseReportsDone(t *testing.T) {
	progress := &progressLog{}
	res, err := NewScreener(universeData(), scoreByName(), nil).Run(context.Background(), RunParams{Progress: progress})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Records) != 0 || len(res.Failures) != 0 {
		t.Fatalf("unexpected rows: %+v", res)
	}
	if len(progress.events) != 1 || !progress.events[0].Done {
		t.Fatalf("progress = %+v", progress.events)
	}
}

func TestRunCancelledKeepsScoredBatches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	data := universeData()
	data.afterBatch = cancel
	progress := &progressLog{}

	res, err := NewScreener(data, scoreByName(), nil, WithBatchSize(1)).Run(ctx, RunParams{
		Universe: []string{"A-3", "B-9"},
		Progress: progress,
	})
	if err != nil {
		t.Fatalf("cancelled run must still return its partial result, got %v", err)
	}
	if len(res.Records) != 1 || res.Records[0].Ticker != "A-3" {
		t.Fatalf("records = %+v, want only A-3", res.Records)
	}
	if len(res.Failures) != 1 {
		t.Fatalf("failures = %+v, want one", res.Failures)
	}
	f := res.Failures[0]
	if f.Ticker != "B-9" || f.Kind != models.FailureBatch || !strings.Contains(f.Reason, context.Canceled.Error()) {
		t.Fatalf("failure = %+v", f)
	}
	if got := data.batchCalls(); got != 1 {
		t.Fatalf("batch calls = %d, want 1", got)
	}
	if len(progress.events) != 2 || !progress.events[1].Done || progress.events[1].Failed != 1 {
		t.Fatalf("progress = %+v", progress.events)
	}
}

func TestRunCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	data := universeData()

	res, err := NewScreener(data, scoreByName(), nil).Run(ctx, RunParams{Universe: []string{"A-3", "B-9"}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Records) != 0 || len(res.Failures) != 2 {
		t.Fatalf("records = %d failures = %d", len(res.Records), len(res.Failures))
	}
	for _, f := range res.Failures {
		if f.Kind != models.FailureBatch {
			t.Fatalf("failure %s kind = %s", f.Ticker, f.Kind)
		}
	}
	if data.batchCalls() != 0 {
		t.Fatalf("no batch should be downloaded after cancellation")
	}
}

func TestPartition(t *testing.T) {
	cases := []struct {
		n, size int
		want    []int
	}{
		{0, 50, nil},
		{50, 50, []int{50}},
		{51, 50, []int{50, 1}},
		{120, 50, []int{50, 50, 20}},
		{3, 0, []int{3}},
	}
	for _, tc := range cases {
		syms := make([]string, tc.n)
		var got []int
		for _, b := range Partition(syms, tc.size) {
			got = append(got, len(b))
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("Partition(%d, %d) = %v, want %v", tc.n, tc.size, got, tc.want)
		}
	}
}

func TestSortByScoreIsStable(t *testing.T) {
	recs := []models.ScoreRecord{{Ticker: "a", SmartScore: 5}, {Ticker: "b", SmartScore: 7}, {Ticker: "c", SmartScore: 5}, {Ticker: "d", SmartScore: 7}}
	SortByScore(recs)
	var got []string
	for _, r := range recs {
		got = append(got, r.Ticker)
	}
	if want := []string{"b", "d", "a", "c"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v", got)
	}
}
