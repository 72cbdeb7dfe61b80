package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"SmartMoney/internal/domain/models"
	drepo "SmartMoney/internal/domain/repository"
)

const chartJSON = `{"chart":{"result":[{"meta":{"symbol":"BBCA.JK","exchangeTimezoneName":"Asia/Jakarta","gmtoffset":25200},
"timestamp":[1704160800,1704247200,1704333600,1704340800],
"indicators":{"quote":[{"open":[10,11,null,12.5],"high":[11,12,13,13.5],"low":[9,10,11,12],"close":[10.5,11.5,12,13],"volume":[100,200,300,400]}]}}],"error":null}}`

func newChartServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		sym := strings.TrimPrefix(r.URL.Path, "/v8/finance/chart/")
		if r.URL.Query().Get("range") != "6mo" || r.URL.Query().Get("interval") != "1d" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		switch sym {
		case "BBCA.JK":
			_, _ = w.Write([]byte(chartJSON))
		case "GONE.JK":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
}

func TestYahooHistoryParsesChart(t *testing.T) {
	srv := newChartServer(t, nil)
	defer srv.Close()

	y := NewYahoo(nil, WithBaseURL(srv.URL), WithRateLimit(1000, 10))
	s, err := y.History(context.Background(), "BBCA.JK", "6mo", "1d")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	// null open drops the third bar; the fourth shares a session with it and stays
	if s.Len() != 3 {
		t.Fatalf("bars = %d", s.Len())
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("series invalid: %v", err)
	}
	last := s.Last()
	if last.Close != 13 || last.Volume != 400 {
		t.Fatalf("last bar = %+v", last)
	}
	if _, off := last.Date.Zone(); last.Date.Hour() != 0 || off != 7*3600 {
		t.Fatalf("date not normalised to exchange day: %v", last.Date)
	}
}

func TestYahooHistoryNotFound(t *testing.T) {
	srv := newChartServer(t, nil)
	defer srv.Close()

	y := NewYahoo(nil, WithBaseURL(srv.URL), WithRateLimit(1000, 10))
	if _, err := y.History(context.Background(), "GONE.JK", "6mo", "1d"); !errors.Is(err, drepo.ErrNoData) {
		t.Fatalf("want ErrNoData, got %v", err)
	}
	if _, err := y.History(context.Background(), "BBCA.JK", "6 months", "1d"); err == nil {
		t.Fatalf("bad period accepted")
	}
}

func TestYahooBatchIsolatesFailures(t *testing.T) {
	var hits int32
	srv := newChartServer(t, &hits)
	defer srv.Close()

	y := NewYahoo(nil, WithBaseURL(srv.URL), WithRateLimit(1000, 10), WithWorkers(2))
	got, err := y.BatchHistory(context.Background(), []string{"BBCA.JK", "GONE.JK", "BOOM.JK"}, "6mo", "1d")
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d series", len(got))
	}
	if _, ok := got["BBCA.JK"]; !ok {
		t.Fatalf("BBCA.JK missing")
	}
	if atomic.LoadInt32(&hits) != 3 {
		t.Fatalf("hits = %d", hits)
	}
}

func TestYahooBatchFailsWhenUpstreamDown(t *testing.T) {
	srv := newChartServer(t, nil)
	defer srv.Close()

	y := NewYahoo(nil, WithBaseURL(srv.URL), WithRateLimit(1000, 10))
	if _, err := y.BatchHistory(context.Background(), []string{"BOOM.JK", "BANG.JK"}, "6mo", "1d"); err == nil {
		t.Fatalf("expected batch error")
	}
}

func TestFetchBatchHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fetch := func(ctx context.Context, sym, _, _ string) (models.Series, error) {
		return models.Series{Symbol: sym, Bars: []models.Bar{{Date: time.Now(), Close: 1}}}, nil
	}
	if _, err := fetchBatch(ctx, nil, 1, []string{"A", "B"}, "6mo", "1d", fetch); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestFetchBatchMissingDataIsNotFatal(t *testing.T) {
	fetch := func(_ context.Context, sym, _, _ string) (models.Series, error) {
		return models.Series{}, fmt.Errorf("%s: %w", sym, drepo.ErrNoData)
	}
	got, err := fetchBatch(context.Background(), nil, 2, []string{"A", "B"}, "6mo", "1d", fetch)
	if err != nil || len(got) != 0 {
		t.Fatalf("got %v, %v", got, err)
	}
}
