package marketdata

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"SmartMoney/internal/domain/models"
	drepo "SmartMoney/internal/domain/repository"
	pkghttp "SmartMoney/pkg/http"
	applogger "SmartMoney/pkg/logger"
	"SmartMoney/pkg/util"

	"golang.org/x/time/rate"
)

const (
	DefaultYahooURL = "https://query1.finance.yahoo.com"
	userAgent       = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol               string `json:"symbol"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
				GMTOffset            int    `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Yahoo reads daily bars from the Yahoo Finance v8 chart endpoint.
type Yahoo struct {
	client  *pkghttp.Client
	baseURL string
	timeout time.Duration
	limiter *rate.Limiter
	workers int
	l       *applogger.Logger
}

type YahooOption func(*Yahoo)

// WithBaseURL points the provider at another host, e.g. a test server.
func WithBaseURL(u string) YahooOption {
	return func(y *Yahoo) { y.baseURL = strings.TrimRight(u, "/") }
}

// WithRateLimit paces outgoing requests.
func WithRateLimit(perSec float64, burst int) YahooOption {
	return func(y *Yahoo) {
		if perSec > 0 {
			y.limiter = rate.NewLimiter(rate.Limit(perSec), max(burst, 1))
		}
	}
}

// WithWorkers bounds concurrent symbol requests within a batch.
func WithWorkers(n int) YahooOption {
	return func(y *Yahoo) {
		if n > 0 {
			y.workers = n
		}
	}
}

// WithRequestTimeout bounds each chart request of the default client.
func WithRequestTimeout(d time.Duration) YahooOption {
	return func(y *Yahoo) {
		if d > 0 {
			y.timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client. WithRequestTimeout does not
// apply to it.
func WithHTTPClient(c *pkghttp.Client) YahooOption {
	return func(y *Yahoo) { y.client = c }
}

func NewYahoo(l *applogger.Logger, opts ...YahooOption) *Yahoo {
	if l == nil {
		l = applogger.Nop()
	}
	y := &Yahoo{
		baseURL: DefaultYahooURL,
		timeout: 15 * time.Second,
		limiter: rate.NewLimiter(rate.Limit(4), 4),
		workers: 4,
		l:       l.Component("yahoo"),
	}
	for _, opt := range opts {
		opt(y)
	}
	if y.client == nil {
		y.client = pkghttp.NewClient(
			pkghttp.WithTimeout(y.timeout),
			pkghttp.WithHeader("User-Agent", userAgent),
			pkghttp.WithHeader("Accept", "application/json"),
		)
	}
	return y
}

func (y *Yahoo) History(ctx context.Context, symbol, period, interval string) (models.Series, error) {
	if !util.ValidPeriod(period) {
		return models.Series{}, fmt.Errorf("%w: %q", util.ErrUnsupportedPeriod, period)
	}
	if !util.ValidInterval(interval) {
		return models.Series{}, fmt.Errorf("%w: %q", util.ErrUnsupportedInterval, interval)
	}
	if err := y.limiter.Wait(ctx); err != nil {
		return models.Series{}, err
	}

	var resp yahooChartResponse
	err := y.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    y.baseURL + "/v8/finance/chart/" + url.PathEscape(symbol),
		QueryParams: map[string][]string{
			"range":          {period},
			"interval":       {interval},
			"includePrePost": {"false"},
		},
	}, &resp)
	if err != nil {
		var se *pkghttp.StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return models.Series{}, fmt.Errorf("%s: %w", symbol, drepo.ErrNoData)
		}
		return models.Series{}, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	return parseChart(symbol, &resp)
}

func (y *Yahoo) BatchHistory(ctx context.Context, symbols []string, period, interval string) (map[string]models.Series, error) {
	return fetchBatch(ctx, y.l, y.workers, symbols, period, interval, y.History)
}

func parseChart(symbol string, resp *yahooChartResponse) (models.Series, error) {
	if e := resp.Chart.Error; e != nil {
		return models.Series{}, fmt.Errorf("%s: %s: %w", symbol, e.Description, drepo.ErrNoData)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return models.Series{}, fmt.Errorf("%s: %w", symbol, drepo.ErrNoData)
	}
	res := resp.Chart.Result[0]
	q := res.Indicators.Quote[0]
	loc := exchangeLocation(res.Meta.ExchangeTimezoneName, res.Meta.GMTOffset)

	series := models.Series{Symbol: symbol, Bars: make([]models.Bar, 0, len(res.Timestamp))}
	for i, ts := range res.Timestamp {
		open, ok1 := at(q.Open, i)
		high, ok2 := at(q.High, i)
		low, ok3 := at(q.Low, i)
		cls, ok4 := at(q.Close, i)
		if !(ok1 && ok2 && ok3 && ok4) {
			continue
		}
		vol, _ := at(q.Volume, i)
		day := util.TruncateDay(time.Unix(ts, 0).In(loc))
		if n := len(series.Bars); n > 0 && series.Bars[n-1].Date.Equal(day) {
			// live quote repeats the last session
			series.Bars[n-1] = models.Bar{Date: day, Open: open, High: high, Low: low, Close: cls, Volume: vol}
			continue
		}
		series.Bars = append(series.Bars, models.Bar{Date: day, Open: open, High: high, Low: low, Close: cls, Volume: vol})
	}
	if series.Empty() {
		return series, fmt.Errorf("%s: %w", symbol, drepo.ErrNoData)
	}
	return series, nil
}

func at(vs []*float64, i int) (float64, bool) {
	if i >= len(vs) || vs[i] == nil || math.IsNaN(*vs[i]) {
		return 0, false
	}
	return *vs[i], true
}

func exchangeLocation(name string, offset int) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.FixedZone("exchange", offset)
}
