package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	APILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "smartmoney",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of screener API endpoints",
			Buckets:   []float64{.005, .01, .05, .1, .5, 1, 5, 30, 120, 600},
		},
		[]string{"endpoint"},
	)

	APIErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartmoney",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by screener API endpoint",
		},
		[]string{"endpoint"},
	)

	RunsRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "smartmoney",
			Subsystem: "api",
			Name:      "runs_rate_limited_total",
			Help:      "Screening run requests rejected by the rate limiter",
		},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(APILatency, APIErrors, RunsRejected)
	})
}
