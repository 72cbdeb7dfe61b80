package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	runsTotal     *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	batchesTotal  *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
	scoredTotal   *prometheus.CounterVec
	failuresTotal *prometheus.CounterVec
	progress      prometheus.Gauge
	errorsTotal   *prometheus.CounterVec
}

// New registers the recorder with the default registry.
func New() *Recorder {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the recorder's collectors with reg.
func NewWith(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartmoney_runs_total",
				Help: "Screening runs by outcome",
			},
			[]string{"status"},
		),
		runDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "smartmoney_run_duration_seconds",
				Help:    "Wall time of screening runs",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
			},
			[]string{"status"},
		),
		batchesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartmoney_batches_total",
				Help: "Market data batches by outcome",
			},
			[]string{"status"},
		),
		batchDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "smartmoney_batch_duration_seconds",
				Help:    "Fetch and score time per batch",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		scoredTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartmoney_tickers_scored_total",
				Help: "Tickers scored by label",
			},
			[]string{"label"},
		),
		failuresTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartmoney_ticker_failures_total",
				Help: "Tickers dropped from a run by failure kind",
			},
			[]string{"kind"},
		),
		progress: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "smartmoney_run_progress_ratio",
				Help: "Fraction of batches finished in the current run",
			},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartmoney_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

func (r *Recorder) RecordRun(status string, d time.Duration) {
	r.runsTotal.WithLabelValues(status).Inc()
	r.runDuration.WithLabelValues(status).Observe(d.Seconds())
}

func (r *Recorder) RecordBatch(status string, d time.Duration) {
	r.batchesTotal.WithLabelValues(status).Inc()
	r.batchDuration.WithLabelValues(status).Observe(d.Seconds())
}

func (r *Recorder) RecordScored(label string) {
	r.scoredTotal.WithLabelValues(label).Inc()
}

func (r *Recorder) RecordFailure(kind string) {
	r.failuresTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordProgress(fraction float64) {
	r.progress.Set(fraction)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
