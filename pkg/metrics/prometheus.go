package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	runsTotal     *prometheus.CounterVec
	winnersStored *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	providerCalls *prometheus.CounterVec
	lastMove      *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

// New creates a Prometheus recorder registered on the default registry.
func New() *Recorder {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the collectors on reg. Tests pass a fresh registry.
func NewWith(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "topmover_runs_total",
				Help: "Ingestion runs by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		winnersStored: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "topmover_winners_stored_total",
				Help: "Winner records written to the store",
			},
			[]string{"ticker"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "topmover_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		providerCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "topmover_provider_calls_total",
				Help: "Calls to the market data provider",
			},
			[]string{"endpoint", "result"},
		),
		lastMove: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "topmover_last_winner_percent_change",
				Help: "Percent change of the most recently stored winner",
			},
			[]string{"ticker"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "topmover_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordRun(mode, outcome string) {
	r.runsTotal.WithLabelValues(mode, outcome).Inc()
}

func (r *Recorder) RecordWinnerStored(ticker string) {
	r.winnersStored.WithLabelValues(ticker).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastMove sets the gauge to the latest stored winner's move.
func (r *Recorder) RecordLastMove(ticker string, pct float64) {
	r.lastMove.Reset()
	r.lastMove.WithLabelValues(ticker).Set(pct)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) RecordProviderCall(endpoint, result string) {
	r.providerCalls.WithLabelValues(endpoint, result).Inc()
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordRun(string, string)          {}
func (Nop) RecordWinnerStored(string)         {}
func (Nop) RecordError(string)                {}
func (Nop) RecordLastMove(string, float64)    {}
func (Nop) RecordLatency(string, float64)     {}
func (Nop) RecordProviderCall(string, string) {}
