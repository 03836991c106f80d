package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalsTotal   *prometheus.CounterVec
	proposalsTotal *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	analysisLat    *prometheus.HistogramVec
	biasScore      *prometheus.GaugeVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "osprey_signals_total",
				Help: "Total trade signals produced by the alignment engine",
			},
			[]string{"symbol", "action"},
		),
		proposalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "osprey_proposals_total",
				Help: "Proposal lifecycle transitions by resulting status",
			},
			[]string{"status"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "osprey_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		analysisLat: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "osprey_analysis_duration_seconds",
				Help:    "Per-symbol evaluation pipeline latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"symbol"},
		),
		biasScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "osprey_bias_score",
				Help: "Last computed sentiment score per symbol",
			},
			[]string{"symbol"},
		),
	}
}

// RecordSignal records a produced trade signal.
func (r *Recorder) RecordSignal(symbol, action string) {
	r.signalsTotal.WithLabelValues(symbol, action).Inc()
}

// RecordProposal records a proposal status transition.
func (r *Recorder) RecordProposal(status string) {
	r.proposalsTotal.WithLabelValues(status).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordAnalysisLatency records evaluation latency in seconds.
func (r *Recorder) RecordAnalysisLatency(symbol string, seconds float64) {
	r.analysisLat.WithLabelValues(symbol).Observe(seconds)
}

// RecordBiasScore records the latest sentiment score for a symbol.
func (r *Recorder) RecordBiasScore(symbol string, score float64) {
	r.biasScore.WithLabelValues(symbol).Set(score)
}
