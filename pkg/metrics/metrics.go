package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder exposes Prometheus metrics for the ingest pipeline
// ⭐ SSOT: 指标埋点只在这里定义
type Recorder struct {
	ingestRuns      *prometheus.CounterVec
	sourceErrors    *prometheus.CounterVec
	observationsUp  prometheus.Counter
	pipelineLatency *prometheus.HistogramVec
	regimeGauge     prometheus.Gauge
	riskScoreGauge  prometheus.Gauge
}

// New creates a new Prometheus metrics recorder
func New() *Recorder {
	return &Recorder{
		ingestRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marco_ingest_runs_total",
				Help: "Total ingest pipeline runs by outcome",
			},
			[]string{"outcome"},
		),
		sourceErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marco_source_errors_total",
				Help: "Per-series fetch failures from upstream sources",
			},
			[]string{"series"},
		),
		observationsUp: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "marco_observations_upserted_total",
				Help: "Observation rows inserted or updated",
			},
		),
		pipelineLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marco_pipeline_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		regimeGauge: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "marco_regime",
				Help: "Current regime as a number (A=0, B=1, C=2)",
			},
		),
		riskScoreGauge: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "marco_risk_score",
				Help: "Current aggregate risk score",
			},
		),
	}
}

// RecordIngestRun records one ingest run outcome ("ok" / "error")
func (r *Recorder) RecordIngestRun(outcome string) {
	r.ingestRuns.WithLabelValues(outcome).Inc()
}

// RecordSourceError records a per-series upstream fetch failure
func (r *Recorder) RecordSourceError(series string) {
	r.sourceErrors.WithLabelValues(series).Inc()
}

// RecordObservations adds to the upserted observation counter
func (r *Recorder) RecordObservations(n int) {
	r.observationsUp.Add(float64(n))
}

// RecordStageDuration records a pipeline stage duration in seconds
func (r *Recorder) RecordStageDuration(stage string, seconds float64) {
	r.pipelineLatency.WithLabelValues(stage).Observe(seconds)
}

// RecordRegime publishes the latest regime and risk score
func (r *Recorder) RecordRegime(regime string, riskScore float64) {
	var v float64
	switch regime {
	case "A":
		v = 0
	case "B":
		v = 1
	case "C":
		v = 2
	default:
		return
	}
	r.regimeGauge.Set(v)
	r.riskScoreGauge.Set(riskScore)
}

// Handler returns the HTTP handler serving /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
