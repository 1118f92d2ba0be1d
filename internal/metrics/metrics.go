// Package metrics holds the Prometheus collectors for pipeline runs. All
// names carry the procedure_flow_ prefix. A nil *Metrics records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// Metrics groups the pipeline collectors.
type Metrics struct {
	RunsTotal          *prometheus.CounterVec
	StageDuration      *prometheus.HistogramVec
	AnalysisRetries    prometheus.Counter
	FramesSampled      prometheus.Histogram
	TranscriptSegments prometheus.Histogram
	RunsInFlight       prometheus.Gauge
}

// New registers the collectors on reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "procedure_flow_runs_total",
				Help: "Total number of pipeline runs by outcome",
			},
			[]string{"outcome"},
		),
		StageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "procedure_flow_stage_duration_seconds",
				Help:    "Duration of each pipeline stage in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"stage"},
		),
		AnalysisRetries: f.NewCounter(
			prometheus.CounterOpts{
				Name: "procedure_flow_analysis_retries_total",
				Help: "Total number of analysis retries after a timeout",
			},
		),
		FramesSampled: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "procedure_flow_frames_sampled",
				Help:    "Frames sampled per run",
				Buckets: []float64{1, 5, 10, 20, 50, 100},
			},
		),
		TranscriptSegments: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "procedure_flow_transcript_segments",
				Help:    "Transcript segments per run",
				Buckets: []float64{0, 1, 10, 50, 100, 500},
			},
		),
		RunsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "procedure_flow_runs_in_flight",
				Help: "Number of pipeline runs currently executing",
			},
		),
	}
}

func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.RunsInFlight.Inc()
}

func (m *Metrics) RunFinished(outcome string) {
	if m == nil {
		return
	}
	m.RunsInFlight.Dec()
	m.RunsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) AnalysisRetried() {
	if m == nil {
		return
	}
	m.AnalysisRetries.Inc()
}

func (m *Metrics) ObserveIngest(frames, segments int) {
	if m == nil {
		return
	}
	m.FramesSampled.Observe(float64(frames))
	m.TranscriptSegments.Observe(float64(segments))
}
