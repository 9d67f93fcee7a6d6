package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	screenings    *prometheus.CounterVec
	probability   prometheus.Histogram
	errorsTotal   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	fetchBytes    *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	events        *prometheus.CounterVec
}

// New creates a recorder registered on reg. Pass prometheus.DefaultRegisterer
// to expose the metrics on the default /metrics handler.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		screenings: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "diabscreen_screenings_total",
				Help: "Total number of completed screenings by result label",
			},
			[]string{"result"},
		),
		probability: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "diabscreen_risk_probability",
				Help:    "Distribution of predicted diabetes risk probabilities",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "diabscreen_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "diabscreen_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		fetchBytes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "diabscreen_artifact_fetch_bytes_total",
				Help: "Bytes downloaded while provisioning artifacts",
			},
			[]string{"artifact"},
		),
		fetchDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "diabscreen_artifact_fetch_duration_seconds",
				Help:    "Duration of artifact downloads in seconds",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"artifact"},
		),
		events: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "diabscreen_events_total",
				Help: "Screening events handed to sinks by outcome",
			},
			[]string{"sink", "result"},
		),
	}
}

// RecordScreening records a completed screening and its probability.
func (r *Recorder) RecordScreening(label string, probability float64) {
	r.screenings.WithLabelValues(label).Inc()
	r.probability.Observe(probability)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) RecordArtifactFetch(artifact string, bytes int64, seconds float64) {
	r.fetchBytes.WithLabelValues(artifact).Add(float64(bytes))
	r.fetchDuration.WithLabelValues(artifact).Observe(seconds)
}

func (r *Recorder) RecordEvent(sink, result string) {
	r.events.WithLabelValues(sink, result).Inc()
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordScreening(string, float64)            {}
func (Nop) RecordError(string)                         {}
func (Nop) RecordLatency(string, float64)              {}
func (Nop) RecordArtifactFetch(string, int64, float64) {}
func (Nop) RecordEvent(string, string)                 {}
