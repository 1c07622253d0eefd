// internal/monitoring/metrics.go

// Package monitoring exposes pipeline metrics and health over HTTP.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/socialpulse/viralpipe/pkg/types"
)

// Metrics implements the pipeline's stage observer on Prometheus collectors.
type Metrics struct {
	stageDuration    *prometheus.HistogramVec
	recordsTotal     *prometheus.CounterVec
	failuresTotal    *prometheus.CounterVec
	resolutionsTotal *prometheus.CounterVec
	sinkWritesTotal  *prometheus.CounterVec
	runsTotal        prometheus.Counter
	lastRunSuccess   prometheus.Gauge
}

// NewMetrics registers the pipeline collectors on the default registry.
func NewMetrics() *Metrics {
	return newMetricsWith(prometheus.DefaultRegisterer)
}

func newMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "viralpipe",
			Name:      "stage_duration_seconds",
			Help:      "Wall-clock duration of each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"stage"}),
		recordsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "viralpipe",
			Name:      "records_processed_total",
			Help:      "Records successfully processed per stage.",
		}, []string{"stage"}),
		failuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "viralpipe",
			Name:      "record_failures_total",
			Help:      "Per-record failures per stage.",
		}, []string{"stage"}),
		resolutionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "viralpipe",
			Name:      "resolutions_total",
			Help:      "Video resolutions by method.",
		}, []string{"method"}),
		sinkWritesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "viralpipe",
			Name:      "sink_writes_total",
			Help:      "Records written per sink.",
		}, []string{"sink"}),
		runsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "viralpipe",
			Name:      "runs_total",
			Help:      "Completed pipeline runs.",
		}),
		lastRunSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "viralpipe",
			Name:      "last_run_success",
			Help:      "Whether the most recent run completed without a fatal error.",
		}),
	}
}

// ObserveStageDuration records one stage's wall-clock duration.
func (m *Metrics) ObserveStageDuration(stage types.Stage, d time.Duration) {
	m.stageDuration.WithLabelValues(string(stage)).Observe(d.Seconds())
}

// ObserveRecords counts records processed by a stage.
func (m *Metrics) ObserveRecords(stage types.Stage, n int) {
	m.recordsTotal.WithLabelValues(string(stage)).Add(float64(n))
}

// ObserveFailure counts one per-record failure in a stage.
func (m *Metrics) ObserveFailure(stage types.Stage) {
	m.failuresTotal.WithLabelValues(string(stage)).Inc()
}

// ObserveResolution counts one resolved video by its resolution method.
func (m *Metrics) ObserveResolution(method string) {
	m.resolutionsTotal.WithLabelValues(method).Inc()
}

// ObserveSinkWrite counts records written to one sink.
func (m *Metrics) ObserveSinkWrite(sink string, n int) {
	m.sinkWritesTotal.WithLabelValues(sink).Add(float64(n))
}

// ObserveRun records a completed run and its outcome.
func (m *Metrics) ObserveRun(success bool) {
	m.runsTotal.Inc()
	if success {
		m.lastRunSuccess.Set(1)
	} else {
		m.lastRunSuccess.Set(0)
	}
}
