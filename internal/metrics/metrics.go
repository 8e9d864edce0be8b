// Package metrics exposes Prometheus collectors for the transcription service.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	jobsTotal            *prometheus.CounterVec
	jobsJoinedTotal      prometheus.Counter
	activeWorkers        prometheus.Gauge
	queueDepth           prometheus.Gauge
	stageDurationSeconds *prometheus.HistogramVec
	sseSubscribers       prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		jobsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scribe_jobs_total",
				Help: "Total number of jobs reaching a terminal state, labeled by status.",
			},
			[]string{"status"},
		)

		jobsJoinedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scribe_jobs_joined_total",
				Help: "Total number of submissions that joined an existing in-flight job.",
			},
		)

		activeWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "scribe_active_workers",
				Help: "Number of workers currently executing a pipeline run.",
			},
		)

		queueDepth = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "scribe_queue_depth",
				Help: "Number of jobs buffered in the task queue.",
			},
		)

		stageDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scribe_stage_duration_seconds",
				Help:    "Histogram of pipeline stage durations, labeled by stage.",
				Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"stage"},
		)

		sseSubscribers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "scribe_sse_subscribers",
				Help: "Number of currently connected event stream subscribers.",
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveJob increments the terminal-job counter for the given status.
func ObserveJob(status string) {
	jobsTotal.WithLabelValues(status).Inc()
}

// ObserveJoin increments the deduplicated-submission counter.
func ObserveJoin() {
	jobsJoinedTotal.Inc()
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	activeWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	activeWorkers.Dec()
}

// SetQueueDepth records the current number of queued jobs.
func SetQueueDepth(n int) {
	queueDepth.Set(float64(n))
}

// ObserveStage records the duration of one pipeline stage.
func ObserveStage(stage string, duration time.Duration) {
	stageDurationSeconds.WithLabelValues(stage).Observe(duration.Seconds())
}

// IncSubscribers increments the event stream subscriber gauge.
func IncSubscribers() {
	sseSubscribers.Inc()
}

// DecSubscribers decrements the event stream subscriber gauge.
func DecSubscribers() {
	sseSubscribers.Dec()
}
