// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Polling metrics
	PollCyclesTotal    *prometheus.CounterVec
	PollCycleDuration  *prometheus.HistogramVec
	SupersededResults  prometheus.Counter
	LastSuccessfulPoll prometheus.Gauge

	// Query metrics
	QueryLatency   *prometheus.HistogramVec
	QueryErrors    *prometheus.CounterVec
	RecordsFetched *prometheus.CounterVec

	// Normalization metrics
	MalformedRecords *prometheus.CounterVec

	// Live log metrics
	LogEntriesAppended prometheus.Counter
	LogMessagesDropped *prometheus.CounterVec
	LogDecodeErrors    prometheus.Counter

	// Push hub metrics
	PushClients       prometheus.Gauge
	PushMessagesTotal *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "cs2_telemetry"
	}

	return &Metrics{
		// Polling metrics
		PollCyclesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "poll_cycles_total",
			Help:      "Total number of polling cycles by source and outcome",
		}, []string{"source", "status"}),
		PollCycleDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "poll_cycle_duration_seconds",
			Help:      "Duration of one fetch-normalize-aggregate cycle in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		SupersededResults: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "superseded_results_total",
			Help:      "Total number of cycle results discarded because the configuration changed",
		}),
		LastSuccessfulPoll: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_poll_timestamp",
			Help:      "Unix timestamp of last successful polling cycle",
		}),

		// Query metrics
		QueryLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "request_latency_seconds",
			Help:      "Query adapter request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source", "kind"}),
		QueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "errors_total",
			Help:      "Total number of failed query adapter requests by error class",
		}, []string{"source", "kind", "class"}),
		RecordsFetched: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "records_fetched_total",
			Help:      "Total number of raw records fetched by source and kind",
		}, []string{"source", "kind"}),

		// Normalization metrics
		MalformedRecords: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalization",
			Name:      "malformed_records_total",
			Help:      "Total number of records skipped because they could not be normalized",
		}, []string{"source", "kind"}),

		// Live log metrics
		LogEntriesAppended: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "livelog",
			Name:      "entries_appended_total",
			Help:      "Total number of live log entries appended",
		}),
		LogMessagesDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "livelog",
			Name:      "messages_dropped_total",
			Help:      "Total number of push messages dropped by reason",
		}, []string{"reason"}),
		LogDecodeErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "livelog",
			Name:      "decode_errors_total",
			Help:      "Total number of undecodable push messages",
		}),

		// Push hub metrics
		PushClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "push",
			Name:      "clients",
			Help:      "Number of connected push channel clients",
		}),
		PushMessagesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "push",
			Name:      "messages_total",
			Help:      "Total number of push messages by outcome",
		}, []string{"status"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// Init replaces DefaultMetrics with a set registered under namespace.
// Call it once at startup, before any Record* helper runs.
func Init(namespace string) {
	if namespace == "" || namespace == "cs2_telemetry" {
		return
	}
	DefaultMetrics = NewMetrics(namespace)
}

// RecordPollCycle records the outcome and duration of a polling cycle.
func RecordPollCycle(source, status string, d time.Duration) {
	DefaultMetrics.PollCyclesTotal.WithLabelValues(source, status).Inc()
	DefaultMetrics.PollCycleDuration.WithLabelValues(source).Observe(d.Seconds())
	if status == "success" {
		DefaultMetrics.LastSuccessfulPoll.SetToCurrentTime()
	}
}

// RecordSuperseded increments the discarded results counter.
func RecordSuperseded() {
	DefaultMetrics.SupersededResults.Inc()
}

// RecordQuery records a query adapter request.
func RecordQuery(source, kind string, d time.Duration, records int, errClass string) {
	DefaultMetrics.QueryLatency.WithLabelValues(source, kind).Observe(d.Seconds())
	if errClass != "" {
		DefaultMetrics.QueryErrors.WithLabelValues(source, kind, errClass).Inc()
		return
	}
	DefaultMetrics.RecordsFetched.WithLabelValues(source, kind).Add(float64(records))
}

// RecordMalformed increments the malformed records counter.
func RecordMalformed(source, kind string) {
	DefaultMetrics.MalformedRecords.WithLabelValues(source, kind).Inc()
}

// RecordLogAppended increments the live log entries counter.
func RecordLogAppended() {
	DefaultMetrics.LogEntriesAppended.Inc()
}

// RecordLogDropped records a push message that was received but not appended.
func RecordLogDropped(reason string) {
	DefaultMetrics.LogMessagesDropped.WithLabelValues(reason).Inc()
}

// RecordLogDecodeError increments the push decode error counter.
func RecordLogDecodeError() {
	DefaultMetrics.LogDecodeErrors.Inc()
}

// UpdatePushClients sets the connected push clients gauge.
func UpdatePushClients(n int) {
	DefaultMetrics.PushClients.Set(float64(n))
}

// RecordPushMessage records a broadcast attempt.
func RecordPushMessage(status string) {
	DefaultMetrics.PushMessagesTotal.WithLabelValues(status).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
