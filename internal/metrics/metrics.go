// Package metrics holds the Prometheus instruments of the tagedit service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Codec operation metrics
	codecOperationsTotal   *prometheus.CounterVec
	codecOperationDuration *prometheus.HistogramVec
	codecWarningsTotal     *prometheus.CounterVec

	// Storage metrics
	storedBytesTotal *prometheus.CounterVec
	storedFiles      prometheus.Gauge

	transcodesTotal *prometheus.CounterVec
}

// New creates all metrics and registers them, plus the Go and process
// collectors, on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tagedit_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tagedit_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tagedit_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		codecOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tagedit_codec_operations_total",
				Help: "Total number of tag read and write operations",
			},
			[]string{"operation", "status"},
		),

		codecOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tagedit_codec_operation_duration_seconds",
				Help:    "Tag codec operation duration in seconds",
				Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
			},
			[]string{"operation"},
		),

		codecWarningsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tagedit_codec_warnings_total",
				Help: "Total number of non-fatal warnings reported by the codec",
			},
			[]string{"stage"},
		),

		storedBytesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tagedit_stored_bytes_total",
				Help: "Total number of bytes written to the blob store",
			},
			[]string{"kind"},
		),

		storedFiles: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tagedit_stored_files",
				Help: "Number of audio files in the blob store at the last listing",
			},
		),

		transcodesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tagedit_transcodes_total",
				Help: "Total number of transcode jobs",
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.httpRequestsInFlight,
		m.codecOperationsTotal,
		m.codecOperationDuration,
		m.codecWarningsTotal,
		m.storedBytesTotal,
		m.storedFiles,
		m.transcodesTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding the metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackInFlight increments the in-flight gauge and returns its decrement.
func (m *Metrics) TrackInFlight() func() {
	m.httpRequestsInFlight.Inc()
	return m.httpRequestsInFlight.Dec
}

// RecordCodecOperation records a tag read or write.
func (m *Metrics) RecordCodecOperation(operation string, success bool, duration time.Duration) {
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.codecOperationsTotal.WithLabelValues(operation, status).Inc()
	m.codecOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordWarnings counts codec warnings by stage.
func (m *Metrics) RecordWarnings(stage string, n int) {
	if n > 0 {
		m.codecWarningsTotal.WithLabelValues(stage).Add(float64(n))
	}
}

// RecordStored adds n bytes of the given kind (mp3, cover, data).
func (m *Metrics) RecordStored(kind string, n int64) {
	m.storedBytesTotal.WithLabelValues(kind).Add(float64(n))
}

// SetStoredFiles updates the stored file gauge.
func (m *Metrics) SetStoredFiles(n int) {
	m.storedFiles.Set(float64(n))
}

// RecordTranscode records a finished transcode job.
func (m *Metrics) RecordTranscode(success bool) {
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.transcodesTotal.WithLabelValues(status).Inc()
}
