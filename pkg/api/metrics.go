package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ssargent/roiread/pkg/roi"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds all Prometheus metrics for the API
type Metrics struct {
	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec

	// Decode metrics
	roisDecodedTotal   *prometheus.CounterVec
	decodeFailures     *prometheus.CounterVec
	archiveEntries     prometheus.Histogram
	catalogOperations  *prometheus.CounterVec
	catalogCollections prometheus.Gauge

	authRequestsTotal *prometheus.CounterVec
	healthChecksTotal *prometheus.CounterVec
}

// NewMetrics creates the API metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roiread_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "roiread_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "roiread_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),

		roisDecodedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roiread_rois_decoded_total",
				Help: "Total number of ROI records decoded, by kind",
			},
			[]string{"kind"},
		),

		decodeFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roiread_decode_failures_total",
				Help: "Total number of archive entries that failed to decode",
			},
			[]string{"reason"},
		),

		archiveEntries: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "roiread_archive_entries",
				Help:    "Number of entries per decoded archive",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),

		catalogOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roiread_catalog_operations_total",
				Help: "Total number of catalog operations",
			},
			[]string{"operation", "status"},
		),

		catalogCollections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "roiread_catalog_collections",
				Help: "Number of collections in the catalog at the last listing",
			},
		),

		authRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roiread_auth_requests_total",
				Help: "Total number of authentication requests",
			},
			[]string{"status"},
		),

		healthChecksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roiread_health_checks_total",
				Help: "Total number of health checks",
			},
			[]string{"status"},
		),
	}
}

// ObserveDecode counts one decoded archive entry. It has the roi.Observer
// signature so it can be handed straight to roi.WithObserver.
func (m *Metrics) ObserveDecode(_ string, r *roi.ROI, err error) {
	if err != nil {
		m.decodeFailures.WithLabelValues(failureReason(err)).Inc()
		return
	}
	m.roisDecodedTotal.WithLabelValues(r.Kind.String()).Inc()
}

// RecordArchive records the entry count of one decoded archive.
func (m *Metrics) RecordArchive(coll *roi.Collection) {
	m.archiveEntries.Observe(float64(coll.Len() + len(coll.Failures())))
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	statusCodeStr := strconv.Itoa(statusCode)

	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCodeStr).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordCatalogOperation records a catalog operation
func (m *Metrics) RecordCatalogOperation(operation string, success bool) {
	m.catalogOperations.WithLabelValues(operation, status(success)).Inc()
}

// UpdateCatalogSize sets the catalog size gauge
func (m *Metrics) UpdateCatalogSize(n int) {
	m.catalogCollections.Set(float64(n))
}

// RecordAuthRequest records an authentication request
func (m *Metrics) RecordAuthRequest(success bool) {
	m.authRequestsTotal.WithLabelValues(status(success)).Inc()
}

// RecordHealthCheck records a health check
func (m *Metrics) RecordHealthCheck(success bool) {
	m.healthChecksTotal.WithLabelValues(status(success)).Inc()
}

// InstrumentHandler instruments an HTTP handler with metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		gauge := m.httpRequestsInFlight.WithLabelValues(method, endpoint)
		gauge.Inc()
		defer gauge.Dec()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(rw, r)

		m.RecordHTTPRequest(method, endpoint, rw.statusCode, time.Since(start))
	}
}

func status(success bool) string {
	if success {
		return statusSuccess
	}
	return statusError
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, roi.ErrTruncatedData):
		return "truncated"
	case errors.Is(err, roi.ErrInvalidSignature):
		return "signature"
	case errors.Is(err, roi.ErrUnsupportedShape):
		return "unsupported"
	case errors.Is(err, roi.ErrDuplicateEntry):
		return "duplicate"
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
