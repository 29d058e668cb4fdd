package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics records outbound marketplace API calls.
type RequestMetrics struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
	stale    *prometheus.CounterVec
}

// NewRequestMetrics registers the request metrics on the provided registerer.
func NewRequestMetrics(reg prometheus.Registerer) *RequestMetrics {
	if reg == nil {
		return &RequestMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "api_request_duration_seconds",
		Help:    "Duration of marketplace API requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "api_requests_total",
		Help: "Marketplace API requests by outcome.",
	}, []string{"method", "route", "status"})
	stale := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fetch_stale_responses_total",
		Help: "Fetch responses discarded because a newer request was issued.",
	}, []string{"slot"})
	reg.MustRegister(duration, requests, stale)
	return &RequestMetrics{
		duration: duration,
		requests: requests,
		stale:    stale,
	}
}

// NewServerMetrics registers the sandbox's inbound request metrics.
func NewServerMetrics(reg prometheus.Registerer) *RequestMetrics {
	if reg == nil {
		return &RequestMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sandbox_http_request_duration_seconds",
		Help:    "Duration of requests served by the sandbox API in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sandbox_http_requests_total",
		Help: "Requests served by the sandbox API by outcome.",
	}, []string{"method", "route", "status"})
	reg.MustRegister(duration, requests)
	return &RequestMetrics{duration: duration, requests: requests}
}

// Observe records one completed request. status 0 means a transport failure.
func (m *RequestMetrics) Observe(method, path string, status int, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	route := NormalizeRoute(path)
	method = strings.ToUpper(method)
	m.duration.WithLabelValues(method, route).Observe(duration.Seconds())
	m.requests.WithLabelValues(method, route, statusClass(status)).Inc()
}

// IncStale counts a discarded out-of-date fetch result.
func (m *RequestMetrics) IncStale(slot string) {
	if m == nil || m.stale == nil {
		return
	}
	m.stale.WithLabelValues(normalizeLabel(slot)).Inc()
}

// NormalizeRoute replaces numeric path segments with {id} and drops the query.
func NormalizeRoute(path string) string {
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		path = path[:idx]
	}
	if path == "" {
		return "unknown"
	}
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		if _, err := strconv.ParseInt(seg, 10, 64); err == nil {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}

func statusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
