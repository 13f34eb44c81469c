// Package metrics exposes Prometheus collectors for the chart service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchRequestsTotal         *prometheus.CounterVec
	fetchRetriesTotal          prometheus.Counter
	fetchIncompleteTotal       *prometheus.CounterVec
	fetchBytesTotal            *prometheus.CounterVec
	fetchDurationSeconds       *prometheus.HistogramVec
	recordsExtracted           prometheus.Histogram
	rateLimitDelaySeconds      *prometheus.HistogramVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init registers the collectors with the default registry. Repeat calls
// are no-ops, so every entry point may call it unconditionally.
func Init() {
	once.Do(func() {
		fetchRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chart_fetch_requests_total",
				Help: "Chart page fetch attempts, labeled by locale and status class.",
			},
			[]string{"locale", "status_class"},
		)

		fetchRetriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "chart_fetch_retries_total",
				Help: "Retries triggered by incomplete-looking chart pages.",
			},
		)

		fetchIncompleteTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chart_fetch_incomplete_total",
				Help: "Responses flagged as incomplete, labeled by reason.",
			},
			[]string{"reason"},
		)

		fetchBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chart_fetch_bytes_total",
				Help: "Bytes of chart markup fetched, labeled by locale.",
			},
			[]string{"locale"},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chart_fetch_duration_seconds",
				Help:    "Histogram of chart page fetch latencies, labeled by locale.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"locale"},
		)

		recordsExtracted = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chart_records_extracted",
				Help:    "Histogram of records produced per extraction run.",
				Buckets: []float64{0, 1, 10, 25, 50, 100, 200, 250},
			},
		)

		rateLimitDelaySeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chart_rate_limit_delay_seconds",
				Help:    "Histogram of politeness stalls before contacting a host.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"host"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP requests served, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of served request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite reduces a URL to its lowercase hostname so metric label
// cardinality stays bounded. Unparseable input maps to "unknown".
func SanitizeSite(rawURL string) string {
	candidate := rawURL
	if !strings.HasPrefix(candidate, "http") {
		candidate = "http://" + candidate
	}
	parsed, err := url.Parse(candidate)
	if err != nil {
		return "unknown"
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "unknown"
	}
	return host
}

// Handler serves the scrape endpoint for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch records one chart page fetch attempt.
func ObserveFetch(locale string, statusCode, bytes int, duration time.Duration) {
	fetchRequestsTotal.WithLabelValues(locale, statusClass(statusCode)).Inc()
	if bytes > 0 {
		fetchBytesTotal.WithLabelValues(locale).Add(float64(bytes))
	}
	fetchDurationSeconds.WithLabelValues(locale).Observe(duration.Seconds())
}

// ObserveFetchRetry counts a retry attempt after an incomplete response.
func ObserveFetchRetry() {
	fetchRetriesTotal.Inc()
}

// ObserveFetchIncomplete counts a response flagged as incomplete.
func ObserveFetchIncomplete(reason string) {
	fetchIncompleteTotal.WithLabelValues(reason).Inc()
}

// ObserveRecords records how many records one extraction run produced.
func ObserveRecords(n int) {
	recordsExtracted.Observe(float64(n))
}

// ObserveRateLimitDelay records the duration of a politeness stall.
func ObserveRateLimitDelay(host string, duration time.Duration) {
	rateLimitDelaySeconds.WithLabelValues(host).Observe(duration.Seconds())
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "unknown"
	}
}
