// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "openbanking_proxy"

var (
	// HTTPRequests counts inbound requests by matched route and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Inbound HTTP requests by route, method and status code.",
	}, []string{"route", "method", "status"})

	// HTTPDuration tracks inbound request latency by matched route.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Inbound HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	// UpstreamRequests counts upstream calls by resource path and outcome.
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Upstream calls by resource path and outcome (ok, unreachable, timeout, status, malformed).",
	}, []string{"path", "outcome"})

	// UpstreamDuration tracks upstream latency by resource path.
	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Upstream call latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"path"})
)

// ObserveUpstream records one finished upstream call.
func ObserveUpstream(path, outcome string, elapsed time.Duration) {
	UpstreamRequests.WithLabelValues(path, outcome).Inc()
	UpstreamDuration.WithLabelValues(path).Observe(elapsed.Seconds())
}

// ObserveHTTP records one finished inbound request.
// route is the registered pattern; unmatched requests should pass "unmatched".
func ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
