// Package metrics exposes the review layer's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "review_layer",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "review_layer",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "review_layer",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	lifecycleTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "review_layer",
			Subsystem: "lifecycle",
			Name:      "transitions_total",
			Help:      "Total number of applied lifecycle transitions.",
		},
		[]string{"status"},
	)

	notificationsDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "review_layer",
			Subsystem: "notifications",
			Name:      "dispatched_total",
			Help:      "Total number of notifications dispatched.",
		},
		[]string{"recipient"},
	)

	ledgerFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "review_layer",
			Subsystem: "ledger",
			Name:      "record_failures_total",
			Help:      "Total number of failed or cancelled ledger record calls.",
		},
	)
)

func init() {
	Registry.MustRegister(httpInFlight, httpRequests, httpDuration, lifecycleTransitions, notificationsDispatched, ledgerFailures)
}

// ObserveTransition records an applied lifecycle transition.
func ObserveTransition(status string) {
	lifecycleTransitions.WithLabelValues(status).Inc()
}

// ObserveNotification records a dispatched notification.
func ObserveNotification(admin bool) {
	recipient := "user"
	if admin {
		recipient = "admin"
	}
	notificationsDispatched.WithLabelValues(recipient).Inc()
}

// ObserveLedgerFailure records a failed or cancelled ledger call.
func ObserveLedgerFailure() {
	ledgerFailures.Inc()
}

// Handler serves the registry over HTTP.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counters and latencies.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		httpRequests.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(wrapped.status)).Inc()
		httpDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
