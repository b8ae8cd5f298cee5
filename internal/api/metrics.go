package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const unmatchedRoute = "unmatched"

// Stream scopes, used as the scope label of the stream lifetime histogram.
const (
	streamScopeRun = "run"
	streamScopeAll = "all"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parallel_http_requests_total",
			Help: "HTTP requests served by the status server.",
		},
		[]string{"method", "route", "status"},
	)

	// Event streams are excluded: their lifetime is tracked separately.
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parallel_http_request_duration_seconds",
			Help:    "Latency of non-streaming HTTP requests.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "route"},
	)

	httpRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "parallel_http_requests_in_flight",
			Help: "HTTP requests currently being served, event streams included.",
		},
	)

	eventStreamsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "parallel_http_event_streams",
			Help: "Server-sent event streams currently open.",
		},
	)

	eventStreamSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parallel_http_event_stream_seconds",
			Help:    "How long server-sent event streams stayed open.",
			Buckets: prometheus.ExponentialBuckets(0.5, 4, 8),
		},
		[]string{"scope"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		httpRequestsInFlight,
		eventStreamsOpen,
		eventStreamSeconds,
	)
}

// metricsMiddleware counts every request by chi route pattern and records
// the latency of those that are not event streams.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()

		if !isEventStream(ww.Header()) {
			httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		}
	})
}

// trackStream marks an event stream of the given scope as open. The returned
// func closes it and records its lifetime.
func trackStream(scope string) func() {
	eventStreamsOpen.Inc()
	opened := time.Now()
	return func() {
		eventStreamsOpen.Dec()
		eventStreamSeconds.WithLabelValues(scope).Observe(time.Since(opened).Seconds())
	}
}

func isEventStream(h http.Header) bool {
	return strings.HasPrefix(h.Get("Content-Type"), "text/event-stream")
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return unmatchedRoute
}

func metricsHandler() http.Handler {
	return promhttp.Handler()
}
