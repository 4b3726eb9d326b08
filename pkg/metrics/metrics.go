// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route pattern and status code.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method and route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// ExpensesRecorded counts expenses written, labelled by split method.
	ExpensesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dutchpay_expenses_recorded_total",
		Help: "Expenses added or edited, by split method.",
	}, []string{"method"})

	// RateLookups counts exchange-rate lookups by result: hit, miss or error.
	RateLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dutchpay_rate_lookups_total",
		Help: "Exchange-rate lookups by cache result.",
	}, []string{"result"})

	// SettlementsCompleted counts Open -> Settled transitions.
	SettlementsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dutchpay_settlements_completed_total",
		Help: "Settlements marked as settled.",
	})
)

// Handler serves the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and latency per chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
