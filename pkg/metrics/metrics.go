// Package metrics exposes Prometheus collectors for the HTTP layer and the
// tracking domain.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics of one server instance
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Domain metrics
	WaterGlasses  prometheus.Counter
	MealsRecorded *prometheus.CounterVec
	Summaries     *prometheus.CounterVec
	StreakLength  prometheus.Histogram
}

// NewCollector creates collectors on a private registry, so several servers
// (and tests) can live in one process.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		WaterGlasses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "water_glasses_total",
				Help:      "Total number of water glasses logged",
			},
		),
		MealsRecorded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "meals_recorded_total",
				Help:      "Total number of meal submissions by slot",
			},
			[]string{"slot"},
		),
		Summaries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "summaries_total",
				Help:      "Total number of day evaluations by outcome",
			},
			[]string{"balanced"},
		),
		StreakLength: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "streak_length_days",
				Help:      "Current streak reported by summaries",
				Buckets:   []float64{0, 1, 2, 3, 5, 7, 14, 30, 60, 100},
			},
		),
	}
	c.registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.WaterGlasses,
		c.MealsRecorded,
		c.Summaries,
		c.StreakLength,
		prometheus.NewGoCollector(),
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveSummary(balanced bool, currentStreak int) {
	c.Summaries.WithLabelValues(strconv.FormatBool(balanced)).Inc()
	c.StreakLength.Observe(float64(currentStreak))
}

// Middleware counts requests by chi route pattern, not raw path, to keep
// user ids out of label values.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		c.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		c.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}
