// Package metrics exposes Prometheus collectors for the HTTP surface, the
// movie lifecycle and the catalog aggregates.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/prn-tf/marquee/internal/domain"
)

const namespace = "marquee"

// Metrics holds every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Domain
	MovieMutationsTotal *prometheus.CounterVec
	LoginAttemptsTotal  *prometheus.CounterVec

	// Catalog
	CatalogMovies         *prometheus.GaugeVec
	CatalogMoviesByRating *prometheus.GaugeVec
	StatsLastRefreshTime  prometheus.Gauge
	StatsRefreshDuration  prometheus.Histogram
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		MovieMutationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "movies",
			Name:      "mutations_total",
			Help:      "Movie record mutations by operation and result.",
		}, []string{"operation", "result"}),

		LoginAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),

		CatalogMovies: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "movies",
			Help:      "Movies in the catalog by derived status; total is the overall count.",
		}, []string{"status"}),

		CatalogMoviesByRating: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "movies_by_rating",
			Help:      "Movies in the catalog by classification.",
		}, []string{"rating"}),

		StatsLastRefreshTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "stats_last_refresh_timestamp_seconds",
			Help:      "Unix time of the last successful catalog stats refresh.",
		}),

		StatsRefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "stats_refresh_duration_seconds",
			Help:      "Duration of catalog stats refreshes.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.MovieMutationsTotal,
		m.LoginAttemptsTotal,
		m.CatalogMovies,
		m.CatalogMoviesByRating,
		m.StatsLastRefreshTime,
		m.StatsRefreshDuration,
	)

	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request count and latency, labelled by the chi route
// pattern so ids do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// RecordMovieMutation counts a create, update, toggle or delete.
func (m *Metrics) RecordMovieMutation(operation string, err error) {
	if m == nil {
		return
	}
	m.MovieMutationsTotal.WithLabelValues(operation, result(err)).Inc()
}

// RecordLogin counts a login attempt.
func (m *Metrics) RecordLogin(err error) {
	if m == nil {
		return
	}
	m.LoginAttemptsTotal.WithLabelValues(result(err)).Inc()
}

// SetCatalogStats publishes a stats snapshot.
func (m *Metrics) SetCatalogStats(stats *domain.CatalogStats, took time.Duration) {
	if m == nil || stats == nil {
		return
	}

	m.CatalogMovies.WithLabelValues("total").Set(float64(stats.Total))
	m.CatalogMovies.WithLabelValues(string(domain.StatusShowing)).Set(float64(stats.ByStatus.Showing))
	m.CatalogMovies.WithLabelValues(string(domain.StatusComingSoon)).Set(float64(stats.ByStatus.ComingSoon))
	m.CatalogMovies.WithLabelValues(string(domain.StatusFull)).Set(float64(stats.ByStatus.Full))

	m.CatalogMoviesByRating.Reset()
	for _, r := range domain.Ratings {
		m.CatalogMoviesByRating.WithLabelValues(string(r)).Set(0)
	}
	for _, rc := range stats.ByRating {
		m.CatalogMoviesByRating.WithLabelValues(string(rc.Rating)).Set(float64(rc.Count))
	}

	m.StatsRefreshDuration.Observe(took.Seconds())
	m.StatsLastRefreshTime.SetToCurrentTime()
}

// result maps an error to a bounded label value.
func result(err error) string {
	if err == nil {
		return "success"
	}
	return domain.KindOf(err).String()
}
