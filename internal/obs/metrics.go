package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP-level metrics shared by all handlers.
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Identity-domain metrics.
var (
	signupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_signups_total",
			Help: "Signup attempts by role and result.",
		},
		[]string{"role", "result"},
	)

	loginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_logins_total",
			Help: "Login attempts by result.",
		},
		[]string{"result"},
	)

	resolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_resolutions_total",
			Help: "Session-state resolutions by outcome.",
		},
		[]string{"outcome"},
	)

	guardRedirectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "access_guard_redirects_total",
			Help: "Page accesses denied by the access guard.",
		},
	)
)

// Init registers all metrics in the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight, httpRequestsTotal, httpRequestDuration,
		signupsTotal, loginsTotal, resolutionsTotal, guardRedirectsTotal,
	)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveSignup records a signup attempt outcome for the given role.
func ObserveSignup(role string, ok bool) {
	signupsTotal.WithLabelValues(role, resultLabel(ok)).Inc()
}

// ObserveLogin records a login attempt outcome.
func ObserveLogin(ok bool) {
	loginsTotal.WithLabelValues(resultLabel(ok)).Inc()
}

// ObserveResolution records a session resolution outcome
// (signed_in, signed_out, missing_profile, stale, error).
func ObserveResolution(outcome string) {
	resolutionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveGuardRedirect counts a silent redirect issued by the access guard.
func ObserveGuardRedirect() {
	guardRedirectsTotal.Inc()
}

func resultLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}

// Instrument wraps the handler with RPS/latency/in-flight measurement.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// CanonicalPath collapses per-user path segments so metric cardinality stays
// bounded. Profile lookups are keyed by identity id in the URL.
func CanonicalPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(parts) >= 3 && parts[0] == "v1" && parts[1] == "profiles" {
		if len(parts) == 3 {
			return "/v1/profiles/:id"
		}
	}
	return path
}

// statusWriter captures the response code for metric labels.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
