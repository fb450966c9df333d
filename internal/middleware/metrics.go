package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"media-editor/internal/metrics"
)

// MetricsConfig holds configuration for the metrics middleware
type MetricsConfig struct {
	// SkipPaths are paths that should not be recorded
	SkipPaths []string
	// Routes are the paths recorded under their own label. Anything else is
	// recorded as "other" to bound label cardinality.
	Routes []string
}

// DefaultMetricsConfig returns the default metrics configuration
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		SkipPaths: []string{"/metrics", "/health", "/healthz", "/livez", "/readyz"},
		Routes: []string{
			"/api/register",
			"/api/login",
			"/api/verifyToken",
			"/api/process-image",
			"/api/process-video",
			"/ws",
			"/version",
		},
	}
}

// Metrics returns a middleware that records Prometheus metrics
func Metrics(config MetricsConfig) Middleware {
	routes := make(map[string]struct{}, len(config.Routes))
	for _, r := range config.Routes {
		routes[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, path := range config.SkipPaths {
				if strings.HasPrefix(r.URL.Path, path) {
					next.ServeHTTP(w, r)
					return
				}
			}

			metrics.HTTPRequestsInFlight.Inc()
			defer metrics.HTTPRequestsInFlight.Dec()

			wrapped := newStatusRecorder(w)
			start := time.Now()

			next.ServeHTTP(wrapped, r)

			path := normalizePath(r.URL.Path, routes)
			status := strconv.Itoa(wrapped.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// normalizePath maps a request path to a bounded label value.
func normalizePath(path string, routes map[string]struct{}) string {
	trimmed := strings.TrimSuffix(path, "/")
	if trimmed == "" {
		return "/"
	}
	if _, ok := routes[trimmed]; ok {
		return trimmed
	}
	return "other"
}
