package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dmitrymomot/uploadgate/core/handler"
)

// MetricsConfig configures the Prometheus HTTP metrics middleware.
type MetricsConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool
	// Namespace is the metrics namespace (default: "uploadgate")
	Namespace string
	// Buckets are the request duration histogram buckets (default: prometheus.DefBuckets)
	Buckets []float64
	// Registry receives the collectors (default: prometheus.DefaultRegisterer)
	Registry prometheus.Registerer
}

// Metrics records request counts and latencies labelled by route pattern,
// method and status.
//
// Collectors are registered when the middleware is built; building it twice
// against the same registry panics.
func Metrics[C handler.Context](cfg MetricsConfig) handler.Middleware[C] {
	if cfg.Namespace == "" {
		cfg.Namespace = "uploadgate"
	}
	if len(cfg.Buckets) == 0 {
		cfg.Buckets = prometheus.DefBuckets
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(cfg.Registry)
	requests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"route", "method", "status"})
	duration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   cfg.Buckets,
	}, []string{"route", "method"})

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			start := time.Now()
			resp := next(ctx)

			return func(w http.ResponseWriter, r *http.Request) error {
				rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
				err := resp(rec, r)

				status := rec.status
				if err != nil && !rec.wroteHeader {
					status = http.StatusInternalServerError
				}
				route := routePattern(r)
				requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
				duration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
				return err
			}
		}
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
