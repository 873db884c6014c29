package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/prometheus"
)

// LoggingConfig holds configuration for the request logging middleware.
type LoggingConfig struct {
	// SkipPaths are not logged; they are still counted in metrics.
	SkipPaths []string
	// SlowThreshold logs slower requests at Warn.  The rating budget is
	// 50ms, so the default sits well above it.
	SlowThreshold time.Duration
}

func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:     []string{"/healthz", "/readyz", "/metrics"},
		SlowThreshold: 250 * time.Millisecond,
	}
}

// RequestLogging logs each request once it completes and, when metrics is
// non-nil, records it under its chi route pattern.
func RequestLogging(logger logging.Logger, metrics *prometheus.AppMetrics, cfg LoggingConfig) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.Named("http")
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			if metrics != nil {
				active := metrics.HTTPActiveRequests.WithLabelValues(r.Method)
				active.Inc()
				defer active.Dec()
			}

			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := routePattern(r)
			if metrics != nil {
				prometheus.RecordHTTPRequest(metrics, r.Method, route, status, elapsed)
			}
			if skip[r.URL.Path] {
				return
			}

			fields := []logging.Field{
				logging.String("method", r.Method),
				logging.String("route", route),
				logging.String("path", r.URL.Path),
				logging.Int("status", status),
				logging.Duration("duration", elapsed),
				logging.Int("bytes", ww.BytesWritten()),
				logging.String("remote_addr", r.RemoteAddr),
			}
			log := logger.WithContext(r.Context())
			switch {
			case status >= http.StatusInternalServerError:
				log.Error("request failed", fields...)
			case status >= http.StatusBadRequest:
				log.Warn("request rejected", fields...)
			case cfg.SlowThreshold > 0 && elapsed >= cfg.SlowThreshold:
				log.Warn("slow request", fields...)
			default:
				log.Info("request completed", fields...)
			}
		})
	}
}

// routePattern keeps metric cardinality bounded: unmatched paths collapse
// into one label.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

//Personal.AI order the ending
