package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/RateCraft/pkg/types/common"
)

// HealthChecker is a dependency probed by /readyz.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

type checkFunc struct {
	name string
	fn   func(context.Context) error
}

func (c checkFunc) Name() string                    { return c.name }
func (c checkFunc) Check(ctx context.Context) error { return c.fn(ctx) }

// NewCheck adapts a ping function to HealthChecker.
func NewCheck(name string, fn func(context.Context) error) HealthChecker {
	return checkFunc{name: name, fn: fn}
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	checkers []HealthChecker
	version  string
	timeout  time.Duration
	metrics  *prometheus.AppMetrics
}

func NewHealthHandler(version string, metrics *prometheus.AppMetrics, checkers ...HealthChecker) *HealthHandler {
	return &HealthHandler{checkers: checkers, version: version, timeout: 2 * time.Second, metrics: metrics}
}

// Liveness handles GET /healthz.  It never touches dependencies.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, common.HealthReport{
		Status:    common.HealthUp,
		Version:   h.version,
		CheckedAt: common.NewTimestamp(),
	})
}

// Readiness handles GET /readyz: 503 when any dependency is down.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	report := h.Check(ctx)
	status := http.StatusOK
	if report.Status != common.HealthUp {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// Check probes every dependency concurrently.  Components keep
// registration order.
func (h *HealthHandler) Check(ctx context.Context) common.HealthReport {
	components := make([]common.ComponentHealth, len(h.checkers))
	var wg sync.WaitGroup
	for i, c := range h.checkers {
		wg.Add(1)
		go func(i int, c HealthChecker) {
			defer wg.Done()
			start := time.Now()
			err := c.Check(ctx)
			ch := common.ComponentHealth{
				Name:      c.Name(),
				Status:    common.HealthUp,
				LatencyMs: float64(time.Since(start).Microseconds()) / 1000,
			}
			if err != nil {
				ch.Status = common.HealthDown
				ch.Message = err.Error()
			}
			components[i] = ch
		}(i, c)
	}
	wg.Wait()

	report := common.HealthReport{Status: common.HealthUp, Version: h.version, Components: components, CheckedAt: common.NewTimestamp()}
	for _, c := range components {
		if h.metrics != nil {
			prometheus.RecordHealth(h.metrics, c.Name, c.Status == common.HealthUp)
		}
		if c.Status != common.HealthUp {
			report.Status = common.HealthDown
		}
	}
	return report
}

//Personal.AI order the ending
