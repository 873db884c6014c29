package rating

import (
	"sync/atomic"
	"time"
)

// Outcome labels for calculation samples.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// MetricsSink receives every sample recorded by a PerformanceMonitor, for
// export to a metrics backend.  Implementations must not block.
type MetricsSink interface {
	ObserveCalculation(state string, outcome string, elapsed time.Duration)
	ObserveDegradation(component string)
}

// PerformanceSnapshot is the read-only view of the monitor.
type PerformanceSnapshot struct {
	Count               int64   `json:"count"`
	Failures            int64   `json:"failures"`
	AverageMs           float64 `json:"average_ms"`
	TargetMs            float64 `json:"target_ms"`
	TargetMetPercentage float64 `json:"target_met_percentage"`
	Degradations        int64   `json:"degradations"`
}

// PerformanceMonitor accumulates calculation latency with lock-free
// counters; recording never blocks a calculation.
type PerformanceMonitor struct {
	target atomic.Int64
	sink   MetricsSink

	count        atomic.Int64
	failures     atomic.Int64
	totalNanos   atomic.Int64
	withinTarget atomic.Int64
	degradations atomic.Int64
}

// NewPerformanceMonitor creates a monitor with the given latency target.
// sink may be nil.
func NewPerformanceMonitor(target time.Duration, sink MetricsSink) *PerformanceMonitor {
	m := &PerformanceMonitor{sink: sink}
	m.target.Store(int64(target))
	return m
}

// SetTarget changes the latency target for subsequent samples.
func (m *PerformanceMonitor) SetTarget(target time.Duration) { m.target.Store(int64(target)) }

// Record adds one calculation sample.
func (m *PerformanceMonitor) Record(state string, elapsed time.Duration, err error) {
	m.count.Add(1)
	m.totalNanos.Add(int64(elapsed))
	if elapsed <= time.Duration(m.target.Load()) {
		m.withinTarget.Add(1)
	}
	outcome := OutcomeSuccess
	if err != nil {
		m.failures.Add(1)
		outcome = OutcomeFailure
	}
	if m.sink != nil {
		m.sink.ObserveCalculation(state, outcome, elapsed)
	}
}

// RecordDegradation counts a factor that fell back to neutral.
func (m *PerformanceMonitor) RecordDegradation(component string) {
	m.degradations.Add(1)
	if m.sink != nil {
		m.sink.ObserveDegradation(component)
	}
}

// Snapshot returns the current aggregates.  Counters are read individually,
// so a snapshot taken during heavy traffic may straddle a sample.
func (m *PerformanceMonitor) Snapshot() PerformanceSnapshot {
	s := PerformanceSnapshot{
		Count:        m.count.Load(),
		Failures:     m.failures.Load(),
		TargetMs:     float64(m.target.Load()) / float64(time.Millisecond),
		Degradations: m.degradations.Load(),
	}
	if s.Count == 0 {
		return s
	}
	s.AverageMs = float64(m.totalNanos.Load()) / float64(s.Count) / float64(time.Millisecond)
	s.TargetMetPercentage = float64(m.withinTarget.Load()) / float64(s.Count) * 100
	return s
}

//Personal.AI order the ending
