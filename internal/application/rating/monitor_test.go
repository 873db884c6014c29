package rating

import (
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingSink struct {
	mu           sync.Mutex
	outcomes     []string
	degradations []string
}

func (s *recordingSink) ObserveCalculation(_ string, outcome string, _ time.Duration) {
	s.mu.Lock()
	s.outcomes = append(s.outcomes, outcome)
	s.mu.Unlock()
}

func (s *recordingSink) ObserveDegradation(component string) {
	s.mu.Lock()
	s.degradations = append(s.degradations, component)
	s.mu.Unlock()
}

func TestPerformanceMonitor_Snapshot(t *testing.T) {
	sink := &recordingSink{}
	m := NewPerformanceMonitor(50*time.Millisecond, sink)

	assert.Equal(t, PerformanceSnapshot{TargetMs: 50}, m.Snapshot())

	m.Record("CA", 10*time.Millisecond, nil)
	m.Record("CA", 30*time.Millisecond, nil)
	m.Record("TX", 80*time.Millisecond, stderrors.New("failed"))
	m.RecordDegradation("weather")

	s := m.Snapshot()
	assert.EqualValues(t, 3, s.Count)
	assert.EqualValues(t, 1, s.Failures)
	assert.InDelta(t, 40.0, s.AverageMs, 0.001)
	assert.InDelta(t, 66.666, s.TargetMetPercentage, 0.01)
	assert.EqualValues(t, 1, s.Degradations)

	assert.Equal(t, []string{OutcomeSuccess, OutcomeSuccess, OutcomeFailure}, sink.outcomes)
	assert.Equal(t, []string{"weather"}, sink.degradations)
}

func TestPerformanceMonitor_ConcurrentRecord(t *testing.T) {
	m := NewPerformanceMonitor(time.Second, nil)
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Record("NY", time.Millisecond, nil)
		}()
	}
	wg.Wait()
	s := m.Snapshot()
	assert.EqualValues(t, 64, s.Count)
	assert.Equal(t, 100.0, s.TargetMetPercentage)

	m.SetTarget(0)
	m.Record("NY", time.Millisecond, nil)
	assert.Less(t, m.Snapshot().TargetMetPercentage, 100.0)
}

//Personal.AI order the ending
