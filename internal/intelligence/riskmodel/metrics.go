package riskmodel

import (
	"context"
	"time"

	domain "github.com/turtacn/RateCraft/internal/domain/rating"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/RateCraft/pkg/errors"
)

// ScorerMetrics records scoring outcomes and latency per mode.
type ScorerMetrics struct {
	ScoresTotal   prometheus.CounterVec
	ScoreDuration prometheus.HistogramVec
}

func NewScorerMetrics(collector prometheus.MetricsCollector) *ScorerMetrics {
	return &ScorerMetrics{
		ScoresTotal: collector.RegisterCounter("ai_scores_total",
			"AI risk scores by mode and outcome", "mode", "outcome"),
		ScoreDuration: collector.RegisterHistogram("ai_score_duration_seconds",
			"AI risk scoring latency", []float64{.001, .0025, .005, .01, .02, .05, .1}, "mode"),
	}
}

type instrumented struct {
	next    domain.AIRiskScorer
	mode    string
	metrics *ScorerMetrics
}

func (s *instrumented) ModelVersion() string { return s.next.ModelVersion() }

func (s *instrumented) Score(ctx context.Context, q *domain.Quote) (*domain.AIScore, error) {
	start := time.Now()
	score, err := s.next.Score(ctx, q)
	s.metrics.ScoreDuration.WithLabelValues(s.mode).Observe(time.Since(start).Seconds())
	s.metrics.ScoresTotal.WithLabelValues(s.mode, outcome(err)).Inc()
	return score, err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.IsCode(err, errors.ErrCodeAIScoringUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

//Personal.AI order the ending
