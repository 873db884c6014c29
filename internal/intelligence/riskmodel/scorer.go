package riskmodel

import (
	"context"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/turtacn/RateCraft/internal/config"
	domain "github.com/turtacn/RateCraft/internal/domain/rating"
	"github.com/turtacn/RateCraft/internal/infrastructure/httpclient"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RateCraft/pkg/errors"
)

const (
	ModeLocal  = "local"
	ModeRemote = "remote"
)

// Option configures NewScorer.
type Option func(*scorerOptions)

type scorerOptions struct {
	metrics *ScorerMetrics
}

func WithMetrics(m *ScorerMetrics) Option {
	return func(o *scorerOptions) { o.metrics = m }
}

// NewScorer builds the scorer selected by cfg, or nil when AI scoring is
// disabled.  Scores below cfg.MinConfidence are rejected as unavailable.
func NewScorer(cfg config.AIConfig, logger logging.Logger, opts ...Option) (domain.AIRiskScorer, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	var o scorerOptions
	for _, opt := range opts {
		opt(&o)
	}

	var scorer domain.AIRiskScorer
	mode := strings.ToLower(cfg.Mode)
	switch mode {
	case "", ModeLocal:
		mode = ModeLocal
		model := DefaultLinearModel()
		if cfg.ModelVersion != "" {
			model.Version = cfg.ModelVersion
		}
		scorer = NewLocalScorer(model)
	case ModeRemote:
		client, err := httpclient.New(httpclient.Config{Name: "riskmodel", BaseURL: cfg.Endpoint}, logger)
		if err != nil {
			return nil, err
		}
		scorer = NewRemoteScorer(client, cfg.ModelVersion)
	default:
		return nil, errors.Newf(errors.ErrCodeValidation, "unknown ai mode %q", cfg.Mode)
	}

	if cfg.MinConfidence > 0 {
		scorer = &confidenceGate{next: scorer, min: cfg.MinConfidence}
	}
	if o.metrics != nil {
		scorer = &instrumented{next: scorer, mode: mode, metrics: o.metrics}
	}
	return scorer, nil
}

// LocalScorer evaluates a LinearModel in process.
type LocalScorer struct {
	model *LinearModel
}

func NewLocalScorer(model *LinearModel) *LocalScorer {
	if model == nil {
		model = DefaultLinearModel()
	}
	return &LocalScorer{model: model}
}

func (s *LocalScorer) ModelVersion() string { return s.model.Version }

func (s *LocalScorer) Score(ctx context.Context, q *domain.Quote) (*domain.AIScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q == nil {
		return nil, errors.InvalidParam("quote is required")
	}
	z, contributions, confidence := s.model.Evaluate(ExtractFeatures(q))
	return &domain.AIScore{
		Multiplier:    decimal.NewFromFloat(math.Exp(z)).Round(4),
		ModelVersion:  s.model.Version,
		Confidence:    confidence,
		Contributions: contributions,
	}, nil
}

// JSONPoster is the part of httpclient.Client the remote scorer needs.
type JSONPoster interface {
	PostJSON(ctx context.Context, path string, body, out interface{}) error
}

type scoreRequest struct {
	ModelVersion string             `json:"model_version,omitempty"`
	QuoteID      string             `json:"quote_id"`
	State        string             `json:"state"`
	Features     map[string]float64 `json:"features"`
}

type scoreResponse struct {
	Multiplier    decimal.Decimal              `json:"multiplier"`
	ModelVersion  string                       `json:"model_version"`
	Confidence    float64                      `json:"confidence"`
	Contributions []domain.FeatureContribution `json:"contributions"`
}

// RemoteScorer calls a model-serving endpoint:
//
//	POST /v1/score {"model_version": "...", "quote_id": "...", "state": "CA", "features": {...}}
type RemoteScorer struct {
	client  JSONPoster
	version string
}

func NewRemoteScorer(client JSONPoster, version string) *RemoteScorer {
	return &RemoteScorer{client: client, version: version}
}

func (s *RemoteScorer) ModelVersion() string {
	if s.version == "" {
		return ModeRemote
	}
	return s.version
}

func (s *RemoteScorer) Score(ctx context.Context, q *domain.Quote) (*domain.AIScore, error) {
	if q == nil {
		return nil, errors.InvalidParam("quote is required")
	}
	req := scoreRequest{
		ModelVersion: s.version,
		QuoteID:      q.ID,
		State:        q.State,
		Features:     featureMap(ExtractFeatures(q)),
	}
	var resp scoreResponse
	if err := s.client.PostJSON(ctx, "/v1/score", req, &resp); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAIScoringUnavailable, "remote risk model call failed")
	}
	if !resp.Multiplier.IsPositive() {
		return nil, errors.Newf(errors.ErrCodeAIScoringUnavailable, "remote risk model returned multiplier %s", resp.Multiplier)
	}
	if resp.ModelVersion == "" {
		resp.ModelVersion = s.ModelVersion()
	}
	return &domain.AIScore{
		Multiplier:    resp.Multiplier,
		ModelVersion:  resp.ModelVersion,
		Confidence:    resp.Confidence,
		Contributions: resp.Contributions,
	}, nil
}

type confidenceGate struct {
	next domain.AIRiskScorer
	min  float64
}

func (g *confidenceGate) ModelVersion() string { return g.next.ModelVersion() }

func (g *confidenceGate) Score(ctx context.Context, q *domain.Quote) (*domain.AIScore, error) {
	score, err := g.next.Score(ctx, q)
	if err != nil {
		return nil, err
	}
	if score.Confidence < g.min {
		return nil, errors.Newf(errors.ErrCodeAIScoringUnavailable,
			"model %s confidence %.2f below %.2f", score.ModelVersion, score.Confidence, g.min)
	}
	return score, nil
}

//Personal.AI order the ending
