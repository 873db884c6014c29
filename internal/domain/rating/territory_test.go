package rating

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/RateCraft/pkg/errors"
)

type mockTerritoryStore struct {
	mock.Mock
}

func (m *mockTerritoryStore) GetTerritoryStats(ctx context.Context, state, code string) (*TerritoryStats, error) {
	args := m.Called(ctx, state, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*TerritoryStats), args.Error(1)
}

func (m *mockTerritoryStore) GetStatewideStats(ctx context.Context, state string) (*StatewideStats, error) {
	args := m.Called(ctx, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*StatewideStats), args.Error(1)
}

func caStatewide() *StatewideStats {
	return &StatewideStats{State: "CA", BaseLossCost: Money("100"), AverageLossCost: Money("100"), CredibilityThreshold: 1000}
}

func TestTerritoryResolver_PartialCredibilityBlends(t *testing.T) {
	store := new(mockTerritoryStore)
	store.On("GetTerritoryStats", mock.Anything, "CA", "90210").
		Return(&TerritoryStats{State: "CA", Code: "90210", LocalLossCost: Money("120"), Observations: 250}, nil)
	store.On("GetStatewideStats", mock.Anything, "CA").Return(caStatewide(), nil)

	r := NewTerritoryResolver(store, DefaultFactorBounds())
	tf, err := r.Resolve(context.Background(), "CA", "90210")

	require.NoError(t, err)
	assert.True(t, tf.Known)
	// Z = √(250/1000) = 0.5; 0.5×120 + 0.5×100 = 110; 110/100
	assertDecimal(t, "0.5", tf.Credibility)
	assertDecimal(t, "1.1", tf.Multiplier)
	store.AssertExpectations(t)
}

func TestTerritoryResolver_FullCredibility(t *testing.T) {
	r := NewTerritoryResolver(nil, DefaultFactorBounds())
	tf := r.Blend(TerritoryStats{State: "CA", Code: "94105", LocalLossCost: Money("80"), Observations: 1500}, *caStatewide())
	assertDecimal(t, "1", tf.Credibility)
	assertDecimal(t, "0.8", tf.Multiplier)
}

func TestTerritoryResolver_StoredCredibilityWins(t *testing.T) {
	z := Money("0.3")
	r := NewTerritoryResolver(nil, DefaultFactorBounds())
	tf := r.Blend(TerritoryStats{State: "CA", Code: "96161", LocalLossCost: Money("200"), Observations: 10, Credibility: &z}, *caStatewide())
	// 0.3×200 + 0.7×100 = 130
	assertDecimal(t, "1.3", tf.Multiplier)
}

func TestTerritoryResolver_ZeroAverageIsNeutral(t *testing.T) {
	r := NewTerritoryResolver(nil, DefaultFactorBounds())
	sw := *caStatewide()
	sw.AverageLossCost = Money("0")
	tf := r.Blend(TerritoryStats{State: "CA", Code: "x", LocalLossCost: Money("50"), Observations: 5}, sw)
	assert.False(t, tf.Known)
	assertDecimal(t, "1", tf.Multiplier)
}

func TestTerritoryResolver_UnknownCodeDefaultsToStatewide(t *testing.T) {
	store := new(mockTerritoryStore)
	store.On("GetTerritoryStats", mock.Anything, "CA", "00000").Return(nil, errors.NotFound("territory not found"))

	r := NewTerritoryResolver(store, DefaultFactorBounds())
	tf, err := r.Resolve(context.Background(), "CA", "00000")

	require.NoError(t, err)
	assert.False(t, tf.Known)
	assertDecimal(t, "1", tf.Multiplier)
	assert.Equal(t, SourceNeutral, tf.Factor().Source)
}

func TestTerritoryResolver_EmptyCodeSkipsStore(t *testing.T) {
	store := new(mockTerritoryStore)
	r := NewTerritoryResolver(store, DefaultFactorBounds())
	tf, err := r.Resolve(context.Background(), "CA", "")
	require.NoError(t, err)
	assertDecimal(t, "1", tf.Multiplier)
	store.AssertNotCalled(t, "GetTerritoryStats", mock.Anything, mock.Anything, mock.Anything)
}

func TestTerritoryResolver_StoreFailureIsReturned(t *testing.T) {
	store := new(mockTerritoryStore)
	store.On("GetTerritoryStats", mock.Anything, "CA", "90210").Return(nil, stderrors.New("connection reset"))

	r := NewTerritoryResolver(store, DefaultFactorBounds())
	tf, err := r.Resolve(context.Background(), "CA", "90210")
	assert.Error(t, err)
	assertDecimal(t, "1", tf.Multiplier)
}

func TestCredibility(t *testing.T) {
	assertDecimal(t, "1", Credibility(TerritoryStats{Observations: 10}, 0))
	assertDecimal(t, "0", Credibility(TerritoryStats{Observations: 0}, 100))
	assertDecimal(t, "0.1", Credibility(TerritoryStats{Observations: 1}, 100))
}

//Personal.AI order the ending
