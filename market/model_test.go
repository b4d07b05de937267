package market

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalsim-labs/kalsim/behavior"
)

func TestNewModelBasePriceFallback(t *testing.T) {
	assert.Equal(t, 35.0, NewModel(35, 1).Price())
	assert.Equal(t, DefaultBasePrice, NewModel(0, 1).Price())
	assert.Equal(t, DefaultBasePrice, NewModel(-3, 1).Price())
}

func TestAdvanceDeterministic(t *testing.T) {
	run := func() []float64 {
		m := NewModel(DefaultBasePrice, 42)
		prices := make([]float64, 0, 48)
		for i := 0; i < 48; i++ {
			prices = append(prices, m.Advance(0.3))
		}
		return prices
	}
	assert.Equal(t, run(), run())

	other := NewModel(DefaultBasePrice, 7)
	assert.NotEqual(t, run()[0], other.Advance(0.3))
}

func TestAdvanceStepBound(t *testing.T) {
	m := NewModel(DefaultBasePrice, 42)
	prev := m.Price()
	for i := 0; i < 200; i++ {
		next := m.Advance(1.0)
		// One step moves at most sensitivity*|tanh| + volatility.
		assert.LessOrEqual(t, math.Abs(next-prev), DefaultSensitivity+DefaultVolatility+1e-9)
		prev = next
	}
}

func TestPriceNeverBelowFloor(t *testing.T) {
	m := NewModel(2.0, 42)
	for i := 0; i < 500; i++ {
		assert.GreaterOrEqual(t, m.Advance(-1.0), PriceFloor)
	}
}

func TestCommunitySentimentDecaysAndClamps(t *testing.T) {
	m := NewModel(DefaultBasePrice, 42)

	for i := 0; i < 100; i++ {
		m.Advance(1.0)
		require.LessOrEqual(t, m.CommunitySentiment(), 1.0)
	}
	peak := m.CommunitySentiment()
	assert.Greater(t, peak, 0.5)

	// Silence decays the community mood toward neutral.
	for i := 0; i < 100; i++ {
		m.Advance(0)
	}
	assert.Less(t, m.CommunitySentiment(), peak*0.1)
}

func TestClassifyTrendBuckets(t *testing.T) {
	cases := []struct {
		changePct float64
		want      behavior.Trend
	}{
		{8, behavior.TrendSurging},
		{5.1, behavior.TrendSurging},
		{3, behavior.TrendRising},
		{1.01, behavior.TrendRising},
		{0.5, behavior.TrendStable},
		{0, behavior.TrendStable},
		{-0.5, behavior.TrendStable},
		{-1.01, behavior.TrendFalling},
		{-3, behavior.TrendFalling},
		{-5.1, behavior.TrendCrashing},
		{-20, behavior.TrendCrashing},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyTrend(tc.changePct), "changePct=%v", tc.changePct)
	}
}

func TestChangePctBeforeFirstAdvance(t *testing.T) {
	m := NewModel(DefaultBasePrice, 1)
	assert.Zero(t, m.ChangePct())
	assert.Equal(t, m.Price(), m.PrevPrice())
}

func TestContextReflectsModelState(t *testing.T) {
	m := NewModel(DefaultBasePrice, 42)
	m.Advance(0.8)

	recent := []behavior.PeerAction{{AgentID: 1, Sentiment: 0.5}}
	mc := m.Context(2, 7, recent)

	assert.Equal(t, 2, mc.Day)
	assert.Equal(t, 7, mc.Step)
	assert.Equal(t, m.Price(), mc.Price)
	assert.Equal(t, m.PrevPrice(), mc.PrevPrice)
	assert.Equal(t, m.CommunitySentiment(), mc.CommunitySentiment)
	assert.Equal(t, recent, mc.RecentActions)
}
