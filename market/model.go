// Package market maintains the simulated price and sentiment series. The
// price walk is fully seeded; the only external input is an optional trend
// seed fetched once at run start.
package market

import (
	"math"
	"math/rand"
	"time"

	"github.com/kalsim-labs/kalsim/behavior"
	"github.com/kalsim-labs/kalsim/core"
)

const (
	// DefaultBasePrice matches the neutral starting price used when no
	// trend seed is available.
	DefaultBasePrice = 20.0

	// PriceFloor keeps the series strictly positive.
	PriceFloor = 1.0

	// DefaultSensitivity scales how strongly one step's aggregate sentiment
	// moves the price. tanh bounds the move regardless of sentiment extremes.
	DefaultSensitivity = 0.8

	// DefaultVolatility bounds the absolute per-step noise contribution.
	DefaultVolatility = 0.4
)

// Model is the per-run market state. Not safe for concurrent use; the engine
// owns it exclusively for the run's lifetime.
type Model struct {
	sensitivity float64
	volatility  float64

	price     float64
	community float64
	history   []float64
	rng       *rand.Rand
}

// NewModel creates a market starting at basePrice with a seeded noise stream.
func NewModel(basePrice float64, seed int64) *Model {
	if basePrice < PriceFloor {
		basePrice = DefaultBasePrice
	}
	return &Model{
		sensitivity: DefaultSensitivity,
		volatility:  DefaultVolatility,
		price:       basePrice,
		history:     []float64{basePrice},
		rng:         rand.New(rand.NewSource(seed ^ 0x6d61726b6574)),
	}
}

// Price returns the current price.
func (m *Model) Price() float64 { return m.price }

// CommunitySentiment returns the decayed community sentiment.
func (m *Model) CommunitySentiment() float64 { return m.community }

// Advance applies one step's aggregate sentiment and returns the new price.
// price[t] = clamp(price[t-1] + sens*tanh(sentiment) + noise, floor, inf),
// noise uniform in [-volatility, volatility] from the seeded stream.
func (m *Model) Advance(stepSentiment float64) float64 {
	m.foldSentiment(stepSentiment)

	noise := (m.rng.Float64()*2 - 1) * m.volatility
	m.price = math.Max(m.price+m.sensitivity*math.Tanh(m.community)+noise, PriceFloor)
	m.history = append(m.history, m.price)
	return m.price
}

// foldSentiment folds the step's mean post sentiment into a decaying
// community sentiment bounded to [-1, 1].
func (m *Model) foldSentiment(stepSentiment float64) {
	m.community += stepSentiment * 0.5
	m.community *= 0.95
	if m.community > 1 {
		m.community = 1
	} else if m.community < -1 {
		m.community = -1
	}
}

// ChangePct is the percentage move of the last step.
func (m *Model) ChangePct() float64 {
	if len(m.history) < 2 {
		return 0
	}
	prev := m.history[len(m.history)-2]
	if prev == 0 {
		return 0
	}
	return (m.price - prev) / prev * 100
}

// PrevPrice is the price before the last advance.
func (m *Model) PrevPrice() float64 {
	if len(m.history) < 2 {
		return m.price
	}
	return m.history[len(m.history)-2]
}

// Trend buckets the short-horizon price movement.
func (m *Model) Trend() behavior.Trend {
	return ClassifyTrend(m.ChangePct())
}

// ClassifyTrend maps a percentage change onto a trend bucket.
func ClassifyTrend(changePct float64) behavior.Trend {
	switch {
	case changePct > 5:
		return behavior.TrendSurging
	case changePct > 1:
		return behavior.TrendRising
	case changePct < -5:
		return behavior.TrendCrashing
	case changePct < -1:
		return behavior.TrendFalling
	default:
		return behavior.TrendStable
	}
}

// Context assembles the MarketContext agents observe for the given step.
func (m *Model) Context(day, step int, recent []behavior.PeerAction) behavior.MarketContext {
	return behavior.MarketContext{
		Day:                day,
		Step:               step,
		Price:              m.price,
		PrevPrice:          m.PrevPrice(),
		ChangePct:          m.ChangePct(),
		Trend:              m.Trend(),
		CommunitySentiment: m.community,
		RecentActions:      recent,
	}
}

// Record materializes the market record for a completed step.
func (m *Model) Record(day, step int, ts time.Time) core.MarketState {
	return core.MarketState{
		Day:                day,
		Step:               step,
		Timestamp:          ts,
		Price:              m.price,
		AggregateSentiment: m.community,
	}
}
