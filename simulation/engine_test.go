package simulation

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalsim-labs/kalsim/ai"
	"github.com/kalsim-labs/kalsim/core"
	"github.com/kalsim-labs/kalsim/market"
	"github.com/kalsim-labs/kalsim/persona"
)

func setupEngine(t *testing.T, cfg core.SimulationConfig) *Engine {
	t.Helper()
	engine := NewEngine("test-run", cfg)
	err := engine.Setup(
		&persona.Synthetic{Seed: cfg.Seed()},
		nil,
		func(headlines []string) ai.Producer { return &ai.TemplateProducer{Headlines: headlines} },
	)
	require.NoError(t, err)
	return engine
}

func TestStepTime(t *testing.T) {
	assert.Equal(t, core.SimulationEpoch, StepTime(0))
	assert.Equal(t, core.SimulationEpoch.Add(24*time.Hour), StepTime(24))
}

func TestExecuteStepDayAndStepIndices(t *testing.T) {
	engine := setupEngine(t, mockConfig(10, 2, 7))

	first := engine.ExecuteStep(0)
	assert.Equal(t, 1, first.Day)
	assert.Equal(t, core.SimulationEpoch, first.Timestamp)

	for step := 1; step < 30; step++ {
		engine.ExecuteStep(step)
	}

	prices := engine.Prices()
	require.Len(t, prices, 30)
	assert.Equal(t, 1, prices[23].Day)
	assert.Equal(t, 23, prices[23].Step)
	assert.Equal(t, 2, prices[24].Day)
	assert.Equal(t, 0, prices[24].Step)
}

func TestLogAppendsInAgentOrder(t *testing.T) {
	engine := setupEngine(t, mockConfig(50, 1, 7))

	for step := 0; step < 24; step++ {
		engine.ExecuteStep(step)
	}

	log := engine.Log()
	require.NotEmpty(t, log, "a 50-agent day should produce posts")
	assert.True(t, sort.SliceIsSorted(log, func(i, j int) bool {
		if log[i].Day != log[j].Day {
			return log[i].Day < log[j].Day
		}
		if log[i].Step != log[j].Step {
			return log[i].Step < log[j].Step
		}
		return log[i].AgentID < log[j].AgentID
	}), "evaluation order must yield a (day, step, agent) ordered log")
}

func TestExecuteStepSentimentIsMeanOfPosts(t *testing.T) {
	engine := setupEngine(t, mockConfig(20, 1, 7))

	result := engine.ExecuteStep(0)
	entries := engine.Log()
	require.Equal(t, result.Posts, len(entries))

	if result.Posts > 0 {
		var sum float64
		for _, e := range entries {
			sum += e.Sentiment
		}
		assert.InDelta(t, sum/float64(result.Posts), result.Sentiment, 1e-9)
	} else {
		assert.Zero(t, result.Sentiment)
	}
}

func TestSetupRejectsShortPersonaSet(t *testing.T) {
	engine := NewEngine("test-run", mockConfig(5, 1, 7))
	err := engine.Setup(
		shortProvider{},
		nil,
		func(headlines []string) ai.Producer { return &ai.TemplateProducer{} },
	)
	assert.Error(t, err)
}

type shortProvider struct{}

func (shortProvider) Generate(count int, topic string) ([]core.PersonaTrait, error) {
	personas, _ := (&persona.Synthetic{Seed: 1}).Generate(count-1, topic)
	return personas, nil
}

func TestMockModeSkipsTrendFetch(t *testing.T) {
	fetcher := &countingFetcher{}
	engine := NewEngine("test-run", mockConfig(5, 1, 7))
	err := engine.Setup(
		&persona.Synthetic{Seed: 7},
		fetcher,
		func(headlines []string) ai.Producer { return &ai.TemplateProducer{Headlines: headlines} },
	)
	require.NoError(t, err)
	assert.Zero(t, fetcher.calls, "mock runs make no external calls")
}

type countingFetcher struct{ calls int }

func (f *countingFetcher) FetchTrend(topic string) (market.TrendSeed, error) {
	f.calls++
	return market.NeutralTrendSeed(topic), nil
}
