package simulation

import (
	"fmt"
	"log"
	"time"

	"github.com/kalsim-labs/kalsim/ai"
	"github.com/kalsim-labs/kalsim/behavior"
	"github.com/kalsim-labs/kalsim/core"
	"github.com/kalsim-labs/kalsim/market"
	"github.com/kalsim-labs/kalsim/persona"
)

// recentActionWindow bounds how much log tail agents observe as peer context.
const recentActionWindow = 50

// Engine owns one run's agents, market and log. It is driven step by step
// by the manager's background worker and is never shared across runs.
type Engine struct {
	runID string
	cfg   core.SimulationConfig
	seed  int64
	topic string

	agents   []*behavior.Agent
	market   *market.Model
	producer ai.Producer

	log    []core.ActionLogEntry
	prices []core.MarketState
	notes  []string
}

// NewEngine allocates an engine for a validated config. Setup must run
// before the first step.
func NewEngine(runID string, cfg core.SimulationConfig) *Engine {
	topic := cfg.MarketTopic
	if topic == "" {
		topic = "prediction markets"
	}
	return &Engine{
		runID: runID,
		cfg:   cfg,
		seed:  cfg.Seed(),
		topic: topic,
	}
}

// Note records a non-fatal setup observation surfaced via state().
func (e *Engine) Note(format string, args ...interface{}) {
	e.notes = append(e.notes, fmt.Sprintf(format, args...))
}

// Setup resolves personas, seeds the market, and constructs the agent
// population. External calls happen here, once, before the first step; their
// failures are recovered locally and noted. A persona that fails validation
// aborts the run before any step executes.
func (e *Engine) Setup(provider persona.Provider, trendFetcher market.TrendFetcher, producerFactory func(headlines []string) ai.Producer) error {
	trendSeed := market.NeutralTrendSeed(e.topic)
	if !e.cfg.MockMode {
		seeded, err := market.SeedTrend(trendFetcher, e.topic)
		if err != nil {
			e.Note("market trend seed unavailable, using neutral defaults")
		}
		trendSeed = seeded
	}

	personas, err := e.resolvePersonas(provider)
	if err != nil {
		return err
	}

	agents := make([]*behavior.Agent, 0, e.cfg.AgentCount)
	for i := 0; i < e.cfg.AgentCount; i++ {
		agent, err := behavior.NewAgent(i, personas[i], e.seed)
		if err != nil {
			return err
		}
		agents = append(agents, agent)
	}

	// Agents without explicit ties share the run-level seeded network.
	network := behavior.BuildNetwork(e.cfg.AgentCount, e.seed)
	for i, agent := range agents {
		if len(agent.Ties()) == 0 {
			agent.SetTies(network[i])
		}
	}

	e.agents = agents
	e.market = market.NewModel(trendSeed.BasePrice, e.seed)
	e.producer = producerFactory(trendSeed.Headlines)
	log.Printf("Run %s: %d agents ready, base price %.2f, %d steps",
		e.runID, len(e.agents), trendSeed.BasePrice, e.cfg.TotalSteps())
	return nil
}

// resolvePersonas prefers custom agents from the config, cycling them to
// fill the population; otherwise it asks the provider.
func (e *Engine) resolvePersonas(provider persona.Provider) ([]core.PersonaTrait, error) {
	if len(e.cfg.CustomAgents) > 0 {
		personas := make([]core.PersonaTrait, 0, e.cfg.AgentCount)
		for i := 0; i < e.cfg.AgentCount; i++ {
			trait := e.cfg.CustomAgents[i%len(e.cfg.CustomAgents)]
			personas = append(personas, persona.Normalize(trait, i))
		}
		return personas, nil
	}

	personas, err := provider.Generate(e.cfg.AgentCount, e.topic)
	if err != nil {
		// Providers are expected to fall back internally; a hard failure
		// here still must not kill the run.
		e.Note("persona source failed (%v), using synthetic personas", err)
		fallback := &persona.Synthetic{Seed: e.seed}
		personas, _ = fallback.Generate(e.cfg.AgentCount, e.topic)
	}
	if len(personas) != e.cfg.AgentCount {
		return nil, fmt.Errorf("persona provider returned %d personas, want %d", len(personas), e.cfg.AgentCount)
	}
	return personas, nil
}

// StepResult summarizes one executed step for event publishing.
type StepResult struct {
	Day       int
	Step      int
	Timestamp time.Time
	Price     float64
	Sentiment float64
	Posts     int
}

// StepTime derives the deterministic timestamp of a global step index.
func StepTime(step int) time.Time {
	return core.SimulationEpoch.Add(time.Duration(step) * time.Hour)
}

// ExecuteStep evaluates every agent in ascending id order, updates the
// market once from the step's aggregate sentiment, and appends the market
// record. Log ordering (day, step, agent id) follows from the evaluation
// order.
func (e *Engine) ExecuteStep(step int) StepResult {
	day := step/core.StepsPerDay + 1
	stepOfDay := step % core.StepsPerDay
	ts := StepTime(step)

	mc := e.market.Context(day, stepOfDay, e.recentPeerActions())

	var stepSentiment float64
	posts := 0
	for _, agent := range e.agents {
		decision := agent.Evaluate(mc)
		if !decision.Post {
			continue
		}

		content := e.producer.Produce(agent.ContentSeed(e.seed, step), decision.Sentiment, e.topic)
		e.log = append(e.log, core.ActionLogEntry{
			AgentID:    agent.ID,
			Day:        day,
			Step:       stepOfDay,
			Timestamp:  ts,
			ActionType: core.ActionPost,
			Content:    content,
			Sentiment:  decision.Sentiment,
		})
		stepSentiment += decision.Sentiment
		posts++
	}

	if posts > 0 {
		stepSentiment /= float64(posts)
	}

	price := e.market.Advance(stepSentiment)
	e.prices = append(e.prices, e.market.Record(day, stepOfDay, ts))

	return StepResult{
		Day:       day,
		Step:      step,
		Timestamp: ts,
		Price:     price,
		Sentiment: stepSentiment,
		Posts:     posts,
	}
}

// recentPeerActions maps the log tail into the peer-action view the social
// stage samples from.
func (e *Engine) recentPeerActions() []behavior.PeerAction {
	start := len(e.log) - recentActionWindow
	if start < 0 {
		start = 0
	}
	tail := e.log[start:]
	actions := make([]behavior.PeerAction, 0, len(tail))
	for _, entry := range tail {
		actions = append(actions, behavior.PeerAction{AgentID: entry.AgentID, Sentiment: entry.Sentiment})
	}
	return actions
}

// Log returns the run log. The slice is owned by the engine; callers copy
// before sharing.
func (e *Engine) Log() []core.ActionLogEntry { return e.log }

// Prices returns the per-step market series.
func (e *Engine) Prices() []core.MarketState { return e.prices }

// Notes returns setup observations.
func (e *Engine) Notes() []string { return e.notes }

// CurrentPrice returns the market's latest price.
func (e *Engine) CurrentPrice() float64 { return e.market.Price() }
