package behavior

import (
	"math/rand"

	"github.com/kalsim-labs/kalsim/core"
)

// Agent is one simulation participant: immutable persona traits, mutable
// internal state, and a private random stream derived from the run seed.
// Agents are created at run start and discarded at run end.
type Agent struct {
	ID     int
	Traits core.PersonaTrait
	State  State

	ties []core.AgentTie
	rng  *rand.Rand
}

// agentSeed derives a per-agent stream from the global run seed. Identical
// (seed, id) pairs always yield identical streams.
func agentSeed(runSeed int64, id int) int64 {
	return int64(uint64(runSeed) ^ (uint64(id)+1)*0x9E3779B97F4A7C15)
}

// NewAgent validates the persona's layer parameters and constructs the agent.
// A persona missing a required parameter fails construction; the orchestrator
// aborts the run before any step executes.
func NewAgent(id int, trait core.PersonaTrait, runSeed int64) (*Agent, error) {
	p := trait.Layers
	switch {
	case p.ArousalBaseline <= 0 || p.ArousalBaseline > 1:
		return nil, &core.PersonaValidationError{AgentID: id, Param: "arousal_baseline"}
	case p.ValenceBaseline < -1 || p.ValenceBaseline > 1:
		return nil, &core.PersonaValidationError{AgentID: id, Param: "valence_baseline"}
	case p.BiasCoefficient <= 0 || p.BiasCoefficient > 2:
		return nil, &core.PersonaValidationError{AgentID: id, Param: "bias_coefficient"}
	case p.Sociability <= 0 || p.Sociability > 1:
		return nil, &core.PersonaValidationError{AgentID: id, Param: "sociability"}
	case p.PostThreshold <= 0 || p.PostThreshold > 1:
		return nil, &core.PersonaValidationError{AgentID: id, Param: "post_threshold"}
	case p.IdentityGroup == "":
		return nil, &core.PersonaValidationError{AgentID: id, Param: "identity_group"}
	}

	return &Agent{
		ID:     id,
		Traits: trait,
		State: State{
			Belief: 0.5,
			Emotion: EmotionState{
				Valence: p.ValenceBaseline,
				Arousal: p.ArousalBaseline,
			},
		},
		ties: p.Ties,
		rng:  rand.New(rand.NewSource(agentSeed(runSeed, id))),
	}, nil
}

// SetTies installs the run-level adjacency for this agent. Used when the
// persona itself carries no tie list.
func (a *Agent) SetTies(ties []core.AgentTie) {
	a.ties = ties
}

// Ties returns the agent's tie list.
func (a *Agent) Ties() []core.AgentTie {
	return a.ties
}

// Evaluate runs the seven-stage pipeline for one step and returns the
// decision. The agent's internal state is replaced with the updated one.
// The stage order is fixed; all randomness comes from the agent's stream.
func (a *Agent) Evaluate(mc MarketContext) Decision {
	st := a.State

	st = Neurobiology(st, mc, a.Traits.Layers)
	st = Cognition(st, mc, a.Traits.Layers)
	st = Emotion(st)
	st = SocialInteraction(st, mc, a.Traits.Layers, a.ties, a.rng)
	st = Identity(st, a.Traits.Layers)
	// Stage 6 (network structure) contributes the adjacency consumed above;
	// the topology itself is fixed at run start by BuildNetwork.
	st, decision := MarketStructure(st, mc, a.Traits.Layers)

	a.State = st
	return decision
}

// ContentSeed derives a deterministic seed for content generation at a
// given step, so generated text is reproducible per (run, agent, step).
func (a *Agent) ContentSeed(runSeed int64, step int) int64 {
	return agentSeed(runSeed, a.ID) ^ (int64(step)+1)*0x517CC1B727220A95
}
