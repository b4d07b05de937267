package behavior

import (
	"math/rand"

	"github.com/kalsim-labs/kalsim/core"
)

// Stage 4: social interaction. The agent samples a bounded subset of its
// network neighbors' recent actions and folds the tie-strength-weighted peer
// sentiment into belief and valence. The sample bound keeps per-step cost
// independent of population size.

// MaxNeighborSample bounds how many neighbors one agent observes per step.
const MaxNeighborSample = 8

// SampleNeighborActions picks up to MaxNeighborSample of the agent's ties
// that have a recent action, using the agent's own random stream.
func SampleNeighborActions(rng *rand.Rand, ties []core.AgentTie, recent []PeerAction) ([]PeerAction, []float64) {
	byAgent := make(map[int]PeerAction, len(recent))
	for _, a := range recent {
		byAgent[a.AgentID] = a // last action wins
	}

	var actions []PeerAction
	var strengths []float64
	for _, t := range ties {
		if a, ok := byAgent[t.AgentID]; ok {
			actions = append(actions, a)
			strengths = append(strengths, t.Strength)
		}
	}

	if len(actions) <= MaxNeighborSample {
		return actions, strengths
	}

	idx := rng.Perm(len(actions))[:MaxNeighborSample]
	sampledActions := make([]PeerAction, 0, MaxNeighborSample)
	sampledStrengths := make([]float64, 0, MaxNeighborSample)
	for _, i := range idx {
		sampledActions = append(sampledActions, actions[i])
		sampledStrengths = append(sampledStrengths, strengths[i])
	}
	return sampledActions, sampledStrengths
}

// SocialInteraction applies emotion contagion from sampled peers. The raw
// social signal is recorded on the state; the identity stage decides how
// strongly it moves belief.
func SocialInteraction(st State, mc MarketContext, p core.LayerParams, ties []core.AgentTie, rng *rand.Rand) State {
	actions, strengths := SampleNeighborActions(rng, ties, mc.RecentActions)
	if len(actions) == 0 {
		st.PeerSentiment = 0
		st.SocialSignal = 0
		return st
	}

	var total, weighted float64
	for i, a := range actions {
		total += strengths[i]
		weighted += a.Sentiment * strengths[i]
	}
	if total == 0 {
		total = 1
	}
	peerSentiment := weighted / total
	avgStrength := total / float64(len(actions))

	// Contagion: valence moves toward the peer mood, modulated by
	// sociability and average tie strength.
	influence := p.Sociability * 0.5 * avgStrength
	em := st.Emotion
	em.Valence = clamp(em.Valence*(1-influence)+peerSentiment*influence, -1, 1)
	st.Emotion = em

	st.PeerSentiment = peerSentiment
	st.SocialSignal = influence * clamp(float64(len(actions))/MaxNeighborSample, 0, 1)
	return st
}
