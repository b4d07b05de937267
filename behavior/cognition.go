package behavior

import (
	"math"

	"github.com/kalsim-labs/kalsim/core"
)

// Stage 2: cognition. Belief is pulled toward the observed price movement,
// scaled by the persona bias coefficient: coefficients above 1 over-react,
// below 1 under-react. Habituation blunts the adjustment.

const beliefLearningRate = 0.3

// Cognition adjusts belief toward the direction implied by the price change.
func Cognition(st State, mc MarketContext, p core.LayerParams) State {
	// Map the percentage move onto a bounded belief target around 0.5.
	target := 0.5 + 0.5*math.Tanh(mc.ChangePct/5)

	adjust := (target - st.Belief) * beliefLearningRate * p.BiasCoefficient
	adjust *= 1 - 0.5*st.Emotion.Habituation

	st.Belief = clamp(st.Belief+adjust, 0, 1)
	return st
}
