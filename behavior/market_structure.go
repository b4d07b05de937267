package behavior

import "github.com/kalsim-labs/kalsim/core"

// Stage 7: market structure. Exposes the short-horizon trend as an urgency
// signal and resolves the step's willingness-to-act from belief confidence
// and emotional intensity. Agents post only when willingness clears their
// persona threshold.

const (
	confidenceWeight = 0.45
	intensityWeight  = 0.35
	urgencyWeight    = 0.20
)

func trendUrgency(t Trend) float64 {
	switch t {
	case TrendSurging:
		return 0.9
	case TrendCrashing:
		return 1.0
	case TrendRising:
		return 0.5
	case TrendFalling:
		return 0.6
	default:
		return 0.1
	}
}

// MarketStructure computes the willingness-to-act score and the resulting
// post decision. Sentiment blends belief direction with emotional valence.
func MarketStructure(st State, mc MarketContext, p core.LayerParams) (State, Decision) {
	confidence := clamp((st.Belief-0.5)*2, -1, 1)
	if confidence < 0 {
		confidence = -confidence
	}

	willingness := confidenceWeight*confidence +
		intensityWeight*st.Emotion.Intensity +
		urgencyWeight*trendUrgency(mc.Trend)

	sentiment := clamp(0.6*(st.Belief-0.5)*2+0.4*st.Emotion.Valence, -1, 1)

	return st, Decision{
		Post:        willingness > p.PostThreshold,
		Willingness: willingness,
		Sentiment:   sentiment,
	}
}
