package behavior

import (
	"math"

	"github.com/kalsim-labs/kalsim/core"
)

// Stage 1: neurobiology. Baseline arousal and valence drift back toward the
// persona baseline with elapsed time, then respond to the magnitude of the
// most recent market shock. Habituation dampens repeated positive stimuli.

const (
	neuroDecayRate     = 0.1
	habituationStep    = 0.05
	habituationCeiling = 0.8
	habituationRelax   = 0.02
)

func trendArousalBoost(t Trend) float64 {
	switch t {
	case TrendSurging:
		return 0.3
	case TrendRising:
		return 0.15
	case TrendCrashing:
		return 0.4
	case TrendFalling:
		return 0.2
	default:
		return 0
	}
}

// Neurobiology updates arousal, valence, stress and habituation from the
// market shock observed this step.
func Neurobiology(st State, mc MarketContext, p core.LayerParams) State {
	em := st.Emotion
	decay := math.Exp(-neuroDecayRate)

	// Drift toward the persona baseline.
	em.Arousal = p.ArousalBaseline + (em.Arousal-p.ArousalBaseline)*decay
	em.Valence = p.ValenceBaseline + (em.Valence-p.ValenceBaseline)*decay
	em.Stress *= 1 - 0.15

	shock := math.Min(math.Abs(mc.ChangePct)/50, 1.0)
	em.Arousal = clamp(em.Arousal+shock*0.4+trendArousalBoost(mc.Trend)*shock, 0, 1)

	direction := 0.0
	if mc.ChangePct > 0 {
		direction = 1
	} else if mc.ChangePct < 0 {
		direction = -1
	}
	em.Valence = clamp(em.Valence+direction*shock*0.3*(1-em.Habituation), -1, 1)

	if mc.ChangePct < 0 {
		em.Stress = clamp(em.Stress+math.Abs(mc.ChangePct)/100*0.4+trendArousalBoost(mc.Trend)*0.5, 0, 1)
	}

	if direction > 0 && shock > 0 {
		em.Habituation = math.Min(em.Habituation+habituationStep, habituationCeiling)
	} else {
		em.Habituation = math.Max(em.Habituation-habituationRelax, 0)
	}

	st.Emotion = em
	return st
}
