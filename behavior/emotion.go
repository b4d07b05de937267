package behavior

import "math"

// Stage 3: emotion. Valence and arousal are combined into a single
// emotional-intensity scalar and a dominant-emotion label from the
// valence/arousal quadrant.

// ClassifyEmotion maps a valence/arousal pair onto a dominant emotion label.
func ClassifyEmotion(valence, arousal float64) string {
	high := arousal > 0.6
	switch {
	case valence > 0.2 && high:
		return "excitement"
	case valence > 0.2:
		return "contentment"
	case valence < -0.2 && high:
		return "fear"
	case valence < -0.2:
		return "sadness"
	case high:
		return "alertness"
	default:
		return "calm"
	}
}

// EmotionIntensity combines valence magnitude and arousal displacement into
// a 0..1 scalar.
func EmotionIntensity(valence, arousal float64) float64 {
	return clamp(math.Hypot(valence, 2*(arousal-0.5))/math.Sqrt2, 0, 1)
}

// Emotion resolves intensity and the dominant emotion from the current
// valence/arousal pair.
func Emotion(st State) State {
	em := st.Emotion
	em.Intensity = EmotionIntensity(em.Valence, em.Arousal)
	em.Dominant = ClassifyEmotion(em.Valence, em.Arousal)
	st.Emotion = em
	return st
}
