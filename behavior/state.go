package behavior

// EmotionState is the valence-arousal model of an agent's emotional state.
type EmotionState struct {
	Valence     float64 `json:"valence"` // -1..1
	Arousal     float64 `json:"arousal"` // 0..1
	Stress      float64 `json:"stress"`  // 0..1
	Habituation float64 `json:"habituation"`
	Intensity   float64 `json:"intensity"`
	Dominant    string  `json:"dominant_emotion"`
}

// State is the mutable internal state threaded through the seven stages.
// Stages are pure: each takes a State by value and returns the updated copy.
type State struct {
	Belief  float64      `json:"belief"` // 0..1 bullishness toward the topic
	Emotion EmotionState `json:"emotion"`

	// Intermediate social signal written by the social-interaction stage and
	// consumed by the identity stage within the same pipeline pass.
	PeerSentiment float64 `json:"-"`
	SocialSignal  float64 `json:"-"`
}

// Trend buckets a short-horizon price movement.
type Trend string

const (
	TrendSurging  Trend = "surging"
	TrendRising   Trend = "rising"
	TrendStable   Trend = "stable"
	TrendFalling  Trend = "falling"
	TrendCrashing Trend = "crashing"
)

// PeerAction is a neighbor's recent observable action.
type PeerAction struct {
	AgentID   int
	Sentiment float64
}

// MarketContext is the read-only market and social environment an agent
// observes during one step.
type MarketContext struct {
	Day                int
	Step               int
	Price              float64
	PrevPrice          float64
	ChangePct          float64
	Trend              Trend
	CommunitySentiment float64

	// RecentActions is the tail of the run log, used by the social stage to
	// sample peer sentiment. Keyed lookup happens against the agent's ties.
	RecentActions []PeerAction
}

// Decision is the outcome of the market-structure stage.
type Decision struct {
	Post        bool
	Willingness float64
	Sentiment   float64
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
