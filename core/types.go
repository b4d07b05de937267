package core

import "time"

// StepsPerDay is the number of simulated time steps in one day (hourly steps).
const StepsPerDay = 24

// SimulationEpoch is the fixed wall-clock origin of every run. Step timestamps
// are derived from it so that identical runs produce identical logs.
var SimulationEpoch = time.Date(2021, 1, 11, 9, 0, 0, 0, time.UTC)

// RunStatus is the lifecycle state of a simulation run.
type RunStatus string

const (
	StatusIdle      RunStatus = "IDLE"
	StatusRunning   RunStatus = "RUNNING"
	StatusCompleted RunStatus = "COMPLETED"
	StatusStopped   RunStatus = "STOPPED"
	StatusFailed    RunStatus = "FAILED"
)

// ActionPost is the only action type that produces a log entry. Agents that
// abstain simply leave no trace for that step.
const ActionPost = "POST"

// Beliefs holds a persona's prior dispositions toward the market.
type Beliefs struct {
	RiskTolerance       string `json:"risk_tolerance"`
	MarketOutlook       string `json:"market_outlook"`
	TrustInInstitutions string `json:"trust_in_institutions"`
}

// Social holds a persona's social-graph attributes.
type Social struct {
	FollowerCount  int     `json:"follower_count"`
	InfluenceScore float64 `json:"influence_score"`
}

// LayerParams are the per-layer numeric parameters every agent requires.
// All values must be present; agent construction rejects a persona that
// leaves any of them unset.
type LayerParams struct {
	ArousalBaseline float64    `json:"arousal_baseline"` // (0,1]
	ValenceBaseline float64    `json:"valence_baseline"` // [-1,1]
	BiasCoefficient float64    `json:"bias_coefficient"` // (0,2], 1 = neutral reaction
	Sociability     float64    `json:"sociability"`      // (0,1]
	PostThreshold   float64    `json:"post_threshold"`   // (0,1]
	IdentityGroup   string     `json:"identity_group"`
	Ties            []AgentTie `json:"ties,omitempty"`
}

// AgentTie is a weighted link to another agent in the interaction network.
type AgentTie struct {
	AgentID  int     `json:"agent_id"`
	Strength float64 `json:"strength"`
}

// PersonaTrait is the normalized trait bundle parameterizing one agent.
// Both the synthetic generator and the external source emit this schema;
// raw free-text fields from external payloads never survive normalization.
type PersonaTrait struct {
	Name              string      `json:"name"`
	PersonalityTraits []string    `json:"personality_traits"`
	Interests         []string    `json:"interests"`
	Beliefs           Beliefs     `json:"beliefs"`
	Social            Social      `json:"social"`
	Layers            LayerParams `json:"layers"`
}

// ActionLogEntry records a single agent action. Entries are immutable once
// appended and ordered by (day, step, agent id).
type ActionLogEntry struct {
	AgentID    int       `json:"agent_id"`
	Day        int       `json:"day"`
	Step       int       `json:"step"`
	Timestamp  time.Time `json:"timestamp"`
	ActionType string    `json:"action_type"`
	Content    string    `json:"content"`
	Sentiment  float64   `json:"sentiment_score"`
}

// MarketState is the market record for one completed step.
type MarketState struct {
	Day                int       `json:"day"`
	Step               int       `json:"step"`
	Timestamp          time.Time `json:"timestamp"`
	Price              float64   `json:"price"`
	AggregateSentiment float64   `json:"aggregate_sentiment"`
}

// SimulationConfig is the validated request payload for starting a run.
type SimulationConfig struct {
	AgentCount   int            `json:"agent_count"`
	DayCount     int            `json:"day_count"`
	MockMode     bool           `json:"mock_mode"`
	MarketTopic  string         `json:"market_topic,omitempty"`
	RandomSeed   *int64         `json:"random_seed,omitempty"`
	CustomAgents []PersonaTrait `json:"custom_agents,omitempty"`
}

// TotalSteps is fixed at run creation.
func (c SimulationConfig) TotalSteps() int {
	return c.DayCount * StepsPerDay
}

// Seed returns the effective run seed. A run without an explicit seed still
// gets a fixed default so mock-mode runs stay reproducible.
func (c SimulationConfig) Seed() int64 {
	if c.RandomSeed != nil {
		return *c.RandomSeed
	}
	return 42
}

// RunSnapshot is the immutable status view exposed to pollers. The background
// worker replaces the whole snapshot atomically; readers never block on a
// step in flight.
type RunSnapshot struct {
	RunID        string           `json:"run_id"`
	IsRunning    bool             `json:"is_running"`
	Status       RunStatus        `json:"status"`
	CurrentStep  int              `json:"current_step"`
	TotalSteps   int              `json:"total_steps"`
	ProgressPct  float64          `json:"progress_pct"`
	CurrentPrice float64          `json:"current_price"`
	CurrentDay   int              `json:"current_day"`
	RunError     string           `json:"run_error,omitempty"`
	Notes        []string         `json:"notes,omitempty"`
	RecentLogs   []ActionLogEntry `json:"recent_logs"`
}

// ResultsSummary is the post-run aggregate over the full action log.
type ResultsSummary struct {
	TotalPosts            int            `json:"total_posts"`
	TotalActions          int            `json:"total_actions"`
	TimePeriods           int            `json:"time_periods"`
	AvgSentiment          float64        `json:"avg_sentiment"`
	ContentSentiment      float64        `json:"content_sentiment"`
	MaxSentiment          float64        `json:"max_sentiment"`
	MinSentiment          float64        `json:"min_sentiment"`
	PeakActivityTimestamp time.Time      `json:"peak_activity_timestamp"`
	KeywordTotals         map[string]int `json:"keyword_totals"`
}

// ChartPoint is one plotted step: aggregate sentiment next to market price.
type ChartPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Sentiment float64   `json:"sentiment_score"`
	Price     float64   `json:"market_price"`
}

// RunArtifact is the durable record persisted for a finished run. It must
// round-trip through storage: deserializing a saved artifact reproduces an
// equivalent ResultsSummary.
type RunArtifact struct {
	RunID      string           `json:"run_id"`
	Config     SimulationConfig `json:"config"`
	Status     RunStatus        `json:"status"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Log        []ActionLogEntry `json:"log"`
	Prices     []MarketState    `json:"prices"`
	Summary    ResultsSummary   `json:"summary"`
	ChartData  []ChartPoint     `json:"chart_data"`
}
