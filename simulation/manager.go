package simulation

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kalsim-labs/kalsim/ai"
	"github.com/kalsim-labs/kalsim/communication"
	"github.com/kalsim-labs/kalsim/core"
	"github.com/kalsim-labs/kalsim/market"
	"github.com/kalsim-labs/kalsim/persona"
	"github.com/kalsim-labs/kalsim/results"
	"github.com/kalsim-labs/kalsim/storage"
)

const (
	maxAgentCount = 1000
	maxDayCount   = 30
	recentLogSize = 5
)

// Options configures the collaborators a Manager hands to each run.
// Every field is optional; zero values degrade to deterministic local
// behavior.
type Options struct {
	Store         storage.ArtifactStore
	TrendFetcher  market.TrendFetcher
	PersonaSource persona.Fetcher
	ResearchOptIn bool
	OpenAIKey     string
}

// Manager owns the run lifecycle. At most one run executes at a time;
// starting while one is active fails fast instead of queueing.
type Manager struct {
	mu     sync.Mutex
	active *runHandle
	opts   Options
}

// runHandle tracks one run from start to terminal status. The snapshot
// pointer is replaced atomically so state() never observes a half-written
// update and never blocks the step loop.
type runHandle struct {
	runID     string
	cfg       core.SimulationConfig
	startedAt time.Time

	snapshot atomic.Pointer[core.RunSnapshot]
	artifact atomic.Pointer[core.RunArtifact]

	stopOnce sync.Once
	cancel   chan struct{}
	done     chan struct{}
}

func (h *runHandle) running() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

func (h *runHandle) requestStop() {
	h.stopOnce.Do(func() { close(h.cancel) })
}

// NewManager builds a manager around the given collaborators.
func NewManager(opts Options) *Manager {
	return &Manager{opts: opts}
}

// validateConfig enforces request bounds before any state changes.
func validateConfig(cfg core.SimulationConfig) error {
	if cfg.AgentCount < 1 || cfg.AgentCount > maxAgentCount {
		return &core.ConfigValidationError{Field: "agent_count", Reason: "must be between 1 and 1000"}
	}
	if cfg.DayCount < 1 || cfg.DayCount > maxDayCount {
		return &core.ConfigValidationError{Field: "day_count", Reason: "must be between 1 and 30"}
	}
	return nil
}

// Start validates the config, claims the single run slot, and launches the
// background worker. It returns the run id immediately; progress is
// observed through State.
func (m *Manager) Start(cfg core.SimulationConfig) (string, error) {
	if err := validateConfig(cfg); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil && m.active.running() {
		return "", core.ErrRunConflict
	}

	handle := &runHandle{
		runID:     uuid.New().String(),
		cfg:       cfg,
		startedAt: time.Now().UTC(),
		cancel:    make(chan struct{}),
		done:      make(chan struct{}),
	}
	handle.snapshot.Store(&core.RunSnapshot{
		RunID:      handle.runID,
		IsRunning:  true,
		Status:     core.StatusRunning,
		TotalSteps: cfg.TotalSteps(),
		CurrentDay: 1,
	})
	m.active = handle

	go m.run(handle)
	return handle.runID, nil
}

// Stop requests a cooperative stop at the next step boundary. It reports
// whether a run was actually running to receive the request.
func (m *Manager) Stop() bool {
	m.mu.Lock()
	handle := m.active
	m.mu.Unlock()

	if handle == nil || !handle.running() {
		return false
	}
	handle.requestStop()
	return true
}

// State returns the latest snapshot without blocking the step loop.
func (m *Manager) State() core.RunSnapshot {
	m.mu.Lock()
	handle := m.active
	m.mu.Unlock()

	if handle == nil {
		return core.RunSnapshot{Status: core.StatusIdle}
	}
	return *handle.snapshot.Load()
}

// Results returns the aggregate summary and chart of the most recent
// finished run. A run that is still executing does not count; with no
// finished run in memory the persisted latest artifact is consulted.
func (m *Manager) Results() (core.RunArtifact, error) {
	m.mu.Lock()
	handle := m.active
	m.mu.Unlock()

	if handle != nil {
		if artifact := handle.artifact.Load(); artifact != nil {
			return *artifact, nil
		}
	}
	if m.opts.Store != nil {
		return m.opts.Store.LoadLatestArtifact()
	}
	return core.RunArtifact{}, core.ErrNoResults
}

// WaitForCompletion blocks until the active run reaches a terminal status.
// Intended for tests and CLI callers; the HTTP surface never waits.
func (m *Manager) WaitForCompletion() {
	m.mu.Lock()
	handle := m.active
	m.mu.Unlock()
	if handle != nil {
		<-handle.done
	}
}

// run is the background worker for one run. Any panic in setup or the step
// loop is captured as a FAILED terminal status rather than crashing the
// process.
func (m *Manager) run(handle *runHandle) {
	defer close(handle.done)

	engine := NewEngine(handle.runID, handle.cfg)

	defer func() {
		if r := recover(); r != nil {
			stepErr := &core.StepExecutionError{Step: len(engine.Prices()), Err: fmt.Errorf("%v", r)}
			log.Printf("Simulation run %s panicked: %v", handle.runID, stepErr)
			m.finish(handle, engine, core.StatusFailed, stepErr.Error())
		}
	}()

	if err := engine.Setup(m.personaProvider(handle.cfg), m.opts.TrendFetcher, m.producerFactory(handle.cfg)); err != nil {
		log.Printf("Simulation run %s setup failed: %v", handle.runID, err)
		m.finish(handle, engine, core.StatusFailed, err.Error())
		return
	}

	communication.PublishRun(communication.SubjectRunStarted, communication.RunEvent{RunID: handle.runID, Status: core.StatusRunning})
	communication.BroadcastEvent(communication.EventRunStarted, map[string]interface{}{
		"run_id":      handle.runID,
		"total_steps": handle.cfg.TotalSteps(),
	})

	total := handle.cfg.TotalSteps()
	for step := 0; step < total; step++ {
		select {
		case <-handle.cancel:
			m.finish(handle, engine, core.StatusStopped, "")
			return
		default:
		}

		result := engine.ExecuteStep(step)
		m.publishStepState(handle, engine, result, step+1, total)
	}

	m.finish(handle, engine, core.StatusCompleted, "")
}

// publishStepState refreshes the snapshot after a step and emits step events.
func (m *Manager) publishStepState(handle *runHandle, engine *Engine, result StepResult, completed, total int) {
	handle.snapshot.Store(m.snapshotAt(handle, engine, core.StatusRunning, "", completed, total))

	communication.PublishStep(communication.StepEvent{
		RunID:     handle.runID,
		Day:       result.Day,
		Step:      result.Step,
		Price:     result.Price,
		Sentiment: result.Sentiment,
		Posts:     result.Posts,
	})
	communication.BroadcastEvent(communication.EventStepCompleted, map[string]interface{}{
		"run_id": handle.runID,
		"day":    result.Day,
		"step":   result.Step,
		"price":  result.Price,
		"posts":  result.Posts,
	})

	logEntries := engine.Log()
	for _, entry := range logEntries[len(logEntries)-result.Posts:] {
		communication.BroadcastEvent(communication.EventAgentPosted, map[string]interface{}{
			"run_id":    handle.runID,
			"agent_id":  entry.AgentID,
			"content":   entry.Content,
			"sentiment": entry.Sentiment,
		})
	}
}

// snapshotAt builds a fresh immutable snapshot. Slices are copied so
// concurrent readers never alias engine-owned memory.
func (m *Manager) snapshotAt(handle *runHandle, engine *Engine, status core.RunStatus, runErr string, completed, total int) *core.RunSnapshot {
	logEntries := engine.Log()
	start := len(logEntries) - recentLogSize
	if start < 0 {
		start = 0
	}
	recent := make([]core.ActionLogEntry, len(logEntries)-start)
	copy(recent, logEntries[start:])

	notes := make([]string, len(engine.Notes()))
	copy(notes, engine.Notes())

	progress := 0.0
	if total > 0 {
		progress = float64(completed) / float64(total) * 100
	}
	day := (completed-1)/core.StepsPerDay + 1
	if completed == 0 {
		day = 1
	}
	if day > handle.cfg.DayCount {
		day = handle.cfg.DayCount
	}

	price := 0.0
	if engine.market != nil {
		price = engine.CurrentPrice()
	}

	return &core.RunSnapshot{
		RunID:        handle.runID,
		IsRunning:    status == core.StatusRunning,
		Status:       status,
		CurrentStep:  completed,
		TotalSteps:   total,
		ProgressPct:  progress,
		CurrentPrice: price,
		CurrentDay:   day,
		RunError:     runErr,
		Notes:        notes,
		RecentLogs:   recent,
	}
}

// finish moves the run to a terminal status, aggregates results for
// COMPLETED and STOPPED runs, persists the artifact, and emits terminal
// events. FAILED runs keep no results.
func (m *Manager) finish(handle *runHandle, engine *Engine, status core.RunStatus, runErr string) {
	completed := len(engine.Prices())
	total := handle.cfg.TotalSteps()
	handle.snapshot.Store(m.snapshotAt(handle, engine, status, runErr, completed, total))

	if status == core.StatusCompleted || status == core.StatusStopped {
		logCopy := make([]core.ActionLogEntry, len(engine.Log()))
		copy(logCopy, engine.Log())
		results.SortLog(logCopy)

		prices := make([]core.MarketState, len(engine.Prices()))
		copy(prices, engine.Prices())

		summary, chart := results.Aggregate(logCopy, prices)
		now := time.Now().UTC()
		artifact := core.RunArtifact{
			RunID:      handle.runID,
			Config:     handle.cfg,
			Status:     status,
			StartedAt:  handle.startedAt,
			FinishedAt: now,
			Log:        logCopy,
			Prices:     prices,
			Summary:    summary,
			ChartData:  chart,
		}
		handle.artifact.Store(&artifact)

		if m.opts.Store != nil {
			if err := m.opts.Store.SaveRunArtifact(artifact); err != nil {
				log.Printf("Failed to persist artifact for run %s: %v", handle.runID, err)
			}
		}
	}

	communication.PublishRun(communication.SubjectRunFinished, communication.RunEvent{RunID: handle.runID, Status: status, Error: runErr})
	event := communication.EventRunFinished
	if status == core.StatusFailed {
		event = communication.EventRunFailed
	}
	communication.BroadcastEvent(event, map[string]interface{}{
		"run_id": handle.runID,
		"status": string(status),
		"error":  runErr,
	})
}

// personaProvider picks the persona source for a run. Mock runs always use
// the synthetic generator; otherwise an external fetcher is consulted when
// research mode opted in, with synthetic fallback handled inside.
func (m *Manager) personaProvider(cfg core.SimulationConfig) persona.Provider {
	synthetic := &persona.Synthetic{Seed: cfg.Seed()}
	if cfg.MockMode || m.opts.PersonaSource == nil {
		return synthetic
	}
	return &persona.External{
		Fetcher:  m.opts.PersonaSource,
		OptIn:    m.opts.ResearchOptIn,
		Fallback: synthetic,
	}
}

// producerFactory binds content generation to the run's mode. Mock runs are
// fully templated; otherwise the LLM producer is used when a key is
// configured, degrading to templates per call on error.
func (m *Manager) producerFactory(cfg core.SimulationConfig) func(headlines []string) ai.Producer {
	return func(headlines []string) ai.Producer {
		template := &ai.TemplateProducer{Headlines: headlines}
		if cfg.MockMode || m.opts.OpenAIKey == "" {
			return template
		}
		if llm := ai.NewOpenAIProducer(m.opts.OpenAIKey, template); llm != nil {
			return llm
		}
		return template
	}
}
