package core

import (
	"errors"
	"fmt"
)

// ErrRunConflict is returned by Start while another run is RUNNING. The
// gate fails fast; callers are never queued.
var ErrRunConflict = errors.New("a simulation run is already in progress")

// ErrNoResults is returned when results are requested before any run has
// produced them.
var ErrNoResults = errors.New("no simulation results available")

// ConfigValidationError reports an out-of-bounds simulation config. It is
// surfaced synchronously by Start; no run object is created.
type ConfigValidationError struct {
	Field  string
	Reason string
}

func (e *ConfigValidationError) Error() string {
	return fmt.Sprintf("invalid config: %s %s", e.Field, e.Reason)
}

// PersonaValidationError reports a persona that is missing a required layer
// parameter. Agent construction fails with it, aborting the run before any
// step executes.
type PersonaValidationError struct {
	AgentID int
	Param   string
}

func (e *PersonaValidationError) Error() string {
	return fmt.Sprintf("persona for agent %d is missing layer parameter %q", e.AgentID, e.Param)
}

// StepExecutionError wraps an unexpected failure inside a step. It is fatal
// to the run only: the worker records it and transitions the run to FAILED.
type StepExecutionError struct {
	Step int
	Err  error
}

func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("step %d failed: %v", e.Step, e.Err)
}

func (e *StepExecutionError) Unwrap() error { return e.Err }
