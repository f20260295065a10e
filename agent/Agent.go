// Package agent defines the interface of self-triggered control agents
// and a registry of agent configurations so that agents can be created
// from JSON configuration files.
package agent

import (
	"gonum.org/v1/gonum/mat"
)

// Agent implements a self-triggered control agent which interacts with
// an environment through Forward and Backward.
//
// Each decision step, Forward is called with the current observation
// and returns the output of the agent, laid out as
// [action..., interval]. The environment then holds the action for
// interval units of time, after which Backward is called with the
// reward and terminal flag of the resulting transition. Backward is
// where an Agent learns.
type Agent interface {
	Forward(observation mat.Vector) (*mat.VecDense, error)

	// Backward records the outcome of the last output and possibly
	// takes a training step. The returned metrics are ordered as
	// MetricsNames() and are NaN if no learning took place.
	Backward(reward float64, terminal bool) ([]float64, error)
	MetricsNames() []string

	// ResetStates clears the per-episode state of the agent. If
	// resetStep is true the step counter is reset as well.
	ResetStates(resetStep bool)

	// Step returns the number of calls to Backward since construction
	// or since the step counter was last reset
	Step() int

	Eval()        // Set agent to evaluation mode
	Train()       // Set agent to training mode
	IsEval() bool // Indicates if in evaluation mode

	SaveWeights(path string) error
	LoadWeights(path string) error
}

// Closer is an agent that must be closed after it is done learning
type Closer interface {
	Agent
	Close() error
}
