// Package expreplay implements experience replay memories which store
// the agent-environment interaction and sample batches of transitions
// from it.
package expreplay

import (
	"fmt"

	"github.com/samuelfneumann/selftrigger/timestep"
	"gonum.org/v1/gonum/mat"
)

// Memory stores the experience of an agent. Experience is appended one
// observation at a time together with the action taken, the reward
// received, and whether the episode ended after the action.
type Memory interface {
	// Append stores an observation, the action taken in it, and the
	// reward and terminal flag that followed. If training is false, the
	// observation is only remembered for RecentState and is never
	// sampled.
	Append(observation, action mat.Vector, reward float64, terminal,
		training bool) error

	// Sample returns batchSize transitions sampled uniformly with
	// replacement. An error satisfying IsInsufficientSamples is
	// returned when fewer than batchSize transitions are stored.
	Sample(batchSize int) ([]timestep.Transition, error)

	// RecentState returns the flattened window of the WindowLength()
	// most recent observations ending with observation.
	RecentState(observation mat.Vector) (*mat.VecDense, error)

	// Len returns the number of stored observations
	Len() int

	// Transitions returns the number of stored complete transitions
	Transitions() int

	WindowLength() int
}

// Config describes a Memory so that it can be stored in a
// configuration file.
type Config struct {
	Limit                   int // Maximum number of stored observations
	WindowLength            int
	IgnoreEpisodeBoundaries bool
}

// Validate returns an error describing whether the Config is invalid
func (c Config) Validate() error {
	if c.Limit < 2 {
		return fmt.Errorf("validate: limit must be at least 2, have(%v)",
			c.Limit)
	}
	if c.WindowLength < 1 {
		return fmt.Errorf("validate: window length must be positive, "+
			"have(%v)", c.WindowLength)
	}
	return nil
}

// Create returns the Memory described by the Config for observations
// with obsDims features and actions with actionDims features.
func (c Config) Create(obsDims, actionDims int, seed uint64) (Memory,
	error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("create: %v", err)
	}
	return NewSequential(c.Limit, c.WindowLength, obsDims, actionDims,
		c.IgnoreEpisodeBoundaries, seed)
}
