// Package environment outlines the interfaces and structs needed to
// implement self-triggered control environments. In a self-triggered
// environment the agent chooses both an action and the interval of
// simulated time over which the action is held before the next
// decision is made.
package environment

import (
	"github.com/samuelfneumann/selftrigger/timestep"
	"gonum.org/v1/gonum/mat"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when episodes end
type Ender interface {
	// End returns whether the episode should end at the argument
	// timestep, adjusting its StepType if so
	End(*timestep.TimeStep) bool
}

// Task implements the reward scheme for taking actions in some
// environment
type Task interface {
	Starter
	Ender

	// GetReward returns the reward of holding control over interval
	// starting in state and ending in nextState
	GetReward(state, control mat.Vector, interval float64,
		nextState mat.Vector) float64

	RewardSpec() Spec
}

// Environment implements a simulated self-triggered environment, which
// includes a Task to complete. Actions given to Step are laid out as
// [control..., interval].
type Environment interface {
	Task

	// Reset resets the environment between episodes
	Reset() (timestep.TimeStep, error)

	Step(action *mat.VecDense) (timestep.TimeStep, bool, error)

	LastTimeStep() timestep.TimeStep

	// ActionSpec describes the control components and the interval
	ActionSpec() Spec
	ObservationSpec() Spec
	DiscountSpec() Spec
}
