package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Transition is a single transition sampled from experience replay.
// Action holds the control action followed by the trigger interval
// that was in effect while moving from State0 to State1.
//
// Transitions are values: NewTransition copies its vectors, and no
// method of Transition modifies it.
type Transition struct {
	State0    *mat.VecDense
	Action    *mat.VecDense
	Reward    float64
	State1    *mat.VecDense
	Terminal1 bool
}

// NewTransition returns a new Transition holding copies of the
// argument vectors
func NewTransition(state0, action mat.Vector, reward float64,
	state1 mat.Vector, terminal1 bool) Transition {
	return Transition{
		State0:    mat.VecDenseCopyOf(state0),
		Action:    mat.VecDenseCopyOf(action),
		Reward:    reward,
		State1:    mat.VecDenseCopyOf(state1),
		Terminal1: terminal1,
	}
}

// Interval returns the trigger interval of the transition's action
func (t Transition) Interval() float64 {
	return t.Action.AtVec(t.Action.Len() - 1)
}

// Control returns the control part of the transition's action
func (t Transition) Control() mat.Vector {
	return t.Action.SliceVec(0, t.Action.Len()-1)
}

func (t Transition) String() string {
	return fmt.Sprintf("Transition | State0: %v  |  Action: %v  |  "+
		"Reward: %.3f  |  State1: %v  |  Terminal1: %v",
		mat.Formatted(t.State0.T()), mat.Formatted(t.Action.T()), t.Reward,
		mat.Formatted(t.State1.T()), t.Terminal1)
}
