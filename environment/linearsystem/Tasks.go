package linearsystem

import (
	"github.com/samuelfneumann/selftrigger/environment"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// Regulate implements a task where the agent must drive the state of
// the system to the origin with little control effort. The reward for
// holding a control is the negative quadratic cost
//
//	-(0.1‖x‖² + 0.01u²)
//
// of the state the control was chosen in, plus IntervalReward times
// the interval it was held for, which rewards triggering rarely.
type Regulate struct {
	environment.Starter
	environment.Ender
	IntervalReward float64
}

// NewRegulate creates and returns a new Regulate task
func NewRegulate(s environment.Starter, e environment.Ender,
	intervalReward float64) *Regulate {
	return &Regulate{s, e, intervalReward}
}

// NewDefaultStarter returns a Starter sampling states uniformly over
// the whole state space
func NewDefaultStarter(seed uint64) environment.UniformStarter {
	bounds := r1.Interval{Min: -StateBound, Max: StateBound}
	return environment.NewUniformStarter([]r1.Interval{bounds, bounds}, seed)
}

// GetReward returns the reward of holding control for interval in state
func (r *Regulate) GetReward(state, control mat.Vector, interval float64,
	_ mat.Vector) float64 {
	x := mat.Dot(state, state)
	u := mat.Dot(control, control)
	return -(0.1*x + 0.01*u) + r.IntervalReward*interval
}

// RewardSpec returns the reward specification of the Task
func (r *Regulate) RewardSpec() environment.Spec {
	maxCost := 0.1*2*StateBound*StateBound + 0.01*ControlBound*ControlBound
	return environment.NewBoundedSpec(environment.Reward,
		[]float64{-maxCost}, []float64{r.IntervalReward * MaxInterval})
}
