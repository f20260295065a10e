package pendulum

import (
	"math"

	"github.com/samuelfneumann/selftrigger/environment"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// Stabilise implements a task where the agent must hold the pendulum
// upright with little effort. The reward for holding a torque is the
// negative quadratic cost
//
//	-(θ² + 0.1θ̇² + 0.01u²)
//
// of the state the torque was chosen in, plus IntervalReward times the
// interval it was held for.
type Stabilise struct {
	environment.Starter
	environment.Ender
	IntervalReward float64
}

// NewStabilise creates and returns a new Stabilise task
func NewStabilise(s environment.Starter, e environment.Ender,
	intervalReward float64) *Stabilise {
	return &Stabilise{s, e, intervalReward}
}

// NewDefaultStarter returns a Starter sampling angles uniformly in
// [-π, π] and angular velocities uniformly in [-2π, 2π]
func NewDefaultStarter(seed uint64) environment.UniformStarter {
	angle := r1.Interval{Min: -AngleBound, Max: AngleBound}
	speed := r1.Interval{Min: -SpeedBound, Max: SpeedBound}
	return environment.NewUniformStarter([]r1.Interval{angle, speed}, seed)
}

// GetReward returns the reward of holding control for interval in state
func (s *Stabilise) GetReward(state, control mat.Vector, interval float64,
	_ mat.Vector) float64 {
	th := normalizeAngle(state.AtVec(0))
	thdot := state.AtVec(1)
	u := control.AtVec(0)

	cost := th*th + 0.1*thdot*thdot + 0.01*u*u
	return -cost + s.IntervalReward*interval
}

// RewardSpec returns the reward specification of the Task
func (s *Stabilise) RewardSpec() environment.Spec {
	maxCost := math.Pow(AngleBound, 2) + 0.1*math.Pow(SpeedBound, 2) +
		0.01*math.Pow(TorqueBound, 2)
	return environment.NewBoundedSpec(environment.Reward,
		[]float64{-maxCost}, []float64{s.IntervalReward * MaxInterval})
}
