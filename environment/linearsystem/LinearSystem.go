// Package linearsystem implements a two dimensional stochastic linear
// system under self-triggered control
package linearsystem

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/selftrigger/environment"
	"github.com/samuelfneumann/selftrigger/timestep"
	"github.com/samuelfneumann/selftrigger/utils/floatutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	StateBound      float64 = 7.0  // +/- bounds of each state feature
	ControlBound    float64 = 10.0 // +/- bounds of the control
	ObservationDims int     = 2
	ControlDims     int     = 1

	MinInterval float64 = 0.01
	MaxInterval float64 = 10.0
)

// Drift returns the drift matrix A of ẋ = Ax + Bu
func Drift() *mat.Dense {
	return mat.NewDense(2, 2, []float64{
		-1, 4,
		2, -3,
	})
}

// Input returns the input vector B of ẋ = Ax + Bu
func Input() *mat.VecDense {
	return mat.NewVecDense(2, []float64{2, 4})
}

// Diffusion returns the scale of the Wiener process noise added to
// each state feature
func Diffusion() *mat.VecDense {
	return mat.NewVecDense(2, []float64{0.6, 0.3})
}

// LinearSystem implements the stochastic linear system
//
//	dx = (Ax + Bu)dt + D dW
//
// discretised with a forward Euler step over the trigger interval
// chosen by the agent, so that holding control u for interval dt gives
//
//	x' = (I + dt·A)x + dt·B·u + D·√dt·ε,	ε ~ N(0, I)
//
// The state is clipped to [-StateBound, StateBound] in each feature and
// is fully observed.
//
// Actions are [u, dt]. The control is clipped to
// [-ControlBound, ControlBound]; the interval must be positive.
type LinearSystem struct {
	environment.Task
	b, d        *mat.VecDense
	drift       *mat.Dense
	stateBounds r1.Interval
	noiseScale  float64
	discount    float64

	lastStep timestep.TimeStep
	normal   distuv.Normal
}

// New returns a new LinearSystem and its first timestep. The noise
// scale multiplies the Wiener process noise; 0 makes the system
// deterministic.
func New(t environment.Task, discount, noiseScale float64,
	seed uint64) (*LinearSystem, timestep.TimeStep, error) {
	if noiseScale < 0 {
		return nil, timestep.TimeStep{}, fmt.Errorf("new: noise scale "+
			"must be non-negative, have(%v)", noiseScale)
	}

	l := &LinearSystem{
		Task:        t,
		b:           Input(),
		d:           Diffusion(),
		drift:       Drift(),
		stateBounds: r1.Interval{Min: -StateBound, Max: StateBound},
		noiseScale:  noiseScale,
		discount:    discount,
		normal: distuv.Normal{
			Mu:    0,
			Sigma: 1,
			Src:   rand.NewSource(seed),
		},
	}

	step, err := l.Reset()
	if err != nil {
		return nil, timestep.TimeStep{}, fmt.Errorf("new: %v", err)
	}
	return l, step, nil
}

// Reset resets the environment and returns a starting state drawn from
// the Starter
func (l *LinearSystem) Reset() (timestep.TimeStep, error) {
	state := l.Start()
	if state.Len() != ObservationDims {
		return timestep.TimeStep{}, fmt.Errorf("reset: starting state "+
			"must have %v features, have(%v)", ObservationDims, state.Len())
	}
	l.clip(state)

	l.lastStep = timestep.New(timestep.First, 0, l.discount, state, 0, 0)
	return l.lastStep, nil
}

// LastTimeStep returns the last TimeStep that occurred in the
// environment
func (l *LinearSystem) LastTimeStep() timestep.TimeStep {
	return l.lastStep
}

// Step holds the control in action for the interval in action and
// returns the resulting timestep and whether the episode has ended
func (l *LinearSystem) Step(action *mat.VecDense) (timestep.TimeStep, bool,
	error) {
	if action.Len() != ControlDims+1 {
		return timestep.TimeStep{}, false, fmt.Errorf("step: action must "+
			"be [control, interval], have length %v", action.Len())
	}

	u := floatutils.Clip(action.AtVec(0), -ControlBound, ControlBound)
	dt := action.AtVec(1)
	if !(dt > 0) || math.IsInf(dt, 0) {
		return timestep.TimeStep{}, false, fmt.Errorf("step: interval "+
			"must be positive and finite, have(%v)", dt)
	}

	state := l.lastStep.Observation
	next := l.nextState(state, u, dt)

	control := mat.NewVecDense(ControlDims, []float64{u})
	reward := l.GetReward(state, control, dt, next)
	nextStep := timestep.New(timestep.Mid, reward, l.discount, next,
		l.lastStep.Number+1, l.lastStep.Elapsed+dt)
	l.End(&nextStep)

	l.lastStep = nextStep
	return nextStep, nextStep.Last(), nil
}

// nextState computes the next state after holding u for dt
func (l *LinearSystem) nextState(state mat.Vector, u,
	dt float64) *mat.VecDense {
	next := mat.NewVecDense(ObservationDims, nil)
	next.MulVec(l.drift, state)
	next.ScaleVec(dt, next)
	next.AddVec(next, state)
	next.AddScaledVec(next, dt*u, l.b)

	if l.noiseScale > 0 {
		sqrtDt := math.Sqrt(dt)
		for i := 0; i < ObservationDims; i++ {
			noise := l.noiseScale * l.d.AtVec(i) * sqrtDt * l.normal.Rand()
			next.SetVec(i, next.AtVec(i)+noise)
		}
	}

	l.clip(next)
	return next
}

func (l *LinearSystem) clip(state *mat.VecDense) {
	for i := 0; i < state.Len(); i++ {
		state.SetVec(i, floatutils.ClipInterval(state.AtVec(i),
			l.stateBounds))
	}
}

// ActionSpec returns the action specification of the environment,
// which is the control followed by the interval
func (l *LinearSystem) ActionSpec() environment.Spec {
	return environment.NewBoundedSpec(environment.Action,
		[]float64{-ControlBound, MinInterval},
		[]float64{ControlBound, MaxInterval})
}

// ObservationSpec returns the observation specification of the
// environment
func (l *LinearSystem) ObservationSpec() environment.Spec {
	return environment.NewBoundedSpec(environment.Observation,
		[]float64{-StateBound, -StateBound},
		[]float64{StateBound, StateBound})
}

// DiscountSpec returns the discount specification of the environment
func (l *LinearSystem) DiscountSpec() environment.Spec {
	return environment.NewBoundedSpec(environment.Discount,
		[]float64{l.discount}, []float64{l.discount})
}

// String converts the environment to a string representation
func (l *LinearSystem) String() string {
	str := "LinearSystem  |  x1: %v  |  x2: %v  |  t: %.3f\n"
	obs := l.lastStep.Observation
	return fmt.Sprintf(str, obs.AtVec(0), obs.AtVec(1), l.lastStep.Elapsed)
}
