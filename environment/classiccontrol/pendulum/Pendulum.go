// Package pendulum implements the pendulum classic control environment
// under self-triggered control
package pendulum

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

// default physical constants
const (
	AngleBound      float64 = math.Pi     // +/- Angle bounds
	SpeedBound      float64 = 2 * math.Pi // +/- Speed bounds
	TorqueBound     float64 = 10.0        // +/- Torque bounds
	NoiseStdDev     float64 = 0.5
	Gravity         float64 = 10.0
	Mass            float64 = 1.0
	Length          float64 = 1.0
	ControlDims     int     = 1
	ObservationDims int     = 2

	MinInterval float64 = 0.01
	MaxInterval float64 = 10.0
)

// SelfTriggered implements the classic control environment Pendulum
// where the agent chooses how long each torque is held. A pendulum is
// attached to a fixed base, and the agent must hold it upright.
//
// State features consist of the angle of the pendulum from the positive
// y-axis and the angular velocity of the pendulum. The angular velocity
// is clipped between [-SpeedBound, SpeedBound]. Angles are normalized
// to stay within [-AngleBound, AngleBound] = [-π, π].
//
// Actions are [torque, dt]. The torque is clipped to
// [-TorqueBound, TorqueBound] and held for dt units of time, over which
// the pendulum moves by a single semi-implicit Euler step:
//
//	θ̇' = θ̇ + (-3g/(2l)·sin(θ + π) + 3/(ml²)·u)·dt
//	θ'  = θ + θ̇'·dt
//
// Gaussian noise with standard deviation NoiseStdDev·√dt, scaled by the
// noise scale of the environment, is added to both features.
type SelfTriggered struct {
	environment.Task
	gravity      float64
	mass         float64
	length       float64
	angleBounds  r1.Interval
	speedBounds  r1.Interval
	torqueBounds r1.Interval
	noiseScale   float64
	discount     float64

	lastStep timestep.TimeStep
	normal   distuv.Normal
}

// New creates and returns a new SelfTriggered pendulum and its first
// timestep
func New(t environment.Task, discount, noiseScale float64,
	seed uint64) (*SelfTriggered, timestep.TimeStep, error) {
	if noiseScale < 0 {
		return nil, timestep.TimeStep{}, fmt.Errorf("new: noise scale "+
			"must be non-negative, have(%v)", noiseScale)
	}

	p := &SelfTriggered{
		Task:         t,
		gravity:      Gravity,
		mass:         Mass,
		length:       Length,
		angleBounds:  r1.Interval{Min: -AngleBound, Max: AngleBound},
		speedBounds:  r1.Interval{Min: -SpeedBound, Max: SpeedBound},
		torqueBounds: r1.Interval{Min: -TorqueBound, Max: TorqueBound},
		noiseScale:   noiseScale,
		discount:     discount,
		normal: distuv.Normal{
			Mu:    0,
			Sigma: 1,
			Src:   rand.NewSource(seed),
		},
	}

	step, err := p.Reset()
	if err != nil {
		return nil, timestep.TimeStep{}, fmt.Errorf("new: %v", err)
	}
	return p, step, nil
}

// LastTimeStep returns the last TimeStep that occurred in the
// environment
func (p *SelfTriggered) LastTimeStep() timestep.TimeStep {
	return p.lastStep
}

// Reset resets the environment and returns a starting state drawn from
// the Starter
func (p *SelfTriggered) Reset() (timestep.TimeStep, error) {
	state := p.Start()
	if err := validateState(state, p.angleBounds, p.speedBounds); err != nil {
		return timestep.TimeStep{}, fmt.Errorf("reset: %v", err)
	}

	p.lastStep = timestep.New(timestep.First, 0, p.discount, state, 0, 0)
	return p.lastStep, nil
}

// Step holds the torque in action for the interval in action and
// returns the resulting timestep and whether the episode has ended
func (p *SelfTriggered) Step(action *mat.VecDense) (timestep.TimeStep, bool,
	error) {
	if action.Len() != ControlDims+1 {
		return timestep.TimeStep{}, false, fmt.Errorf("step: action must "+
			"be [torque, interval], have length %v", action.Len())
	}

	torque := floatutils.ClipInterval(action.AtVec(0), p.torqueBounds)
	dt := action.AtVec(1)
	if !(dt > 0) || math.IsInf(dt, 0) {
		return timestep.TimeStep{}, false, fmt.Errorf("step: interval "+
			"must be positive and finite, have(%v)", dt)
	}

	state := p.lastStep.Observation
	next := p.nextState(state, torque, dt)

	control := mat.NewVecDense(ControlDims, []float64{torque})
	reward := p.GetReward(state, control, dt, next)
	nextStep := timestep.New(timestep.Mid, reward, p.discount, next,
		p.lastStep.Number+1, p.lastStep.Elapsed+dt)
	p.End(&nextStep)

	p.lastStep = nextStep
	return nextStep, nextStep.Last(), nil
}

// nextState computes the next state of the environment after holding
// torque for dt
func (p *SelfTriggered) nextState(obs mat.Vector, torque,
	dt float64) *mat.VecDense {
	th, thdot := obs.AtVec(0), obs.AtVec(1)

	newthdot := thdot + (-3*p.gravity/(2*p.length)*math.Sin(th+math.Pi)+
		3.0/(p.mass*math.Pow(p.length, 2))*torque)*dt
	newth := th + newthdot*dt

	if p.noiseScale > 0 {
		scale := p.noiseScale * NoiseStdDev * math.Sqrt(dt)
		newth += scale * p.normal.Rand()
		newthdot += scale * p.normal.Rand()
	}

	newthdot = floatutils.ClipInterval(newthdot, p.speedBounds)
	newth = normalizeAngle(newth)

	return mat.NewVecDense(ObservationDims, []float64{newth, newthdot})
}

// ActionSpec returns the action specification of the environment,
// which is the torque followed by the interval
func (p *SelfTriggered) ActionSpec() environment.Spec {
	return environment.NewBoundedSpec(environment.Action,
		[]float64{p.torqueBounds.Min, MinInterval},
		[]float64{p.torqueBounds.Max, MaxInterval})
}

// ObservationSpec returns the observation specification of the
// environment
func (p *SelfTriggered) ObservationSpec() environment.Spec {
	return environment.NewBoundedSpec(environment.Observation,
		[]float64{p.angleBounds.Min, p.speedBounds.Min},
		[]float64{p.angleBounds.Max, p.speedBounds.Max})
}

// DiscountSpec returns the discount specification of the environment
func (p *SelfTriggered) DiscountSpec() environment.Spec {
	return environment.NewBoundedSpec(environment.Discount,
		[]float64{p.discount}, []float64{p.discount})
}

// String converts the environment to a string representation
func (p *SelfTriggered) String() string {
	str := "SelfTriggered  |  theta: %v  |  theta dot: %v  |  t: %.3f\n"
	theta := p.lastStep.Observation.AtVec(0)
	thetadot := p.lastStep.Observation.AtVec(1)

	return fmt.Sprintf(str, theta, thetadot, p.lastStep.Elapsed)
}

// normalizeAngle normalizes an angle to [-π, π)
func normalizeAngle(th float64) float64 {
	th = math.Mod(th+math.Pi, 2*math.Pi)
	if th < 0 {
		th += 2 * math.Pi
	}
	return th - math.Pi
}

// validateState validates the state to ensure that the angle and angular
// velocity are within the environmental limits
func validateState(obs mat.Vector, angleBounds, speedBounds r1.Interval) error {
	if obs.Len() != ObservationDims {
		return fmt.Errorf("state must have %v features, have(%v)",
			ObservationDims, obs.Len())
	}

	// Check if the angle is within bounds
	thWithinBounds := obs.AtVec(0) <= angleBounds.Max &&
		obs.AtVec(0) >= angleBounds.Min
	if !thWithinBounds {
		return fmt.Errorf("theta is not within bounds %v", angleBounds)
	}

	// Check if the angular velocity is within bounds
	thdotWithinBounds := obs.AtVec(1) <= speedBounds.Max &&
		obs.AtVec(1) >= speedBounds.Min
	if !thdotWithinBounds {
		return fmt.Errorf("theta dot is not within bounds %v", speedBounds)
	}
	return nil
}
