package exploration

import (
	"fmt"

	"github.com/samuelfneumann/selftrigger/environment/linearsystem"
)

// Type determines which base strategy a Config creates
type Type string

const (
	FixedGaussianType  Type = "FixedGaussian"
	GradientScaledType Type = "GradientScaled"
)

// DynamicsType determines which system a gradient scaled strategy
// computes its sensitivities with
type DynamicsType string

const (
	PendulumDynamics     DynamicsType = "Pendulum"
	LinearSystemDynamics DynamicsType = "LinearSystem"
)

// ProcessType determines which stochastic process is layered on top of
// a base strategy
type ProcessType string

const (
	OrnsteinUhlenbeckProcess ProcessType = "OrnsteinUhlenbeck"
)

// Config describes an exploration strategy so that it can be stored
// in a configuration file. Only one of the base strategies is active,
// and a stochastic process may be layered on top of it.
type Config struct {
	Type Type

	// FixedGaussian
	CoefU   float64
	CoefTau float64

	// GradientScaled
	CU       float64
	CTau     float64
	Dynamics DynamicsConfig

	Process *ProcessConfig `json:",omitempty"`
}

// DynamicsConfig describes the system used by a gradient scaled
// strategy
type DynamicsConfig struct {
	Type    DynamicsType
	Mass    float64 `json:",omitempty"`
	Length  float64 `json:",omitempty"`
	Gravity float64 `json:",omitempty"`
}

// Create returns the dynamics described by the config
func (d DynamicsConfig) Create() (Dynamics, error) {
	switch d.Type {
	case PendulumDynamics:
		return NewPendulumDynamics(d.Mass, d.Length, d.Gravity)

	case LinearSystemDynamics:
		return NewLinearSystemDynamics()

	default:
		return nil, fmt.Errorf("create: unknown dynamics type %v", d.Type)
	}
}

// NewLinearSystemDynamics returns the dynamics of the stochastic linear
// system environment
func NewLinearSystemDynamics() (*LinearDynamics, error) {
	return NewLinearDynamics(linearsystem.Drift(), linearsystem.Input())
}

// ProcessConfig describes a stochastic process
type ProcessConfig struct {
	Type           ProcessType
	Theta          float64
	Mu             float64
	Sigma          float64
	SigmaMin       float64
	AnnealingSteps int
	Dt             float64
}

// NewOrnsteinUhlenbeckConfig returns the configuration of an
// Ornstein-Uhlenbeck process with mean reversion rate theta and
// otherwise default parameters
func NewOrnsteinUhlenbeckConfig(theta float64) *ProcessConfig {
	return &ProcessConfig{
		Type:  OrnsteinUhlenbeckProcess,
		Theta: theta,
		Sigma: 1.0,
		Dt:    1e-2,
	}
}

// Create returns the process described by the config
func (p ProcessConfig) Create(size int, seed uint64) (Process, error) {
	switch p.Type {
	case OrnsteinUhlenbeckProcess:
		return NewOrnsteinUhlenbeck(size, p.Theta, p.Mu, p.Sigma, p.SigmaMin,
			p.Dt, p.AnnealingSteps, seed)

	default:
		return nil, fmt.Errorf("create: unknown process type %v", p.Type)
	}
}

// Create returns the strategy described by the Config for a policy
// with actionDims action components
func (c Config) Create(actionDims int, seed uint64) (Strategy, error) {
	var base Strategy
	var err error

	switch c.Type {
	case FixedGaussianType:
		base, err = NewFixedGaussian(c.CoefU, c.CoefTau, seed)

	case GradientScaledType:
		if actionDims != 1 {
			return nil, fmt.Errorf("create: gradient scaled noise requires "+
				"a scalar action, have %v action dimensions", actionDims)
		}
		var dynamics Dynamics
		if dynamics, err = c.Dynamics.Create(); err != nil {
			return nil, fmt.Errorf("create: %v", err)
		}

		cU, cTau := c.CU, c.CTau
		if cU == 0 {
			cU = DefaultCU
		}
		if cTau == 0 {
			cTau = DefaultCTau
		}
		base, err = NewGradientScaled(dynamics, cU, cTau, seed)

	default:
		return nil, fmt.Errorf("create: unknown exploration type %v", c.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("create: %v", err)
	}

	if c.Process == nil {
		return base, nil
	}

	// The process perturbs every action component and the interval
	process, err := c.Process.Create(actionDims+1, seed+1)
	if err != nil {
		return nil, fmt.Errorf("create: %v", err)
	}
	return NewLayered(base, process)
}
