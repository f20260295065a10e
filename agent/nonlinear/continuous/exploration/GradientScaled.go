package exploration

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	DefaultCU   = 0.1
	DefaultCTau = 0.2
)

// GradientScaled adds Gaussian noise to a scalar action and the
// trigger interval, scaled inversely to how sensitive the next state
// is to each of them:
//
//	scale = c / (‖∂s'/∂x‖₂ + c)
//
// so that less noise is injected where small changes in the action or
// interval cause large changes in the next state.
type GradientScaled struct {
	Dynamics Dynamics
	CU       float64
	CTau     float64

	normal distuv.Normal

	// Most recent noise scales, kept for inspection
	lastScaleU   float64
	lastScaleTau float64
}

// NewGradientScaled returns a new GradientScaled strategy. The
// constants cU and cTau set the noise floor of the action and the
// interval.
func NewGradientScaled(dynamics Dynamics, cU, cTau float64,
	seed uint64) (*GradientScaled, error) {
	if dynamics == nil {
		return nil, fmt.Errorf("newgradientscaled: dynamics must not be nil")
	}
	if cU <= 0 || cTau <= 0 {
		return nil, fmt.Errorf("newgradientscaled: constants must be "+
			"positive, have(%v, %v)", cU, cTau)
	}

	return &GradientScaled{
		Dynamics: dynamics,
		CU:       cU,
		CTau:     cTau,
		normal: distuv.Normal{
			Mu:    0,
			Sigma: 1,
			Src:   rand.NewSource(seed),
		},
	}, nil
}

// Perturb adds noise to output in place. Only policies with a scalar
// action are supported.
func (g *GradientScaled) Perturb(state mat.Vector,
	output *mat.VecDense) error {
	if output.Len() != 2 {
		return fmt.Errorf("perturb: gradient scaled noise requires a "+
			"scalar action and an interval, have output of length %v",
			output.Len())
	}

	action, interval := output.AtVec(0), output.AtVec(1)
	du, dtau, err := g.Dynamics.Sensitivity(state, action, interval)
	if err != nil {
		return fmt.Errorf("perturb: %v", err)
	}

	sizeU := floats.Norm(du.RawVector().Data, 2)
	sizeTau := floats.Norm(dtau.RawVector().Data, 2)
	if math.IsNaN(sizeU) || math.IsNaN(sizeTau) {
		return fmt.Errorf("perturb: sensitivity is not a number")
	}

	g.lastScaleU = g.CU / (sizeU + g.CU)
	g.lastScaleTau = g.CTau / (sizeTau + g.CTau)

	output.SetVec(0, action+g.normal.Rand()*g.lastScaleU)
	output.SetVec(1, interval+g.normal.Rand()*g.lastScaleTau)
	return nil
}

// Scales returns the noise scales of the action and the interval used
// in the last call to Perturb
func (g *GradientScaled) Scales() (u, tau float64) {
	return g.lastScaleU, g.lastScaleTau
}

// Reset is a no-op, GradientScaled keeps no state between steps
func (g *GradientScaled) Reset() {}
