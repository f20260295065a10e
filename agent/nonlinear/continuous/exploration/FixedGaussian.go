package exploration

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// FixedGaussian adds independent Gaussian noise of a fixed scale to
// each action component and to the trigger interval.
type FixedGaussian struct {
	CoefU   float64
	CoefTau float64

	normal distuv.Normal
}

// NewFixedGaussian returns a new FixedGaussian strategy with action
// noise scale coefU and interval noise scale coefTau
func NewFixedGaussian(coefU, coefTau float64, seed uint64) (*FixedGaussian,
	error) {
	if coefU < 0 || coefTau < 0 {
		return nil, fmt.Errorf("newfixedgaussian: noise scales must be "+
			"non-negative, have(%v, %v)", coefU, coefTau)
	}

	return &FixedGaussian{
		CoefU:   coefU,
		CoefTau: coefTau,
		normal: distuv.Normal{
			Mu:    0,
			Sigma: 1,
			Src:   rand.NewSource(seed),
		},
	}, nil
}

// Perturb adds noise to output in place
func (f *FixedGaussian) Perturb(_ mat.Vector, output *mat.VecDense) error {
	n := output.Len()
	if n < 2 {
		return fmt.Errorf("perturb: output must hold at least one action "+
			"and an interval, have length %v", n)
	}

	for i := 0; i < n-1; i++ {
		output.SetVec(i, output.AtVec(i)+f.normal.Rand()*f.CoefU)
	}
	output.SetVec(n-1, output.AtVec(n-1)+f.normal.Rand()*f.CoefTau)
	return nil
}

// Reset is a no-op, FixedGaussian keeps no state between steps
func (f *FixedGaussian) Reset() {}
