package exploration

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// OrnsteinUhlenbeck is a temporally correlated noise process
//
//	x ← x + θ(μ - x)dt + σ√dt·N(0, 1)
//
// whose σ is optionally annealed linearly from Sigma to SigmaMin over
// AnnealingSteps samples.
type OrnsteinUhlenbeck struct {
	Theta          float64
	Mu             float64
	Sigma          float64
	SigmaMin       float64
	AnnealingSteps int
	Dt             float64

	size   int
	x0     *mat.VecDense
	x      *mat.VecDense
	steps  int
	anneal bool

	normal distuv.Normal
}

// NewOrnsteinUhlenbeck returns a new Ornstein-Uhlenbeck process of size
// size. If annealingSteps is positive, sigma decreases linearly to
// sigmaMin over that many samples and stays there.
func NewOrnsteinUhlenbeck(size int, theta, mu, sigma, sigmaMin, dt float64,
	annealingSteps int, seed uint64) (*OrnsteinUhlenbeck, error) {
	if size < 1 {
		return nil, fmt.Errorf("newornsteinuhlenbeck: size must be "+
			"positive, have(%v)", size)
	}
	if dt <= 0 {
		return nil, fmt.Errorf("newornsteinuhlenbeck: dt must be positive, "+
			"have(%v)", dt)
	}
	if sigma < 0 || sigmaMin < 0 {
		return nil, fmt.Errorf("newornsteinuhlenbeck: sigma must be "+
			"non-negative, have(%v, %v)", sigma, sigmaMin)
	}

	o := &OrnsteinUhlenbeck{
		Theta:          theta,
		Mu:             mu,
		Sigma:          sigma,
		SigmaMin:       sigmaMin,
		AnnealingSteps: annealingSteps,
		Dt:             dt,
		size:           size,
		x0:             mat.NewVecDense(size, nil),
		anneal:         annealingSteps > 0,
		normal: distuv.Normal{
			Mu:    0,
			Sigma: 1,
			Src:   rand.NewSource(seed),
		},
	}
	o.Reset()
	return o, nil
}

// CurrentSigma returns the standard deviation used for the next sample
func (o *OrnsteinUhlenbeck) CurrentSigma() float64 {
	if !o.anneal {
		return o.Sigma
	}
	slope := -(o.Sigma - o.SigmaMin) / float64(o.AnnealingSteps)
	return math.Max(o.SigmaMin, slope*float64(o.steps)+o.Sigma)
}

// Sample advances the process by one step and returns its new value
func (o *OrnsteinUhlenbeck) Sample() *mat.VecDense {
	sigma := o.CurrentSigma()
	sqrtDt := math.Sqrt(o.Dt)

	for i := 0; i < o.size; i++ {
		x := o.x.AtVec(i)
		x += o.Theta*(o.Mu-x)*o.Dt + sigma*sqrtDt*o.normal.Rand()
		o.x.SetVec(i, x)
	}
	o.steps++

	return mat.VecDenseCopyOf(o.x)
}

// Reset restores the process to its initial value. The annealing
// schedule is not restarted.
func (o *OrnsteinUhlenbeck) Reset() {
	o.x = mat.VecDenseCopyOf(o.x0)
}

// Size returns the length of the samples of the process
func (o *OrnsteinUhlenbeck) Size() int {
	return o.size
}
