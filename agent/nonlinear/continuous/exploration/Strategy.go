// Package exploration implements the noise strategies used to explore
// with a deterministic self-triggered policy. A policy output is a
// vector of action components followed by a single trigger interval.
package exploration

import (
	"gonum.org/v1/gonum/mat"
)

// Strategy perturbs the output of a deterministic policy. The output
// is laid out as [action..., interval] and is perturbed in place.
type Strategy interface {
	Perturb(state mat.Vector, output *mat.VecDense) error

	// Reset resets any state kept by the strategy between episodes
	Reset()
}

// Process is a stochastic process whose samples are added to policy
// outputs
type Process interface {
	Sample() *mat.VecDense
	Reset()
	Size() int
}
