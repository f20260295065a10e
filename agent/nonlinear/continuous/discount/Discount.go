// Package discount implements the discount factors applied to the
// bootstrapped value of a transition when computing critic targets.
package discount

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/selftrigger/timestep"
)

// Discount computes the discount of each transition in a batch.
// nextIntervals holds the trigger intervals predicted by the policy at
// the next state of each transition.
type Discount interface {
	Discounts(batch []timestep.Transition, nextIntervals []float64) ([]float64,
		error)
}

// Fixed is a constant discount factor
type Fixed struct {
	Gamma float64
}

// NewFixed returns a new Fixed discount
func NewFixed(gamma float64) (*Fixed, error) {
	if gamma < 0 || gamma > 1 {
		return nil, fmt.Errorf("newfixed: discount must be in [0, 1], "+
			"have(%v)", gamma)
	}
	return &Fixed{Gamma: gamma}, nil
}

// Discounts returns Gamma for every transition
func (f *Fixed) Discounts(batch []timestep.Transition,
	_ []float64) ([]float64, error) {
	out := make([]float64, len(batch))
	for i := range out {
		out[i] = f.Gamma
	}
	return out, nil
}

// Source determines which trigger intervals an Adaptive discount is
// computed from
type Source string

const (
	// PerTransition discounts each transition by the interval taken in
	// that transition
	PerTransition Source = "PerTransition"

	// BatchMean discounts every transition by the mean interval taken
	// in the batch
	BatchMean Source = "BatchMean"

	// NextPolicyMean discounts every transition by the mean interval
	// predicted by the policy at the next states of the batch
	NextPolicyMean Source = "NextPolicyMean"
)

// Adaptive ties the discount to the trigger interval τ so that longer
// intervals are discounted more:
//
//	γ = exp(-α·τ)
type Adaptive struct {
	Alpha  float64
	Source Source
}

// NewAdaptive returns a new Adaptive discount. An empty source defaults
// to PerTransition.
func NewAdaptive(alpha float64, source Source) (*Adaptive, error) {
	if alpha < 0 || math.IsInf(alpha, 0) || math.IsNaN(alpha) {
		return nil, fmt.Errorf("newadaptive: alpha must be finite and "+
			"non-negative, have(%v)", alpha)
	}

	if source == "" {
		source = PerTransition
	}
	switch source {
	case PerTransition, BatchMean, NextPolicyMean:
	default:
		return nil, fmt.Errorf("newadaptive: unknown interval source %v",
			source)
	}

	return &Adaptive{Alpha: alpha, Source: source}, nil
}

// Value returns the discount of a single interval
func (a *Adaptive) Value(tau float64) float64 {
	return math.Exp(-a.Alpha * tau)
}

// Discounts returns the discount of each transition
func (a *Adaptive) Discounts(batch []timestep.Transition,
	nextIntervals []float64) ([]float64, error) {
	out := make([]float64, len(batch))
	if len(batch) == 0 {
		return out, nil
	}

	switch a.Source {
	case PerTransition:
		for i := range batch {
			out[i] = a.Value(batch[i].Interval())
		}

	case BatchMean:
		mean := 0.0
		for i := range batch {
			mean += batch[i].Interval()
		}
		mean /= float64(len(batch))
		fill(out, a.Value(mean))

	case NextPolicyMean:
		if len(nextIntervals) != len(batch) {
			return nil, fmt.Errorf("discounts: invalid number of next "+
				"intervals \n\twant(%v) \n\thave(%v)", len(batch),
				len(nextIntervals))
		}
		mean := 0.0
		for _, tau := range nextIntervals {
			mean += tau
		}
		mean /= float64(len(nextIntervals))
		fill(out, a.Value(mean))

	default:
		return nil, fmt.Errorf("discounts: unknown interval source %v",
			a.Source)
	}
	return out, nil
}

func fill(s []float64, v float64) {
	for i := range s {
		s[i] = v
	}
}
