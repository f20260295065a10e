package exploration

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Layered stacks the samples of a stochastic process on top of the
// noise of a base strategy. Both noises are added to the policy output.
type Layered struct {
	Base    Strategy
	Process Process
}

// NewLayered returns a new Layered strategy
func NewLayered(base Strategy, process Process) (*Layered, error) {
	if base == nil || process == nil {
		return nil, fmt.Errorf("newlayered: base strategy and process " +
			"must not be nil")
	}
	return &Layered{Base: base, Process: process}, nil
}

// Perturb applies the base strategy and then adds a sample of the
// process to output
func (l *Layered) Perturb(state mat.Vector, output *mat.VecDense) error {
	if l.Process.Size() != output.Len() {
		return fmt.Errorf("perturb: process noise has the wrong shape "+
			"\n\twant(%v) \n\thave(%v)", output.Len(), l.Process.Size())
	}

	if err := l.Base.Perturb(state, output); err != nil {
		return err
	}

	output.AddVec(output, l.Process.Sample())
	return nil
}

// Reset resets both the base strategy and the process
func (l *Layered) Reset() {
	l.Base.Reset()
	l.Process.Reset()
}
