package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Set sets the weights of dest to be equal to the weights of source.
// The two networks must have the same architecture. The copied values
// do not share memory with source.
func Set(dest, source NeuralNet) error {
	destNodes, sourceNodes, err := pairLearnables(dest, source)
	if err != nil {
		return fmt.Errorf("set: %v", err)
	}

	for i := range destNodes {
		value, ok := sourceNodes[i].Value().(*tensor.Dense)
		if !ok {
			return fmt.Errorf("set: learnable %v of source has no dense "+
				"value", i)
		}

		if err := G.Let(destNodes[i], value.Clone().(*tensor.Dense)); err != nil {
			return fmt.Errorf("set: could not set learnable %v: %v", i, err)
		}
	}
	return nil
}

// Polyak sets the weights of dest to a polyak average between its
// existing weights and the weights of source:
//
//	dest ← (1 - tau) * dest + tau * source
func Polyak(dest, source NeuralNet, tau float64) error {
	if tau < 0 || tau > 1 {
		return fmt.Errorf("polyak: tau must be in [0, 1], have(%v)", tau)
	}

	destNodes, sourceNodes, err := pairLearnables(dest, source)
	if err != nil {
		return fmt.Errorf("polyak: %v", err)
	}

	for i := range destNodes {
		weights, ok := destNodes[i].Value().(*tensor.Dense)
		if !ok {
			return fmt.Errorf("polyak: learnable %v of dest has no dense "+
				"value", i)
		}
		sourceWeights, ok := sourceNodes[i].Value().(*tensor.Dense)
		if !ok {
			return fmt.Errorf("polyak: learnable %v of source has no dense "+
				"value", i)
		}

		weights, err := weights.MulScalar(1-tau, true)
		if err != nil {
			return fmt.Errorf("polyak: %v", err)
		}

		sourceWeights, err = sourceWeights.MulScalar(tau, true)
		if err != nil {
			return fmt.Errorf("polyak: %v", err)
		}

		newWeights, err := weights.Add(sourceWeights)
		if err != nil {
			return fmt.Errorf("polyak: %v", err)
		}

		if err := G.Let(destNodes[i], newWeights); err != nil {
			return fmt.Errorf("polyak: could not set learnable %v: %v", i,
				err)
		}
	}
	return nil
}

// pairLearnables returns the learnables of two networks after checking
// that they match one to one in shape
func pairLearnables(dest, source NeuralNet) (G.Nodes, G.Nodes, error) {
	destNodes := dest.Learnables()
	sourceNodes := source.Learnables()

	if len(destNodes) != len(sourceNodes) {
		return nil, nil, fmt.Errorf("networks have different numbers of "+
			"learnables \n\twant(%v) \n\thave(%v)", len(destNodes),
			len(sourceNodes))
	}

	for i := range destNodes {
		if !destNodes[i].Shape().Eq(sourceNodes[i].Shape()) {
			return nil, nil, fmt.Errorf("learnable %v has shape %v, "+
				"expected %v", i, sourceNodes[i].Shape(), destNodes[i].Shape())
		}
	}
	return destNodes, sourceNodes, nil
}

// OutputData returns the row-major data of output head i of a network
// whose graph has been run.
func OutputData(net NeuralNet, head int) ([]float64, error) {
	outputs := net.Output()
	if head < 0 || head >= len(outputs) {
		return nil, fmt.Errorf("outputdata: no such output head %v", head)
	}
	if outputs[head] == nil {
		return nil, fmt.Errorf("outputdata: head %v has not been computed",
			head)
	}

	data, ok := outputs[head].Data().([]float64)
	if !ok {
		return nil, fmt.Errorf("outputdata: head %v is not float64", head)
	}

	return append([]float64(nil), data...), nil
}
