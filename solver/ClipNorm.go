package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	G "gorgonia.org/gorgonia"
)

// gradients returns the gradient data of each element of model. The
// returned slices alias the gradients stored in model.
func gradients(model []G.ValueGrad) ([][]float64, error) {
	grads := make([][]float64, len(model))
	for i, vg := range model {
		grad, err := vg.Grad()
		if err != nil {
			return nil, fmt.Errorf("gradients: could not get gradient %v: %v",
				i, err)
		}

		data, ok := grad.Data().([]float64)
		if !ok {
			return nil, fmt.Errorf("gradients: gradient %v is not float64", i)
		}
		grads[i] = data
	}
	return grads, nil
}

// GradNorm returns the global L2 norm of all gradients of model
func GradNorm(model []G.ValueGrad) (float64, error) {
	grads, err := gradients(model)
	if err != nil {
		return 0, fmt.Errorf("gradnorm: %v", err)
	}
	return globalNorm(grads), nil
}

func globalNorm(grads [][]float64) float64 {
	var sumSquares float64
	for _, g := range grads {
		sumSquares += floats.Dot(g, g)
	}
	return math.Sqrt(sumSquares)
}

// ClipNorm rescales the gradients of model in place so that their
// global L2 norm is at most maxNorm. The norm before rescaling is
// returned. A non-finite norm is an error and leaves the gradients
// unchanged.
func ClipNorm(model []G.ValueGrad, maxNorm float64) (float64, error) {
	grads, err := gradients(model)
	if err != nil {
		return 0, fmt.Errorf("clipnorm: %v", err)
	}

	norm := globalNorm(grads)
	if math.IsNaN(norm) || math.IsInf(norm, 0) {
		return norm, fmt.Errorf("clipnorm: gradient norm is %v", norm)
	}

	if maxNorm > 0 && norm > maxNorm {
		scale := maxNorm / norm
		for _, g := range grads {
			floats.Scale(scale, g)
		}
	}
	return norm, nil
}
