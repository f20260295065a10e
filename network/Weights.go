package network

import (
	"encoding/gob"
	"fmt"
	"io"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// weightBlob is the serialised form of a single learnable
type weightBlob struct {
	Name  string
	Shape []int
	Data  []float64
}

// WriteWeights gob encodes the learnables of net to w. Only weights
// are written, the architecture must be rebuilt by the reader before
// calling ReadWeights.
func WriteWeights(w io.Writer, net NeuralNet) error {
	learnables := net.Learnables()
	blobs := make([]weightBlob, len(learnables))

	for i, node := range learnables {
		data, ok := node.Value().Data().([]float64)
		if !ok {
			return fmt.Errorf("writeweights: learnable %v is not float64", i)
		}

		blobs[i] = weightBlob{
			Name:  node.Name(),
			Shape: append([]int(nil), node.Shape()...),
			Data:  append([]float64(nil), data...),
		}
	}

	if err := gob.NewEncoder(w).Encode(blobs); err != nil {
		return fmt.Errorf("writeweights: could not encode weights: %v", err)
	}
	return nil
}

// ReadWeights decodes weights written by WriteWeights from r and sets
// the learnables of net to them. The number and shapes of the decoded
// weights must match the learnables of net.
func ReadWeights(r io.Reader, net NeuralNet) error {
	var blobs []weightBlob
	if err := gob.NewDecoder(r).Decode(&blobs); err != nil {
		return fmt.Errorf("readweights: could not decode weights: %v", err)
	}

	learnables := net.Learnables()
	if len(blobs) != len(learnables) {
		return fmt.Errorf("readweights: invalid number of weights "+
			"\n\twant(%v) \n\thave(%v)", len(learnables), len(blobs))
	}

	// Check every blob before changing any weight
	for i, blob := range blobs {
		if !learnables[i].Shape().Eq(tensor.Shape(blob.Shape)) {
			return fmt.Errorf("readweights: weight %v (%v) has shape %v, "+
				"expected %v", i, blob.Name, blob.Shape, learnables[i].Shape())
		}
		if size := tensor.Shape(blob.Shape).TotalSize(); size != len(blob.Data) {
			return fmt.Errorf("readweights: weight %v (%v) has %v values, "+
				"expected %v", i, blob.Name, len(blob.Data), size)
		}
	}

	for i, blob := range blobs {
		value := tensor.New(
			tensor.WithShape(blob.Shape...),
			tensor.WithBacking(blob.Data),
		)
		if err := G.Let(learnables[i], value); err != nil {
			return fmt.Errorf("readweights: could not set weight %v: %v", i,
				err)
		}
	}
	return nil
}
