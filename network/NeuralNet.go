// Package network implements Gorgonia feed-forward networks used as
// policies and value functions, together with the utilities needed to
// keep copies of a network synchronised.
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet is a feed-forward network built on a Gorgonia graph. A
// NeuralNet may have multiple output heads, Prediction()[i] is the
// node of head i, which has Outputs()[i] columns.
type NeuralNet interface {
	Graph() *G.ExprGraph
	Clone() (NeuralNet, error)
	CloneWithBatch(int) (NeuralNet, error)

	// CloneWithInputTo clones the network into graph g, feeding it the
	// inputs concatenated along axis. The clone shares no values with
	// the original.
	CloneWithInputTo(axis int, inputs []*G.Node,
		g *G.ExprGraph) (NeuralNet, error)

	BatchSize() int
	Features() int
	Outputs() []int
	Input() *G.Node
	SetInput([]float64) error

	// Learnables returns the weights of the network. Two networks with
	// the same architecture return their learnables in the same order.
	Learnables() G.Nodes
	Model() []G.ValueGrad

	Output() []G.Value
	Prediction() []*G.Node
}
