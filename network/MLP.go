package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// mlp implements a multi-layered perceptron with a single output head.
// It is used as the action-value function of the agent, taking the
// state, action, and trigger interval concatenated as its input.
type mlp struct {
	g          *G.ExprGraph
	layers     []*fcLayer
	input      *G.Node
	settable   bool // whether input is a leaf of the graph
	numInputs  int
	numOutputs int
	batchSize  int

	hiddenSizes []int
	activations []*Activation

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
}

// NewMLP creates and returns a new multi-layered perceptron with
// len(hiddenSizes) + 1 layers on the graph g. Hidden layer i has
// hiddenSizes[i] units and activation activations[i]. A final linear
// layer with outputs units is always added. All layers have a bias
// unit, and weights are initialized using init.
func NewMLP(features, batch, outputs int, g *G.ExprGraph,
	hiddenSizes []int, activations []*Activation,
	init G.InitWFn) (NeuralNet, error) {
	if err := validateArchitecture(features, batch, hiddenSizes,
		activations); err != nil {
		return nil, fmt.Errorf("newmlp: %v", err)
	}
	if outputs < 1 {
		return nil, fmt.Errorf("newmlp: outputs must be positive, have(%v)",
			outputs)
	}

	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	sizes := append(append([]int{}, hiddenSizes...), outputs)
	acts := append(append([]*Activation{}, activations...), Identity())
	layers := addfcLayers(g, features, sizes, acts, init, "")

	net := &mlp{
		g:           g,
		layers:      layers,
		input:       input,
		settable:    true,
		numInputs:   features,
		numOutputs:  outputs,
		batchSize:   batch,
		hiddenSizes: hiddenSizes,
		activations: activations,
	}

	if err := net.fwd(input); err != nil {
		return nil, fmt.Errorf("newmlp: could not compute forward pass: %v",
			err)
	}
	return net, nil
}

// validateArchitecture checks the arguments shared by all network
// constructors
func validateArchitecture(features, batch int, hiddenSizes []int,
	activations []*Activation) error {
	if features < 1 {
		return fmt.Errorf("features must be positive, have(%v)", features)
	}
	if batch < 1 {
		return fmt.Errorf("batch size must be positive, have(%v)", batch)
	}

	// Ensure we have one activation per layer
	if len(hiddenSizes) != len(activations) {
		msg := "invalid number of activations \n\twant(%d) \n\thave(%d)"
		return fmt.Errorf(msg, len(hiddenSizes), len(activations))
	}

	for i := range hiddenSizes {
		if hiddenSizes[i] < 1 {
			return fmt.Errorf("hidden layer %v has %v units", i,
				hiddenSizes[i])
		}
		if activations[i] == nil {
			return fmt.Errorf("hidden layer %v has a nil activation", i)
		}
	}
	return nil
}

// Graph returns the computational graph of the network
func (m *mlp) Graph() *G.ExprGraph {
	return m.g
}

// Clone clones the network to a new graph
func (m *mlp) Clone() (NeuralNet, error) {
	return m.CloneWithBatch(m.batchSize)
}

// CloneWithBatch clones the network to a new graph with a new input
// batch size
func (m *mlp) CloneWithBatch(batch int) (NeuralNet, error) {
	g := G.NewGraph()
	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, m.numInputs),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	return m.CloneWithInputTo(1, []*G.Node{input}, g)
}

// CloneWithInputTo clones the network to the graph g, using the
// concatenation of inputs along axis as the input to the network.
func (m *mlp) CloneWithInputTo(axis int, inputs []*G.Node,
	g *G.ExprGraph) (NeuralNet, error) {
	input, err := joinInputs(axis, inputs, g, m.numInputs)
	if err != nil {
		return nil, fmt.Errorf("clonewithinputto: %v", err)
	}

	layers := make([]*fcLayer, len(m.layers))
	for i := range m.layers {
		layers[i] = m.layers[i].cloneTo(g)
	}

	net := &mlp{
		g:           g,
		layers:      layers,
		input:       input,
		settable:    len(inputs) == 1,
		numInputs:   m.numInputs,
		numOutputs:  m.numOutputs,
		batchSize:   input.Shape()[0],
		hiddenSizes: m.hiddenSizes,
		activations: m.activations,
	}

	if err := net.fwd(input); err != nil {
		return nil, fmt.Errorf("clonewithinputto: could not compute forward "+
			"pass: %v", err)
	}
	return net, nil
}

// joinInputs concatenates the input nodes along axis and checks that
// the result can be fed to a network with the given number of features
func joinInputs(axis int, inputs []*G.Node, g *G.ExprGraph,
	features int) (*G.Node, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no input nodes given")
	}

	// Ensure inputs share the same graph
	for _, input := range inputs {
		if input.Graph() != g {
			return nil, fmt.Errorf("not all inputs have the same graph")
		}
	}

	// Concatenate inputs if necessary
	input := inputs[0]
	if len(inputs) > 1 {
		var err error
		if input, err = G.Concat(axis, inputs...); err != nil {
			return nil, fmt.Errorf("could not concatenate inputs: %v", err)
		}
	}

	if !input.IsMatrix() {
		return nil, fmt.Errorf("input must be a matrix node")
	}
	if cols := input.Shape()[1]; cols != features {
		return nil, fmt.Errorf("invalid number of input features "+
			"\n\twant(%v) \n\thave(%v)", features, cols)
	}
	return input, nil
}

// BatchSize returns the batch size of inputs to the network
func (m *mlp) BatchSize() int {
	return m.batchSize
}

// Features returns the number of features in a single input row
func (m *mlp) Features() int {
	return m.numInputs
}

// Outputs returns the number of columns of the single output head
func (m *mlp) Outputs() []int {
	return []int{m.numOutputs}
}

// Input returns the input node of the network
func (m *mlp) Input() *G.Node {
	return m.input
}

// SetInput sets the value of the input node before running the forward
// pass.
func (m *mlp) SetInput(input []float64) error {
	return setInput(m.input, m.settable, input, m.numInputs*m.batchSize)
}

// setInput sets the value of an input node from a row-major slice
func setInput(node *G.Node, settable bool, input []float64, size int) error {
	if !settable {
		return fmt.Errorf("setinput: input node is computed from other " +
			"nodes and cannot be set")
	}
	if len(input) != size {
		return fmt.Errorf("setinput: invalid number of inputs "+
			"\n\twant(%v) \n\thave(%v)", size, len(input))
	}

	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(node.Shape()...),
	)
	return G.Let(node, inputTensor)
}

// Learnables returns the learnable nodes of the network as
// [W0, b0, W1, b1, ...]
func (m *mlp) Learnables() G.Nodes {
	if m.learnables == nil {
		learnables := make(G.Nodes, 0, 2*len(m.layers))
		for _, l := range m.layers {
			learnables = append(learnables, l.weights, l.bias)
		}
		m.learnables = learnables
	}
	return m.learnables
}

// Model returns the learnables nodes with their gradients.
func (m *mlp) Model() []G.ValueGrad {
	if m.model == nil {
		m.model = toModel(m.Learnables())
	}
	return m.model
}

func toModel(learnables G.Nodes) []G.ValueGrad {
	model := make([]G.ValueGrad, len(learnables))
	for i := range learnables {
		model[i] = learnables[i]
	}
	return model
}

// fwd performs the forward pass of the network on the input node
func (m *mlp) fwd(input *G.Node) error {
	pred, err := forward(m.layers, input)
	if err != nil {
		return err
	}

	m.prediction = pred
	G.Read(m.prediction, &m.predVal)
	return nil
}

// Output returns the output of the network after the graph has been
// run.
func (m *mlp) Output() []G.Value {
	return []G.Value{m.predVal}
}

// Prediction returns the node of the computational graph that stores
// the output of the network
func (m *mlp) Prediction() []*G.Node {
	return []*G.Node{m.prediction}
}
