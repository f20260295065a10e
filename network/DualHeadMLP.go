package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// dualHeadMLP implements a deterministic policy for self-triggered
// control. A single input node is shared by two towers of fully
// connected layers with identical depth. The action tower predicts
// the control action and the interval tower predicts the trigger
// interval, which is the time to wait before a new action is computed.
//
// The learnables of a dualHeadMLP are stored per depth as
//
//	[actionW0, actionB0, intervalW0, intervalB0, actionW1, ...]
//
// so that the learnable at index i belongs to the action head if and
// only if i % 4 < 2. SplitHeads relies on this layout.
type dualHeadMLP struct {
	g              *G.ExprGraph
	actionLayers   []*fcLayer
	intervalLayers []*fcLayer
	input          *G.Node
	settable       bool
	numInputs      int
	actionDims     int
	batchSize      int

	hiddenSizes []int
	activations []*Activation

	learnables G.Nodes
	model      []G.ValueGrad

	actionPred   *G.Node
	intervalPred *G.Node
	actionVal    G.Value
	intervalVal  G.Value
}

// NewDualHeadMLP returns a new dual-head policy network on the graph
// g. Both towers have hidden layers of sizes hiddenSizes with
// activations activations, followed by an output layer. The action
// tower outputs actionDims values activated by actionOut, and the
// interval tower outputs a single value activated by intervalOut. A
// nil output activation is the identity.
func NewDualHeadMLP(features, batch, actionDims int, g *G.ExprGraph,
	hiddenSizes []int, activations []*Activation, init G.InitWFn,
	actionOut, intervalOut *Activation) (NeuralNet, error) {
	if err := validateArchitecture(features, batch, hiddenSizes,
		activations); err != nil {
		return nil, fmt.Errorf("newdualheadmlp: %v", err)
	}
	if actionDims < 1 {
		return nil, fmt.Errorf("newdualheadmlp: action dimensions must be "+
			"positive, have(%v)", actionDims)
	}

	if actionOut == nil {
		actionOut = Identity()
	}
	if intervalOut == nil {
		intervalOut = Identity()
	}

	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	actionSizes := append(append([]int{}, hiddenSizes...), actionDims)
	actionActs := append(append([]*Activation{}, activations...), actionOut)
	actionLayers := addfcLayers(g, features, actionSizes, actionActs, init,
		"action")

	intervalSizes := append(append([]int{}, hiddenSizes...), 1)
	intervalActs := append(append([]*Activation{}, activations...),
		intervalOut)
	intervalLayers := addfcLayers(g, features, intervalSizes, intervalActs,
		init, "interval")

	net := &dualHeadMLP{
		g:              g,
		actionLayers:   actionLayers,
		intervalLayers: intervalLayers,
		input:          input,
		settable:       true,
		numInputs:      features,
		actionDims:     actionDims,
		batchSize:      batch,
		hiddenSizes:    hiddenSizes,
		activations:    activations,
	}

	if err := net.fwd(input); err != nil {
		return nil, fmt.Errorf("newdualheadmlp: could not compute forward "+
			"pass: %v", err)
	}
	return net, nil
}

// Graph returns the computational graph of the network
func (d *dualHeadMLP) Graph() *G.ExprGraph {
	return d.g
}

// Clone clones the network to a new graph
func (d *dualHeadMLP) Clone() (NeuralNet, error) {
	return d.CloneWithBatch(d.batchSize)
}

// CloneWithBatch clones the network to a new graph with a new input
// batch size
func (d *dualHeadMLP) CloneWithBatch(batch int) (NeuralNet, error) {
	g := G.NewGraph()
	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, d.numInputs),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	return d.CloneWithInputTo(1, []*G.Node{input}, g)
}

// CloneWithInputTo clones the network to the graph g, using the
// concatenation of inputs along axis as the shared input of both
// towers.
func (d *dualHeadMLP) CloneWithInputTo(axis int, inputs []*G.Node,
	g *G.ExprGraph) (NeuralNet, error) {
	input, err := joinInputs(axis, inputs, g, d.numInputs)
	if err != nil {
		return nil, fmt.Errorf("clonewithinputto: %v", err)
	}

	actionLayers := make([]*fcLayer, len(d.actionLayers))
	intervalLayers := make([]*fcLayer, len(d.intervalLayers))
	for i := range d.actionLayers {
		actionLayers[i] = d.actionLayers[i].cloneTo(g)
		intervalLayers[i] = d.intervalLayers[i].cloneTo(g)
	}

	net := &dualHeadMLP{
		g:              g,
		actionLayers:   actionLayers,
		intervalLayers: intervalLayers,
		input:          input,
		settable:       len(inputs) == 1,
		numInputs:      d.numInputs,
		actionDims:     d.actionDims,
		batchSize:      input.Shape()[0],
		hiddenSizes:    d.hiddenSizes,
		activations:    d.activations,
	}

	if err := net.fwd(input); err != nil {
		return nil, fmt.Errorf("clonewithinputto: could not compute forward "+
			"pass: %v", err)
	}
	return net, nil
}

// BatchSize returns the batch size of inputs to the network
func (d *dualHeadMLP) BatchSize() int {
	return d.batchSize
}

// Features returns the number of features in a single input row
func (d *dualHeadMLP) Features() int {
	return d.numInputs
}

// Outputs returns the widths of the action and interval heads
func (d *dualHeadMLP) Outputs() []int {
	return []int{d.actionDims, 1}
}

// Input returns the shared input node of both towers
func (d *dualHeadMLP) Input() *G.Node {
	return d.input
}

// SetInput sets the value of the input node before running the forward
// pass.
func (d *dualHeadMLP) SetInput(input []float64) error {
	return setInput(d.input, d.settable, input, d.numInputs*d.batchSize)
}

// Learnables returns the learnable nodes of the network, interleaved
// per depth between the action and interval towers.
func (d *dualHeadMLP) Learnables() G.Nodes {
	if d.learnables == nil {
		learnables := make(G.Nodes, 0, 4*len(d.actionLayers))
		for i := range d.actionLayers {
			a, t := d.actionLayers[i], d.intervalLayers[i]
			learnables = append(learnables, a.weights, a.bias, t.weights,
				t.bias)
		}
		d.learnables = learnables
	}
	return d.learnables
}

// Model returns the learnables nodes with their gradients.
func (d *dualHeadMLP) Model() []G.ValueGrad {
	if d.model == nil {
		d.model = toModel(d.Learnables())
	}
	return d.model
}

// fwd adds the forward pass of both towers on the input node
func (d *dualHeadMLP) fwd(input *G.Node) error {
	action, err := forward(d.actionLayers, input)
	if err != nil {
		return fmt.Errorf("action head: %v", err)
	}

	interval, err := forward(d.intervalLayers, input)
	if err != nil {
		return fmt.Errorf("interval head: %v", err)
	}

	d.actionPred, d.intervalPred = action, interval
	G.Read(d.actionPred, &d.actionVal)
	G.Read(d.intervalPred, &d.intervalVal)
	return nil
}

// Output returns the outputs of the action and interval heads after
// the graph has been run.
func (d *dualHeadMLP) Output() []G.Value {
	return []G.Value{d.actionVal, d.intervalVal}
}

// Prediction returns the nodes of the action and interval heads
func (d *dualHeadMLP) Prediction() []*G.Node {
	return []*G.Node{d.actionPred, d.intervalPred}
}
