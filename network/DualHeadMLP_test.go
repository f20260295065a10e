package network

import (
	"testing"

	G "gorgonia.org/gorgonia"
)

func TestDualHeadMLPForward(t *testing.T) {
	g := G.NewGraph()
	net, err := NewDualHeadMLP(3, 2, 2, g, []int{4, 4},
		[]*Activation{ReLU(), ReLU()}, G.Zeroes(), TanH(), Sigmoid())
	if err != nil {
		t.Fatal(err)
	}

	if outs := net.Outputs(); outs[0] != 2 || outs[1] != 1 {
		t.Errorf("outputs \n\twant([2 1]) \n\thave(%v)", outs)
	}
	if n := len(net.Learnables()); n != 12 {
		t.Errorf("learnables \n\twant(12) \n\thave(%v)", n)
	}

	if err := net.SetInput([]float64{1, 2, 3, 4, 5, 6}); err != nil {
		t.Fatal(err)
	}

	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}

	action, err := OutputData(net, 0)
	if err != nil {
		t.Fatal(err)
	}
	interval, err := OutputData(net, 1)
	if err != nil {
		t.Fatal(err)
	}

	// Zero weights give tanh(0) = 0 actions and sigmoid(0) = 0.5
	// intervals
	if len(action) != 4 || len(interval) != 2 {
		t.Fatalf("output sizes \n\twant(4, 2) \n\thave(%v, %v)", len(action),
			len(interval))
	}
	for _, a := range action {
		if a != 0 {
			t.Errorf("action \n\twant(0) \n\thave(%v)", a)
		}
	}
	for _, i := range interval {
		if i != 0.5 {
			t.Errorf("interval \n\twant(0.5) \n\thave(%v)", i)
		}
	}
}

func TestDualHeadMLPInvalidArchitecture(t *testing.T) {
	if _, err := NewDualHeadMLP(3, 1, 1, G.NewGraph(), []int{4, 4},
		[]*Activation{ReLU()}, G.Zeroes(), nil, nil); err == nil {
		t.Error("expected an error for a missing activation")
	}

	if _, err := NewDualHeadMLP(3, 1, 0, G.NewGraph(), []int{4},
		[]*Activation{ReLU()}, G.Zeroes(), nil, nil); err == nil {
		t.Error("expected an error for zero action dimensions")
	}
}

func TestSetInputSize(t *testing.T) {
	net, err := NewMLP(3, 2, 1, G.NewGraph(), nil, nil, G.Zeroes())
	if err != nil {
		t.Fatal(err)
	}
	if err := net.SetInput([]float64{1, 2, 3}); err == nil {
		t.Error("setinput: expected an error for a short input")
	}
}

func TestCloneWithInputToComposition(t *testing.T) {
	policy := newTestPolicy(t)
	critic, err := NewMLP(policy.Features()+2, 1, 1, G.NewGraph(), []int{4},
		[]*Activation{ReLU()}, G.GlorotU(1.0))
	if err != nil {
		t.Fatal(err)
	}

	g := policy.Graph()
	inputs := append([]*G.Node{policy.Input()}, policy.Prediction()...)
	composed, err := critic.CloneWithInputTo(1, inputs, g)
	if err != nil {
		t.Fatal(err)
	}

	if composed.BatchSize() != policy.BatchSize() {
		t.Errorf("batch size \n\twant(%v) \n\thave(%v)", policy.BatchSize(),
			composed.BatchSize())
	}
	if err := composed.SetInput(make([]float64, 16)); err == nil {
		t.Error("setinput: a composed input should not be settable")
	}

	want, have := learnableData(t, critic), learnableData(t, composed)
	for i := range want {
		for j := range want[i] {
			if want[i][j] != have[i][j] {
				t.Fatalf("clone learnable %v[%v] \n\twant(%v) \n\thave(%v)",
					i, j, want[i][j], have[i][j])
			}
		}
	}
}
