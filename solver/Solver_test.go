package solver

import (
	"encoding/json"
	"math"
	"testing"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// newModel returns a single learnable vector with the given value and
// gradient
func newModel(t *testing.T, value, grad []float64) []G.ValueGrad {
	t.Helper()
	g := G.NewGraph()
	w := G.NewVector(g, tensor.Float64, G.WithShape(len(value)),
		G.WithName("w"), G.WithValue(tensor.New(tensor.WithBacking(value))))

	// The gradient of sum(w * c) with respect to w is c
	c := G.NewConstant(tensor.New(tensor.WithBacking(grad)))
	cost := G.Must(G.Sum(G.Must(G.HadamardProd(w, c))))
	if _, err := G.Grad(cost, w); err != nil {
		t.Fatal(err)
	}

	vm := G.NewTapeMachine(g, G.BindDualValues(w))
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}
	return []G.ValueGrad{w}
}

func TestClipNorm(t *testing.T) {
	model := newModel(t, []float64{1, 1}, []float64{3, 4})

	norm, err := ClipNorm(model, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if norm != 5 {
		t.Errorf("norm before clipping \n\twant(5) \n\thave(%v)", norm)
	}

	after, err := GradNorm(model)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(after-1) > 1e-12 {
		t.Errorf("norm after clipping \n\twant(1) \n\thave(%v)", after)
	}
}

func TestClipNormBelowMax(t *testing.T) {
	model := newModel(t, []float64{1, 1}, []float64{0.3, 0.4})

	if _, err := ClipNorm(model, 1.0); err != nil {
		t.Fatal(err)
	}

	grad, _ := model[0].Grad()
	data := grad.Data().([]float64)
	if data[0] != 0.3 || data[1] != 0.4 {
		t.Errorf("gradients should be untouched \n\twant([0.3 0.4]) "+
			"\n\thave(%v)", data)
	}
}

func TestClipNormNonFinite(t *testing.T) {
	model := newModel(t, []float64{1, 1}, []float64{math.NaN(), 1})
	if _, err := ClipNorm(model, 1.0); err == nil {
		t.Error("clipnorm: expected an error for a NaN gradient")
	}
}

func TestSolverJSON(t *testing.T) {
	adam, err := NewDefaultAdam(0.001, 1.0)
	if err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(adam)
	if err != nil {
		t.Fatal(err)
	}

	var s Solver
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatal(err)
	}
	if s.Type != Adam {
		t.Errorf("type \n\twant(%v) \n\thave(%v)", Adam, s.Type)
	}
	if s.MaxNorm() != 1.0 {
		t.Errorf("max norm \n\twant(1) \n\thave(%v)", s.MaxNorm())
	}
	if s.Solver == nil {
		t.Error("unmarshalled solver has no Gorgonia solver")
	}

	if err := json.Unmarshal([]byte(`{"Type": "SGD", "Config": {}}`),
		&s); err == nil {
		t.Error("expected an error for an unknown solver type")
	}
}
