package discount

import (
	"math"
	"testing"

	"github.com/samuelfneumann/selftrigger/timestep"
	"gonum.org/v1/gonum/mat"
)

const tolerance = 1e-12

func transitions(intervals ...float64) []timestep.Transition {
	batch := make([]timestep.Transition, len(intervals))
	for i, tau := range intervals {
		batch[i] = timestep.Transition{
			State0: mat.NewVecDense(1, nil),
			Action: mat.NewVecDense(2, []float64{0, tau}),
			State1: mat.NewVecDense(1, nil),
		}
	}
	return batch
}

func TestAdaptiveValue(t *testing.T) {
	a, err := NewAdaptive(0.4, "")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		tau  float64
		want float64
	}{
		{0, 1},
		{0.1, 0.9607894391523232},
		{1, 0.6703200460356393},
		{10, 0.01831563888873418},
	}

	prev := math.Inf(1)
	for _, test := range tests {
		have := a.Value(test.tau)
		if math.Abs(have-test.want) > tolerance {
			t.Errorf("τ=%v \n\twant(%v) \n\thave(%v)", test.tau, test.want,
				have)
		}
		if have <= 0 || have > 1 {
			t.Errorf("τ=%v: discount %v not in (0, 1]", test.tau, have)
		}
		if have >= prev {
			t.Errorf("τ=%v: discount is not decreasing in τ", test.tau)
		}
		prev = have
	}
}

func TestAdaptiveSources(t *testing.T) {
	batch := transitions(0, 1, 2)
	next := []float64{10, 10, 10}

	tests := []struct {
		source Source
		want   []float64
	}{
		{PerTransition, []float64{1, math.Exp(-0.4), math.Exp(-0.8)}},
		{BatchMean, []float64{math.Exp(-0.4), math.Exp(-0.4),
			math.Exp(-0.4)}},
		{NextPolicyMean, []float64{math.Exp(-4), math.Exp(-4), math.Exp(-4)}},
	}

	for _, test := range tests {
		a, err := NewAdaptive(0.4, test.source)
		if err != nil {
			t.Fatal(err)
		}

		have, err := a.Discounts(batch, next)
		if err != nil {
			t.Fatal(err)
		}
		for i := range test.want {
			if math.Abs(have[i]-test.want[i]) > tolerance {
				t.Errorf("%v: \n\twant(%v) \n\thave(%v)", test.source,
					test.want, have)
				break
			}
		}
	}

	a, _ := NewAdaptive(0.4, NextPolicyMean)
	if _, err := a.Discounts(batch, next[:1]); err == nil {
		t.Error("expected error for missing next intervals")
	}
}

func TestFixed(t *testing.T) {
	f, err := NewFixed(0.99)
	if err != nil {
		t.Fatal(err)
	}

	have, err := f.Discounts(transitions(0, 5), nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range have {
		if d != 0.99 {
			t.Errorf("discount \n\twant(%v) \n\thave(%v)", 0.99, d)
		}
	}

	if _, err := NewFixed(1.5); err == nil {
		t.Error("expected error for discount above 1")
	}
}

func TestConfigCreate(t *testing.T) {
	tests := []struct {
		config Config
		valid  bool
	}{
		{Config{Type: FixedType, Gamma: 0.99}, true},
		{Config{Type: AdaptiveType, Alpha: 0.4}, true},
		{Config{Type: AdaptiveType, Alpha: 0.4, Source: "Median"}, false},
		{Config{Type: AdaptiveType, Alpha: -1}, false},
		{Config{Type: "Hyperbolic"}, false},
	}

	for _, test := range tests {
		_, err := test.config.Create()
		if (err == nil) != test.valid {
			t.Errorf("%+v: \n\twant(valid=%v) \n\thave(%v)", test.config,
				test.valid, err)
		}
	}
}
