package exploration

import (
	"encoding/json"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const tolerance = 1e-6

func TestFixedGaussianZeroScale(t *testing.T) {
	f, err := NewFixedGaussian(0, 0, 1)
	if err != nil {
		t.Fatal(err)
	}

	output := mat.NewVecDense(3, []float64{0.5, -0.25, 0.1})
	if err := f.Perturb(nil, output); err != nil {
		t.Fatal(err)
	}

	want := []float64{0.5, -0.25, 0.1}
	if !floats.Equal(want, output.RawVector().Data) {
		t.Errorf("perturb \n\twant(%v) \n\thave(%v)", want,
			output.RawVector().Data)
	}
}

func TestFixedGaussianPerturbsEveryComponent(t *testing.T) {
	f, err := NewFixedGaussian(1, 1, 1)
	if err != nil {
		t.Fatal(err)
	}

	output := mat.NewVecDense(3, nil)
	if err := f.Perturb(nil, output); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < output.Len(); i++ {
		if output.AtVec(i) == 0 {
			t.Errorf("component %v was not perturbed", i)
		}
	}

	if _, err := NewFixedGaussian(-1, 0, 1); err == nil {
		t.Error("expected error for negative noise scale")
	}
	if err := f.Perturb(nil, mat.NewVecDense(1, nil)); err == nil {
		t.Error("expected error for output without an interval")
	}
}

func TestLinearDynamicsAtZeroInterval(t *testing.T) {
	d, err := NewPendulumDynamics(1, 1, 10)
	if err != nil {
		t.Fatal(err)
	}

	state := mat.NewVecDense(2, []float64{1, 2})
	du, dtau, err := d.Sensitivity(state, 0.5, 0)
	if err != nil {
		t.Fatal(err)
	}

	// A = [[0, 1], [15, 0]], B = [0, 3]
	wantTau := []float64{2, 15 + 1.5}
	if !floats.EqualApprox(wantTau, dtau.RawVector().Data, tolerance) {
		t.Errorf("∂s'/∂τ \n\twant(%v) \n\thave(%v)", wantTau,
			dtau.RawVector().Data)
	}

	wantU := []float64{0, 0}
	if !floats.EqualApprox(wantU, du.RawVector().Data, tolerance) {
		t.Errorf("∂s'/∂u \n\twant(%v) \n\thave(%v)", wantU,
			du.RawVector().Data)
	}
}

// nextState returns the exact solution of ṡ = As + Bu after tau
func nextState(a *mat.Dense, b, s *mat.VecDense, u, tau float64) []float64 {
	var aTau, expATau, aInv, diff, tmp mat.Dense
	aTau.Scale(tau, a)
	expATau.Exp(&aTau)
	if err := aInv.Inverse(a); err != nil {
		panic(err)
	}

	diff.Sub(&expATau, mat.NewDiagDense(2, []float64{1, 1}))
	tmp.Mul(&aInv, &diff)

	out := mat.NewVecDense(2, nil)
	forced := mat.NewVecDense(2, nil)
	out.MulVec(&expATau, s)
	forced.MulVec(&tmp, b)
	out.AddScaledVec(out, u, forced)
	return out.RawVector().Data
}

func TestLinearDynamicsActionSensitivity(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{-1, 4, 2, -3})
	b := mat.NewVecDense(2, []float64{2, 4})
	d, err := NewLinearDynamics(a, b)
	if err != nil {
		t.Fatal(err)
	}

	s := mat.NewVecDense(2, []float64{0.5, -1})
	const h = 1e-5
	for _, tau := range []float64{0.01, 0.1, 0.5} {
		du, _, err := d.Sensitivity(s, 0.3, tau)
		if err != nil {
			t.Fatal(err)
		}

		plus := nextState(a, b, s, 0.3+h, tau)
		minus := nextState(a, b, s, 0.3-h, tau)
		want := make([]float64, 2)
		floats.SubTo(want, plus, minus)
		floats.Scale(1/(2*h), want)

		if !floats.EqualApprox(want, du.RawVector().Data, 1e-4) {
			t.Errorf("τ=%v: ∂s'/∂u \n\twant(%v) \n\thave(%v)", tau, want,
				du.RawVector().Data)
		}
	}
}

func TestLinearDynamicsUsesMostRecentObservation(t *testing.T) {
	d, err := NewPendulumDynamics(1, 1, 10)
	if err != nil {
		t.Fatal(err)
	}

	window := mat.NewVecDense(4, []float64{100, 100, 1, 2})
	_, dtau, err := d.Sensitivity(window, 0.5, 0)
	if err != nil {
		t.Fatal(err)
	}
	if dtau.AtVec(0) != 2 {
		t.Errorf("∂s'/∂τ[0] \n\twant(%v) \n\thave(%v)", 2, dtau.AtVec(0))
	}

	if _, _, err := d.Sensitivity(mat.NewVecDense(1, nil), 0, 0); err == nil {
		t.Error("expected error for state with too few features")
	}
}

func TestLinearDynamicsSingular(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 1, 1, 1})
	if _, err := NewLinearDynamics(a, mat.NewVecDense(2, nil)); err == nil {
		t.Error("expected error for singular drift matrix")
	}
}

func TestGradientScaledScales(t *testing.T) {
	d, err := NewPendulumDynamics(1, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	g, err := NewGradientScaled(d, DefaultCU, DefaultCTau, 1)
	if err != nil {
		t.Fatal(err)
	}

	// Zero sensitivity gives unit scales
	output := mat.NewVecDense(2, []float64{0, 0})
	if err := g.Perturb(mat.NewVecDense(2, nil), output); err != nil {
		t.Fatal(err)
	}
	if u, tau := g.Scales(); u != 1 || tau != 1 {
		t.Errorf("scales \n\twant(%v, %v) \n\thave(%v, %v)", 1, 1, u, tau)
	}

	output = mat.NewVecDense(2, []float64{0.5, 0})
	if err := g.Perturb(mat.NewVecDense(2, []float64{1, 2}), output); err != nil {
		t.Fatal(err)
	}
	norm := math.Hypot(2, 16.5)
	want := DefaultCTau / (norm + DefaultCTau)
	if _, tau := g.Scales(); math.Abs(tau-want) > tolerance {
		t.Errorf("interval scale \n\twant(%v) \n\thave(%v)", want, tau)
	}

	if err := g.Perturb(nil, mat.NewVecDense(3, nil)); err == nil {
		t.Error("expected error for vector action")
	}
}

func TestOrnsteinUhlenbeck(t *testing.T) {
	o, err := NewOrnsteinUhlenbeck(2, 1, 1, 0, 0, 0.5, 0, 1)
	if err != nil {
		t.Fatal(err)
	}

	// Without diffusion the process decays geometrically towards mu
	for _, want := range []float64{0.5, 0.75, 0.875} {
		sample := o.Sample()
		for i := 0; i < sample.Len(); i++ {
			if math.Abs(sample.AtVec(i)-want) > tolerance {
				t.Errorf("sample \n\twant(%v) \n\thave(%v)", want,
					sample.AtVec(i))
			}
		}
	}

	o.Reset()
	if sample := o.Sample(); math.Abs(sample.AtVec(0)-0.5) > tolerance {
		t.Errorf("sample after reset \n\twant(%v) \n\thave(%v)", 0.5,
			sample.AtVec(0))
	}
}

func TestOrnsteinUhlenbeckAnnealing(t *testing.T) {
	o, err := NewOrnsteinUhlenbeck(1, 1, 0, 1, 0.1, 0.01, 10, 1)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		o.Sample()
	}
	if sigma := o.CurrentSigma(); math.Abs(sigma-0.55) > tolerance {
		t.Errorf("sigma \n\twant(%v) \n\thave(%v)", 0.55, sigma)
	}

	for i := 0; i < 20; i++ {
		o.Sample()
	}
	if sigma := o.CurrentSigma(); math.Abs(sigma-0.1) > tolerance {
		t.Errorf("sigma \n\twant(%v) \n\thave(%v)", 0.1, sigma)
	}
}

func TestLayeredStacksNoise(t *testing.T) {
	base, err := NewFixedGaussian(0, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	process, err := NewOrnsteinUhlenbeck(2, 1, 1, 0, 0, 1, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	l, err := NewLayered(base, process)
	if err != nil {
		t.Fatal(err)
	}

	output := mat.NewVecDense(2, []float64{0.25, 0.5})
	if err := l.Perturb(nil, output); err != nil {
		t.Fatal(err)
	}
	want := []float64{1.25, 1.5}
	if !floats.EqualApprox(want, output.RawVector().Data, tolerance) {
		t.Errorf("perturb \n\twant(%v) \n\thave(%v)", want,
			output.RawVector().Data)
	}

	if err := l.Perturb(nil, mat.NewVecDense(3, nil)); err == nil {
		t.Error("expected error for mismatched process shape")
	}
}

func TestConfigCreate(t *testing.T) {
	tests := []struct {
		config     string
		actionDims int
		valid      bool
		layered    bool
	}{
		{`{"Type": "FixedGaussian", "CoefU": 0.1, "CoefTau": 0.01}`, 2,
			true, false},
		{`{"Type": "GradientScaled", "Dynamics": {"Type": "LinearSystem"}}`,
			1, true, false},
		{`{"Type": "GradientScaled", "Dynamics": {"Type": "Pendulum",
			"Mass": 1, "Length": 1, "Gravity": 10}, "Process": {"Type":
			"OrnsteinUhlenbeck", "Theta": 1, "Sigma": 0.3, "Dt": 0.01}}`,
			1, true, true},
		{`{"Type": "GradientScaled", "Dynamics": {"Type": "LinearSystem"}}`,
			2, false, false},
		{`{"Type": "Boltzmann"}`, 1, false, false},
		{`{"Type": "FixedGaussian", "Process": {"Type": "Brownian"}}`, 1,
			false, false},
	}

	for i, test := range tests {
		var c Config
		if err := json.Unmarshal([]byte(test.config), &c); err != nil {
			t.Fatal(err)
		}

		strategy, err := c.Create(test.actionDims, 1)
		if (err == nil) != test.valid {
			t.Errorf("config %v: \n\twant(valid=%v) \n\thave(%v)", i,
				test.valid, err)
			continue
		}
		if !test.valid {
			continue
		}

		if _, ok := strategy.(*Layered); ok != test.layered {
			t.Errorf("config %v: \n\twant(layered=%v) \n\thave(%T)", i,
				test.layered, strategy)
		}
	}
}
