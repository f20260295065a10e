package exploration

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Dynamics computes the sensitivity of the next state of an environment
// to the action taken and to the trigger interval
type Dynamics interface {
	// Sensitivity returns ∂s'/∂u and ∂s'/∂τ at the given state, scalar
	// action, and interval. If state holds a window of observations,
	// the most recent observation is used.
	Sensitivity(state mat.Vector, action, interval float64) (du,
		dtau *mat.VecDense, err error)
}

// LinearDynamics is a linear time invariant system ṡ = As + Bu with a
// scalar action held constant over the trigger interval τ. Its
// sensitivities have the closed form
//
//	∂s'/∂τ = A e^{Aτ} s + B u
//	∂s'/∂u = e^{Aτ} A⁻¹ B - e^{Aτ} A⁻¹ e^{-Aτ} B
type LinearDynamics struct {
	a    *mat.Dense
	aInv *mat.Dense
	b    *mat.VecDense
	n    int
}

// NewLinearDynamics returns a new LinearDynamics with drift matrix a
// and input vector b. The drift matrix must be square and invertible.
func NewLinearDynamics(a mat.Matrix, b mat.Vector) (*LinearDynamics,
	error) {
	r, c := a.Dims()
	if r != c {
		return nil, fmt.Errorf("newlineardynamics: drift matrix must be "+
			"square, have(%v x %v)", r, c)
	}
	if b.Len() != r {
		return nil, fmt.Errorf("newlineardynamics: input vector has "+
			"the wrong length \n\twant(%v) \n\thave(%v)", r, b.Len())
	}

	var aInv mat.Dense
	if err := aInv.Inverse(a); err != nil {
		return nil, fmt.Errorf("newlineardynamics: drift matrix is not "+
			"invertible: %v", err)
	}

	return &LinearDynamics{
		a:    mat.DenseCopyOf(a),
		aInv: &aInv,
		b:    mat.VecDenseCopyOf(b),
		n:    r,
	}, nil
}

// NewPendulumDynamics returns the dynamics of a pendulum with mass m
// and length l under gravity g, linearised about the upright position.
// The state is [θ, θ̇].
func NewPendulumDynamics(m, l, g float64) (*LinearDynamics, error) {
	if m <= 0 || l <= 0 {
		return nil, fmt.Errorf("newpendulumdynamics: mass and length "+
			"must be positive, have(%v, %v)", m, l)
	}

	a := mat.NewDense(2, 2, []float64{
		0, 1,
		(3 * g) / (2 * l), 0,
	})
	b := mat.NewVecDense(2, []float64{0, 3 / (m * l * l)})
	return NewLinearDynamics(a, b)
}

// Sensitivity returns ∂s'/∂u and ∂s'/∂τ
func (l *LinearDynamics) Sensitivity(state mat.Vector, action,
	interval float64) (du, dtau *mat.VecDense, err error) {
	if state.Len() < l.n {
		return nil, nil, fmt.Errorf("sensitivity: state must have at "+
			"least %v features, have(%v)", l.n, state.Len())
	}

	// Use the most recent observation of a windowed state
	s := mat.NewVecDense(l.n, nil)
	offset := state.Len() - l.n
	for i := 0; i < l.n; i++ {
		s.SetVec(i, state.AtVec(offset+i))
	}

	var aTau, expATau, expNegATau mat.Dense
	aTau.Scale(interval, l.a)
	expATau.Exp(&aTau)
	aTau.Scale(-interval, l.a)
	expNegATau.Exp(&aTau)

	// ∂s'/∂τ
	var aExp mat.Dense
	aExp.Mul(l.a, &expATau)
	dtau = mat.NewVecDense(l.n, nil)
	dtau.MulVec(&aExp, s)
	dtau.AddScaledVec(dtau, action, l.b)

	// ∂s'/∂u
	var expInv mat.Dense
	expInv.Mul(&expATau, l.aInv)

	first := mat.NewVecDense(l.n, nil)
	first.MulVec(&expInv, l.b)

	decayed := mat.NewVecDense(l.n, nil)
	decayed.MulVec(&expNegATau, l.b)
	second := mat.NewVecDense(l.n, nil)
	second.MulVec(&expInv, decayed)

	du = mat.NewVecDense(l.n, nil)
	du.SubVec(first, second)

	return du, dtau, nil
}
