package pendulum

import (
	"math"
	"testing"

	"github.com/samuelfneumann/selftrigger/environment"
	"gonum.org/v1/gonum/mat"
)

type fixedStarter []float64

func (f fixedStarter) Start() *mat.VecDense {
	return mat.NewVecDense(len(f), append([]float64(nil), f...))
}

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{math.Pi / 2, math.Pi / 2},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-3 * math.Pi / 2, math.Pi / 2},
		{7 * math.Pi / 2, -math.Pi / 2},
	}

	for _, test := range tests {
		if have := normalizeAngle(test.in); math.Abs(have-test.want) > 1e-9 {
			t.Errorf("normalize(%v) \n\twant(%v) \n\thave(%v)", test.in,
				test.want, have)
		}
	}
}

func TestDeterministicStep(t *testing.T) {
	task := NewStabilise(fixedStarter{0.1, 0}, environment.NewStepLimit(0), 0)
	env, _, err := New(task, 1, 0, 1)
	if err != nil {
		t.Fatal(err)
	}

	dt := 0.05
	step, _, err := env.Step(mat.NewVecDense(2, []float64{1, dt}))
	if err != nil {
		t.Fatal(err)
	}

	wantThdot := (-3*Gravity/2*math.Sin(0.1+math.Pi) + 3*1) * dt
	wantTh := 0.1 + wantThdot*dt
	if math.Abs(step.Observation.AtVec(1)-wantThdot) > 1e-12 {
		t.Errorf("theta dot \n\twant(%v) \n\thave(%v)", wantThdot,
			step.Observation.AtVec(1))
	}
	if math.Abs(step.Observation.AtVec(0)-wantTh) > 1e-12 {
		t.Errorf("theta \n\twant(%v) \n\thave(%v)", wantTh,
			step.Observation.AtVec(0))
	}

	wantReward := -(0.01 + 0.01)
	if math.Abs(step.Reward-wantReward) > 1e-12 {
		t.Errorf("reward \n\twant(%v) \n\thave(%v)", wantReward, step.Reward)
	}
}

func TestSpeedIsClipped(t *testing.T) {
	task := NewStabilise(fixedStarter{0, 0}, environment.NewStepLimit(0), 0)
	env, _, err := New(task, 1, 1, 1)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 200; i++ {
		step, _, err := env.Step(mat.NewVecDense(2, []float64{TorqueBound, 1}))
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(step.Observation.AtVec(1)) > SpeedBound {
			t.Fatalf("speed %v exceeds bound", step.Observation.AtVec(1))
		}
		if math.Abs(step.Observation.AtVec(0)) > AngleBound {
			t.Fatalf("angle %v exceeds bound", step.Observation.AtVec(0))
		}
	}
}

func TestInvalidStart(t *testing.T) {
	task := NewStabilise(fixedStarter{0, 100}, environment.NewStepLimit(0), 0)
	if _, _, err := New(task, 1, 0, 1); err == nil {
		t.Error("expected error for starting speed out of bounds")
	}
}
