package envconfig

import (
	"encoding/json"
	"testing"
)

func TestCreate(t *testing.T) {
	tests := []struct {
		config string
		valid  bool
	}{
		{`{"Environment": "LinearSystem", "Task": "Regulate",
			"EpisodeCutoff": 200, "Discount": 1, "NoiseScale": 1}`, true},
		{`{"Environment": "Pendulum", "Task": "Stabilise",
			"TimeHorizon": 20, "Discount": 1, "IntervalReward": 0.1}`, true},
		{`{"Environment": "Pendulum", "Task": "Regulate"}`, false},
		{`{"Environment": "Acrobot", "Task": "SwingUp"}`, false},
	}

	for i, test := range tests {
		var c Config
		if err := json.Unmarshal([]byte(test.config), &c); err != nil {
			t.Fatal(err)
		}

		e, step, err := c.Create(1)
		if (err == nil) != test.valid {
			t.Errorf("config %v: \n\twant(valid=%v) \n\thave(%v)", i,
				test.valid, err)
			continue
		}
		if !test.valid {
			continue
		}

		if !step.First() {
			t.Errorf("config %v: first timestep has type %v", i,
				step.StepType)
		}
		if e.ActionSpec().ControlDims() != 1 {
			t.Errorf("config %v: control dims \n\twant(%v) \n\thave(%v)", i,
				1, e.ActionSpec().ControlDims())
		}
	}
}
