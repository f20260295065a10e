package environment

import "github.com/samuelfneumann/selftrigger/timestep"

// TimeLimit implements the Ender interface to end episodes once a
// horizon of simulated time has elapsed. Since the agent chooses how
// long each action is held, a time limit bounds episodes independently
// of the number of decisions taken.
type TimeLimit struct {
	horizon float64
}

// NewTimeLimit returns a new TimeLimit ending episodes after horizon
// units of simulated time
func NewTimeLimit(horizon float64) TimeLimit {
	return TimeLimit{horizon}
}

// End determines whether or not the current episode should be ended
func (l TimeLimit) End(t *timestep.TimeStep) bool {
	if l.horizon > 0 && t.Elapsed >= l.horizon {
		t.StepType = timestep.Last
		return true
	}
	return false
}

// Enders combines multiple Enders, ending an episode when any of them
// does
type Enders []Ender

// End determines whether or not the current episode should be ended
func (e Enders) End(t *timestep.TimeStep) bool {
	end := false
	for _, ender := range e {
		if ender.End(t) {
			end = true
		}
	}
	return end
}
