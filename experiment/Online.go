package experiment

import (
	"fmt"

	"github.com/samuelfneumann/selftrigger/agent"
	env "github.com/samuelfneumann/selftrigger/environment"
	"github.com/samuelfneumann/selftrigger/experiment/checkpointer"
	"github.com/samuelfneumann/selftrigger/experiment/tracker"
	ts "github.com/samuelfneumann/selftrigger/timestep"
)

// Online is an Experiment that runs an agent online only. No offline
// evaluation is performed unless Evaluate is called.
//
// When an episode ends, the final observation is given to the agent
// with a zero reward so that the last transition of the episode can be
// learned from, after which the per-episode state of the agent is
// reset.
type Online struct {
	env.Environment
	agent.Agent
	maxSteps      uint
	currentSteps  uint
	trackers      []tracker.Tracker
	checkpointers []checkpointer.Checkpointer
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given agent. The steps parameter determines how
// many decision steps the experiment is run for, the t parameter
// determines what data is tracked, and the c parameter determines when
// the agent is checkpointed.
func NewOnline(e env.Environment, a agent.Agent, steps uint,
	t []tracker.Tracker, c []checkpointer.Checkpointer) *Online {
	return &Online{
		Environment:   e,
		Agent:         a,
		maxSteps:      steps,
		trackers:      t,
		checkpointers: c,
	}
}

// Register registers a tracker.Tracker with an Experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// AddCheckpointer adds a checkpointer.Checkpointer to the experiment
func (o *Online) AddCheckpointer(c checkpointer.Checkpointer) {
	o.checkpointers = append(o.checkpointers, c)
}

// Steps returns the number of decision steps taken so far
func (o *Online) Steps() uint {
	return o.currentSteps
}

// RunEpisode runs a single episode of the experiment
func (o *Online) RunEpisode() (bool, error) {
	step, err := o.Environment.Reset()
	if err != nil {
		return false, fmt.Errorf("runEpisode: could not reset "+
			"environment: %v", err)
	}
	o.track(step)

	last := false
	for !last && o.currentSteps < o.maxSteps {
		o.currentSteps++

		output, err := o.Agent.Forward(step.Observation)
		if err != nil {
			return false, fmt.Errorf("runEpisode: %v", err)
		}

		step, last, err = o.Environment.Step(output)
		if err != nil {
			return false, fmt.Errorf("runEpisode: %v", err)
		}
		o.track(step)

		metrics, err := o.Agent.Backward(step.Reward, last)
		if err != nil {
			return false, fmt.Errorf("runEpisode: %v", err)
		}
		o.trackMetrics(metrics)

		if err := o.checkpoint(step); err != nil {
			return false, fmt.Errorf("runEpisode: %v", err)
		}
	}

	if last {
		if err := o.finishEpisode(step); err != nil {
			return false, fmt.Errorf("runEpisode: %v", err)
		}
	}
	o.Agent.ResetStates(false)

	return o.currentSteps >= o.maxSteps, nil
}

// finishEpisode gives the final observation of an episode to the
// agent, which stores it without learning from it
func (o *Online) finishEpisode(step ts.TimeStep) error {
	if _, err := o.Agent.Forward(step.Observation); err != nil {
		return err
	}
	_, err := o.Agent.Backward(0, false)
	return err
}

// Run runs the entire experiment for all timesteps
func (o *Online) Run() error {
	for {
		ended, err := o.RunEpisode()
		if err != nil {
			return err
		}
		if ended {
			return nil
		}
	}
}

// Evaluate runs episodes with the agent in evaluation mode and returns
// the return of each. Evaluation episodes are neither tracked nor
// counted towards the experiment's step limit, and at most maxSteps
// decisions are taken per episode.
func (o *Online) Evaluate(episodes int, maxSteps uint) ([]float64, error) {
	wasEval := o.Agent.IsEval()
	o.Agent.Eval()
	defer func() {
		if !wasEval {
			o.Agent.Train()
		}
	}()

	returns := make([]float64, 0, episodes)
	for i := 0; i < episodes; i++ {
		step, err := o.Environment.Reset()
		if err != nil {
			return returns, fmt.Errorf("evaluate: %v", err)
		}

		var episodeReturn float64
		last := false
		for n := uint(0); !last && n < maxSteps; n++ {
			output, err := o.Agent.Forward(step.Observation)
			if err != nil {
				return returns, fmt.Errorf("evaluate: %v", err)
			}
			if step, last, err = o.Environment.Step(output); err != nil {
				return returns, fmt.Errorf("evaluate: %v", err)
			}
			if _, err := o.Agent.Backward(step.Reward, last); err != nil {
				return returns, fmt.Errorf("evaluate: %v", err)
			}
			episodeReturn += step.Reward
		}

		if last {
			if err := o.finishEpisode(step); err != nil {
				return returns, fmt.Errorf("evaluate: %v", err)
			}
		}
		o.Agent.ResetStates(false)
		returns = append(returns, episodeReturn)
	}
	return returns, nil
}

// Save saves all the data cached by the Trackers to disk
func (o *Online) Save() error {
	for _, t := range o.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return nil
}

// Close closes the agent if it must be closed
func (o *Online) Close() error {
	if c, ok := o.Agent.(agent.Closer); ok {
		return c.Close()
	}
	return nil
}

// track tracks the current timestep by caching its data in each
// Tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tr := range o.trackers {
		tr.Track(t)
	}
}

// trackMetrics sends the metrics of the last decision to each Tracker
// that tracks metrics
func (o *Online) trackMetrics(metrics []float64) {
	// Backward has already advanced the step counter
	step := o.Agent.Step() - 1
	names := o.Agent.MetricsNames()
	for _, tr := range o.trackers {
		if m, ok := tr.(tracker.MetricsTracker); ok {
			m.TrackMetrics(step, names, metrics)
		}
	}
}

// checkpoint checkpoints the agent with each Checkpointer
func (o *Online) checkpoint(t ts.TimeStep) error {
	for _, c := range o.checkpointers {
		if err := c.Checkpoint(t); err != nil {
			return err
		}
	}
	return nil
}
