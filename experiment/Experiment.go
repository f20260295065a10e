// Package experiment implements functionality for running an experiment
package experiment

import (
	"fmt"

	"github.com/samuelfneumann/selftrigger/agent"
	"github.com/samuelfneumann/selftrigger/environment"
	"github.com/samuelfneumann/selftrigger/environment/envconfig"
	"github.com/samuelfneumann/selftrigger/experiment/checkpointer"
	"github.com/samuelfneumann/selftrigger/experiment/tracker"
)

// Interface Experiment outlines structs that can run experiments.
// Experiments send each environment TimeStep to their Trackers, which
// cache the data they need so that it can be saved to disk with Save
// once the experiment is done. The Run() method runs episodes until the
// maximum number of decision steps is reached, while RunEpisode() runs
// a single episode.
type Experiment interface {
	Run() error

	// RunEpisode runs a single episode and returns whether the
	// experiment has reached its step limit
	RunEpisode() (bool, error)

	// Save all tracked data to disk
	Save() error

	// Adds a new tracker.Tracker to the (possibly already running)
	// experiment. Useful if you want to track data only after a
	// specified event.
	Register(t tracker.Tracker)

	// Steps returns the number of decision steps taken so far
	Steps() uint

	// Close releases the resources held by the agent
	Close() error
}

// Type is the type of an experiment
type Type string

const (
	OnlineExp Type = "OnlineExperiment"
)

// Config represents a configuration of an experiment.
type Config struct {
	Type
	MaxSteps  uint
	EnvConf   envconfig.Config
	AgentConf agent.TypedConfig
}

// Validate returns an error if the Config cannot describe an
// experiment
func (c Config) Validate() error {
	if c.Type != OnlineExp {
		return fmt.Errorf("validate: no such experiment type %v", c.Type)
	}
	if c.MaxSteps == 0 {
		return fmt.Errorf("validate: maximum steps must be positive")
	}
	if c.AgentConf.Config == nil {
		return fmt.Errorf("validate: missing agent configuration")
	}
	return c.AgentConf.Validate()
}

// CreateEnvAgent creates the environment and agent described by the
// Config
func (c Config) CreateEnvAgent(seed uint64) (environment.Environment,
	agent.Agent, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, fmt.Errorf("createEnvAgent: %v", err)
	}

	env, _, err := c.EnvConf.Create(seed)
	if err != nil {
		return nil, nil, fmt.Errorf("createEnvAgent: could not create "+
			"environment: %v", err)
	}

	a, err := c.AgentConf.CreateAgent(env, seed)
	if err != nil {
		return nil, nil, fmt.Errorf("createEnvAgent: could not create "+
			"agent: %v", err)
	}
	return env, a, nil
}

// CreateExp creates the experiment described by the Config, with the
// given Trackers and Checkpointers. Checkpointers that need the agent
// can be created afterwards from Online.Agent and added with
// AddCheckpointer.
func (c Config) CreateExp(seed uint64, t []tracker.Tracker,
	check []checkpointer.Checkpointer) (Experiment, error) {
	env, a, err := c.CreateEnvAgent(seed)
	if err != nil {
		return nil, fmt.Errorf("createExp: %v", err)
	}

	switch c.Type {
	case OnlineExp:
		return NewOnline(env, a, c.MaxSteps, t, check), nil
	}

	return nil, fmt.Errorf("createExp: no such experiment type %v", c.Type)
}
