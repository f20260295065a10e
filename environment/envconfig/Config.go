// Package envconfig provides configuration structs for configuring
// environments with default physical parameters and tasks. Environment
// configurations in this package are JSON serializable.
package envconfig

import (
	"fmt"

	env "github.com/samuelfneumann/selftrigger/environment"
	"github.com/samuelfneumann/selftrigger/environment/classiccontrol/pendulum"
	"github.com/samuelfneumann/selftrigger/environment/linearsystem"
	ts "github.com/samuelfneumann/selftrigger/timestep"
)

// EnvName stores the name of environments that can be configured with
// this package
type EnvName string

// Environments available for configuration
const (
	LinearSystem EnvName = "LinearSystem"
	Pendulum     EnvName = "Pendulum"
)

// TaskName stores the tasks that can be configured with this package.
// Note that not all tasks can be used with all environments. The tasks
// that can be used with each environment are as follows:
//
//	Environment			Task
//	LinearSystem		Regulate
//	Pendulum			Stabilise
type TaskName string

// Tasks available for configuration
const (
	Regulate  TaskName = "Regulate"
	Stabilise TaskName = "Stabilise"
)

// Config implements a specific configuration of a specific environment
// and specific task. Not all environments can have all tasks.
type Config struct {
	Environment EnvName
	Task        TaskName

	// Episodes end after EpisodeCutoff decisions or TimeHorizon units
	// of simulated time, whichever comes first. Zero disables a limit.
	EpisodeCutoff uint
	TimeHorizon   float64

	Discount       float64
	NoiseScale     float64
	IntervalReward float64
}

// NewConfig returns a new environment Config
func NewConfig(envName EnvName, taskName TaskName, episodeCutoff uint,
	timeHorizon, discount, noiseScale, intervalReward float64) Config {
	return Config{
		Environment:    envName,
		Task:           taskName,
		EpisodeCutoff:  episodeCutoff,
		TimeHorizon:    timeHorizon,
		Discount:       discount,
		NoiseScale:     noiseScale,
		IntervalReward: intervalReward,
	}
}

// ender returns the episode termination rule of the Config
func (c Config) ender() env.Ender {
	return env.Enders{
		env.NewStepLimit(int(c.EpisodeCutoff)),
		env.NewTimeLimit(c.TimeHorizon),
	}
}

// Create returns the environment described by the Config as well as
// the first timestep of the environment.
func (c Config) Create(seed uint64) (env.Environment, ts.TimeStep, error) {
	switch c.Environment {
	case LinearSystem:
		return CreateLinearSystem(c.Task, c.ender(), seed, c.Discount,
			c.NoiseScale, c.IntervalReward)

	case Pendulum:
		return CreatePendulum(c.Task, c.ender(), seed, c.Discount,
			c.NoiseScale, c.IntervalReward)
	}

	return nil, ts.TimeStep{}, fmt.Errorf("create: cannot create "+
		"environment %v, no such environment", c.Environment)
}

// CreateLinearSystem is a factory for creating the LinearSystem
// environment with default physical parameters and default task
// parameters.
func CreateLinearSystem(taskName TaskName, ender env.Ender, seed uint64,
	discount, noiseScale, intervalReward float64) (env.Environment,
	ts.TimeStep, error) {
	s := linearsystem.NewDefaultStarter(seed)

	var task env.Task
	switch taskName {
	case Regulate:
		task = linearsystem.NewRegulate(s, ender, intervalReward)

	default:
		return nil, ts.TimeStep{}, fmt.Errorf("createLinearSystem: "+
			"LinearSystem environment has no task %v", taskName)
	}

	e, step, err := linearsystem.New(task, discount, noiseScale, seed)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("createLinearSystem: %v", err)
	}
	return e, step, nil
}

// CreatePendulum is a factory for creating the Pendulum environment
// with default physical parameters and default task parameters.
func CreatePendulum(taskName TaskName, ender env.Ender, seed uint64,
	discount, noiseScale, intervalReward float64) (env.Environment,
	ts.TimeStep, error) {
	s := pendulum.NewDefaultStarter(seed)

	var task env.Task
	switch taskName {
	case Stabilise:
		task = pendulum.NewStabilise(s, ender, intervalReward)

	default:
		return nil, ts.TimeStep{}, fmt.Errorf("createPendulum: Pendulum "+
			"environment has no task %v", taskName)
	}

	e, step, err := pendulum.New(task, discount, noiseScale, seed)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("createPendulum: %v", err)
	}
	return e, step, nil
}
