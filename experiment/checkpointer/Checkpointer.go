// Package checkpointer implements Checkpointers, which periodically
// save the weights of an agent during an experiment
package checkpointer

import (
	ts "github.com/samuelfneumann/selftrigger/timestep"
)

// Saver is an object whose weights can be saved to disk
type Saver interface {
	SaveWeights(path string) error
}

// Checkpointer checkpoints/saves objects based on timestep.TimeSteps.
// Checkpoint is called once for every decision step of an experiment.
type Checkpointer interface {
	Checkpoint(ts.TimeStep) error
}
