package checkpointer

import (
	"fmt"

	ts "github.com/samuelfneumann/selftrigger/timestep"
)

// nStep implements checkpointing every N decision steps, counted over
// the whole experiment rather than per episode
type nStep struct {
	interval int
	steps    int
	object   Saver

	// filename returns the filename of the file to save the object in.
	//
	// If each checkpoint should be saved in a separate file with an
	// incremented number as a suffix (e.g. file1.bin, ..., fileK.bin),
	// use FilenameEnumerator. If the filename does not matter, use
	// FileTimer. For example:
	//
	// n, err := NewNStep(10, object, FileTimer("filename", ".bin"))
	filename func() string
}

// NewNStep returns a checkpointer that checkpoints every n steps.
func NewNStep(n int, object Saver, filename func() string) (Checkpointer,
	error) {
	if n < 1 {
		return nil, fmt.Errorf("newnstep: interval must be positive, "+
			"have(%v)", n)
	}
	return &nStep{
		interval: n,
		object:   object,
		filename: filename,
	}, nil
}

// Checkpoint saves the weights of the Checkpointer's tracked object if
// a multiple of n steps have been taken
func (n *nStep) Checkpoint(t ts.TimeStep) error {
	if t.First() {
		return nil
	}

	n.steps++
	if n.steps%n.interval == 0 {
		if err := n.object.SaveWeights(n.filename()); err != nil {
			return fmt.Errorf("checkpoint: %v", err)
		}
	}
	return nil
}
