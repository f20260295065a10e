package trackers

import (
	"fmt"
	"path/filepath"

	"github.com/samuelfneumann/selftrigger/environment/render"
	ts "github.com/samuelfneumann/selftrigger/timestep"
)

// Render is a Tracker which draws every n-th finished episode to a PNG
// image in a directory. The interval chosen at each decision is
// recovered from the simulated time elapsed until the next decision.
type Render struct {
	trajectory    *render.Trajectory
	dir           string
	every         int
	width, height int

	episode int
	prev    ts.TimeStep
	started bool
	err     error
}

// NewRender returns a new Render Tracker which draws the episodes
// 0, every, 2*every, ... of trajectory into dir
func NewRender(trajectory *render.Trajectory, dir string, every, width,
	height int) (*Render, error) {
	if every < 1 {
		return nil, fmt.Errorf("newrender: every must be positive, "+
			"have(%v)", every)
	}
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("newrender: image size must be positive, "+
			"have(%v, %v)", width, height)
	}

	return &Render{
		trajectory: trajectory,
		dir:        dir,
		every:      every,
		width:      width,
		height:     height,
	}, nil
}

// Track records the previous timestep together with the interval that
// led to step, and draws the episode once it is finished
func (r *Render) Track(step ts.TimeStep) {
	if r.err != nil {
		return
	}

	if step.First() {
		r.trajectory.Reset()
		r.prev = step
		r.started = true
		return
	}
	if !r.started {
		return
	}

	drawn := r.episode%r.every == 0
	if drawn {
		r.err = r.trajectory.Record(r.prev, step.Elapsed-r.prev.Elapsed)
	}
	r.prev = step

	if step.Last() {
		if drawn && r.err == nil {
			if r.err = r.trajectory.Record(step, 0); r.err == nil {
				r.err = r.trajectory.SavePNG(r.filename(r.episode), r.width,
					r.height)
			}
		}
		r.episode++
		r.started = false
	}
}

func (r *Render) filename(episode int) string {
	return filepath.Join(r.dir, fmt.Sprintf("episode%d.png", episode))
}

// Save returns the first error encountered while drawing episodes.
// Images are written as episodes finish.
func (r *Render) Save() error {
	if r.err != nil {
		return fmt.Errorf("save: %v", r.err)
	}
	return nil
}
