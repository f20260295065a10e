package trackers

import (
	"github.com/samuelfneumann/selftrigger/experiment/tracker"
	"github.com/samuelfneumann/selftrigger/timestep"
)

// Interval tracks and saves the mean trigger interval of each episode,
// that is the simulated time of the episode divided by the number of
// decisions taken in it. Larger values mean the agent communicated
// with the plant less often.
//
// An episode must finish for this Tracker to save its data.
type Interval struct {
	meanIntervals []float64
	filename      string
}

// NewInterval returns a new Interval Tracker which saves its data to
// filename
func NewInterval(filename string) *Interval {
	return &Interval{filename: filename}
}

// Track caches the mean interval of an episode when its last timestep
// is tracked
func (i *Interval) Track(t timestep.TimeStep) {
	if t.Last() && t.Number > 0 {
		i.meanIntervals = append(i.meanIntervals, t.Elapsed/float64(t.Number))
	}
}

// Data returns the mean interval of all finished episodes
func (i *Interval) Data() []float64 {
	return append([]float64(nil), i.meanIntervals...)
}

// Save saves the data tracked by the Interval Tracker to disk
func (i *Interval) Save() error {
	return tracker.SaveData(i.filename, i.meanIntervals)
}
