package selfddpg

import (
	"sync"
)

// TrainInfo describes a single training step of a SelfDDPG agent
type TrainInfo struct {
	Step    int
	Metrics []float64

	// Global L2 norms of the gradients before clipping, NaN if the
	// corresponding network was not trained in the step
	CriticGradNorm   float64
	ActionGradNorm   float64
	IntervalGradNorm float64

	// Flattened policy weights after the step, only recorded if
	// requested in the Config
	Params []float64
}

// Hook is called by a SelfDDPG agent after every training step
type Hook interface {
	Record(TrainInfo)
}

// RingHook keeps the most recent TrainInfos up to a fixed capacity.
// RingHook is safe for concurrent use so that the recorded steps can
// be read while an agent trains.
type RingHook struct {
	mutex    sync.Mutex
	entries  []TrainInfo
	next     int
	full     bool
	capacity int
}

// NewRingHook returns a new RingHook which keeps the last capacity
// entries. capacity must be positive.
func NewRingHook(capacity int) *RingHook {
	if capacity < 1 {
		panic("newringhook: capacity must be positive")
	}
	return &RingHook{
		entries:  make([]TrainInfo, capacity),
		capacity: capacity,
	}
}

// Record implements the Hook interface
func (r *RingHook) Record(info TrainInfo) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.entries[r.next] = info
	r.next = (r.next + 1) % r.capacity
	if r.next == 0 {
		r.full = true
	}
}

// Len returns the number of recorded entries
func (r *RingHook) Len() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.full {
		return r.capacity
	}
	return r.next
}

// Entries returns the recorded entries from oldest to newest
func (r *RingHook) Entries() []TrainInfo {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.full {
		return append([]TrainInfo(nil), r.entries[:r.next]...)
	}

	out := make([]TrainInfo, 0, r.capacity)
	out = append(out, r.entries[r.next:]...)
	return append(out, r.entries[:r.next]...)
}
