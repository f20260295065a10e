package expreplay

import (
	"fmt"
	"sync"

	"github.com/samuelfneumann/selftrigger/timestep"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// maxResamples bounds the number of times a single sample may be
// redrawn because it straddles an episode boundary
const maxResamples = 64

// ring is a fixed capacity FIFO of float64 rows stored contiguously
type ring struct {
	data   []float64
	cols   int
	start  int
	length int
	limit  int
}

func newRing(limit, cols int) *ring {
	return &ring{
		data:  make([]float64, limit*cols),
		cols:  cols,
		limit: limit,
	}
}

// push adds a row, evicting the oldest row if the ring is full
func (r *ring) push(row mat.Vector) {
	var pos int
	if r.length < r.limit {
		pos = (r.start + r.length) % r.limit
		r.length++
	} else {
		pos = r.start
		r.start = (r.start + 1) % r.limit
	}

	offset := pos * r.cols
	for j := 0; j < r.cols; j++ {
		r.data[offset+j] = row.AtVec(j)
	}
}

// at returns the row at logical index i, where index 0 is the oldest
// stored row. The returned slice aliases the ring.
func (r *ring) at(i int) []float64 {
	pos := (r.start + i) % r.limit
	return r.data[pos*r.cols : (pos+1)*r.cols]
}

// flags is a fixed capacity FIFO of scalars stored alongside a ring
type flags struct {
	rewards   []float64
	terminals []bool
	start     int
	length    int
	limit     int
}

func newFlags(limit int) *flags {
	return &flags{
		rewards:   make([]float64, limit),
		terminals: make([]bool, limit),
		limit:     limit,
	}
}

func (f *flags) push(reward float64, terminal bool) {
	var pos int
	if f.length < f.limit {
		pos = (f.start + f.length) % f.limit
		f.length++
	} else {
		pos = f.start
		f.start = (f.start + 1) % f.limit
	}
	f.rewards[pos] = reward
	f.terminals[pos] = terminal
}

func (f *flags) terminal(i int) bool {
	return f.terminals[(f.start+i)%f.limit]
}

func (f *flags) reward(i int) float64 {
	return f.rewards[(f.start+i)%f.limit]
}

// Sequential is a replay memory that stores observations in the order
// they are seen. Each stored entry holds an observation together with
// the action taken in it and the reward and terminal flag that
// followed, so that entry i and the observation of entry i+1 make up a
// transition.
//
// When an episode ends the final observation should still be appended
// with a zero reward. Entries directly following a terminal entry are
// then never used as the start of a transition, and states built from
// a window of observations never cross an episode boundary unless
// IgnoreEpisodeBoundaries is set.
//
// Sequential is safe for concurrent use.
type Sequential struct {
	mutex sync.Mutex

	windowLength int
	obsDims      int
	actionDims   int
	ignoreBounds bool

	observations *ring
	actions      *ring
	flags        *flags

	// Observations seen recently, whether or not they were stored for
	// training, used to build the current state
	recentObs   *ring
	recentFlags *flags

	rng *rand.Rand
}

// NewSequential returns a new Sequential memory which holds at most
// limit entries and builds states from windows of windowLength
// observations.
func NewSequential(limit, windowLength, obsDims, actionDims int,
	ignoreEpisodeBoundaries bool, seed uint64) (*Sequential, error) {
	if limit < 2 {
		return nil, fmt.Errorf("newsequential: limit must be at least 2, "+
			"have(%v)", limit)
	}
	if windowLength < 1 {
		return nil, fmt.Errorf("newsequential: window length must be "+
			"positive, have(%v)", windowLength)
	}
	if obsDims < 1 || actionDims < 1 {
		return nil, fmt.Errorf("newsequential: observation and action "+
			"dimensions must be positive, have(%v, %v)", obsDims, actionDims)
	}

	return &Sequential{
		windowLength: windowLength,
		obsDims:      obsDims,
		actionDims:   actionDims,
		ignoreBounds: ignoreEpisodeBoundaries,
		observations: newRing(limit, obsDims),
		actions:      newRing(limit, actionDims),
		flags:        newFlags(limit),
		recentObs:    newRing(windowLength, obsDims),
		recentFlags:  newFlags(windowLength),
		rng:          rand.New(rand.NewSource(seed)),
	}, nil
}

// Append stores an observation, the action taken in it, and the reward
// and terminal flag that followed. Observations appended with training
// set to false are only used to build recent states.
func (s *Sequential) Append(observation, action mat.Vector, reward float64,
	terminal, training bool) error {
	if observation.Len() != s.obsDims {
		return &MemoryError{
			Op: "append",
			Err: fmt.Errorf("%w: observation \n\twant(%v) \n\thave(%v)",
				errShape, s.obsDims, observation.Len()),
		}
	}
	if action.Len() != s.actionDims {
		return &MemoryError{
			Op: "append",
			Err: fmt.Errorf("%w: action \n\twant(%v) \n\thave(%v)",
				errShape, s.actionDims, action.Len()),
		}
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.recentObs.push(observation)
	s.recentFlags.push(reward, terminal)

	if training {
		s.observations.push(observation)
		s.actions.push(action)
		s.flags.push(reward, terminal)
	}
	return nil
}

// RecentState returns the state ending in observation, built from the
// most recently appended observations. Missing observations, at the
// start of an episode for example, are filled with zeroes.
func (s *Sequential) RecentState(observation mat.Vector) (*mat.VecDense,
	error) {
	if observation.Len() != s.obsDims {
		return nil, &MemoryError{
			Op: "recentState",
			Err: fmt.Errorf("%w: observation \n\twant(%v) \n\thave(%v)",
				errShape, s.obsDims, observation.Len()),
		}
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	state := make([]float64, s.windowLength*s.obsDims)
	last := s.windowLength - 1
	for j := 0; j < s.obsDims; j++ {
		state[last*s.obsDims+j] = observation.AtVec(j)
	}

	idx := s.recentObs.length - 1
	for offset := 0; offset < s.windowLength-1; offset++ {
		current := idx - offset
		if current < 0 {
			break
		}
		if !s.ignoreBounds && current-1 >= 0 &&
			s.recentFlags.terminal(current-1) {
			break
		}

		row := last - 1 - offset
		copy(state[row*s.obsDims:(row+1)*s.obsDims], s.recentObs.at(current))
	}

	return mat.NewVecDense(len(state), state), nil
}

// window fills dst with the window of stored observations ending at
// logical index end
func (s *Sequential) window(dst []float64, end int) {
	last := s.windowLength - 1
	copy(dst[last*s.obsDims:], s.observations.at(end))

	for offset := 0; offset < s.windowLength-1; offset++ {
		current := end - 1 - offset
		if current < 0 {
			break
		}
		if !s.ignoreBounds && current-1 >= 0 && s.flags.terminal(current-1) {
			break
		}

		row := last - 1 - offset
		copy(dst[row*s.obsDims:(row+1)*s.obsDims], s.observations.at(current))
	}
}

// Sample returns batchSize transitions sampled uniformly with
// replacement from the memory.
func (s *Sequential) Sample(batchSize int) ([]timestep.Transition, error) {
	if batchSize < 1 {
		return nil, &MemoryError{
			Op:  "sample",
			Err: fmt.Errorf("batch size must be positive, have(%v)", batchSize),
		}
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	n := s.observations.length
	if n == 0 {
		return nil, &MemoryError{Op: "sample", Err: errEmptyMemory}
	}
	if n-1 < batchSize {
		return nil, &MemoryError{
			Op: "sample",
			Err: fmt.Errorf("%w \n\twant(%v) \n\thave(%v)",
				errInsufficientSamples, batchSize, n-1),
		}
	}

	stateSize := s.windowLength * s.obsDims
	batch := make([]timestep.Transition, batchSize)
	for i := range batch {
		// Logical position p is the observation following the
		// transition, which starts at entry p-1
		var p int
		found := false
		for attempt := 0; attempt < maxResamples; attempt++ {
			p = 1 + s.rng.Intn(n-1)
			if p-2 < 0 || !s.flags.terminal(p-2) {
				found = true
				break
			}
		}
		if !found {
			return nil, &MemoryError{
				Op: "sample",
				Err: fmt.Errorf("could not sample a transition within an "+
					"episode after %v attempts", maxResamples),
			}
		}

		state0 := make([]float64, stateSize)
		s.window(state0, p-1)

		state1 := make([]float64, stateSize)
		copy(state1, state0[s.obsDims:])
		copy(state1[stateSize-s.obsDims:], s.observations.at(p))

		action := append([]float64(nil), s.actions.at(p-1)...)

		batch[i] = timestep.Transition{
			State0:    mat.NewVecDense(stateSize, state0),
			Action:    mat.NewVecDense(s.actionDims, action),
			Reward:    s.flags.reward(p - 1),
			State1:    mat.NewVecDense(stateSize, state1),
			Terminal1: s.flags.terminal(p - 1),
		}
	}
	return batch, nil
}

// Len returns the number of entries stored for training
func (s *Sequential) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.observations.length
}

// Transitions returns the number of complete transitions that can be
// sampled, which is one less than the number of stored entries
func (s *Sequential) Transitions() int {
	n := s.Len()
	if n == 0 {
		return 0
	}
	return n - 1
}

// WindowLength returns the number of observations making up a state
func (s *Sequential) WindowLength() int {
	return s.windowLength
}

// StateDims returns the number of features of a state built by the
// memory
func (s *Sequential) StateDims() int {
	return s.windowLength * s.obsDims
}
