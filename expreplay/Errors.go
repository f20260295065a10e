package expreplay

import "errors"

// MemoryError implements errors unique to a replay memory.
type MemoryError struct {
	Op  string
	Err error
}

// Error satisfies the error interface
func (e *MemoryError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *MemoryError) Unwrap() error {
	return e.Err
}

var errEmptyMemory = errors.New("memory empty")

var errInsufficientSamples = errors.New("fewer transitions stored than " +
	"requested")

var errShape = errors.New("vector has the wrong shape")

// IsInsufficientSamples returns whether or not an error reports that
// there are too few transitions in a memory to sample a batch.
func IsInsufficientSamples(err error) bool {
	return errors.Is(err, errInsufficientSamples)
}

// IsEmptyMemory returns whether or not an error reports that a memory
// is empty.
func IsEmptyMemory(err error) bool {
	return errors.Is(err, errEmptyMemory)
}

// IsShape returns whether or not an error reports a vector with the
// wrong dimensions being given to a memory.
func IsShape(err error) bool {
	return errors.Is(err, errShape)
}
