package derive

import (
	"errors"
	"fmt"
)

var (
	// ErrInterrupted is matched by *InterruptedError.
	ErrInterrupted = errors.New("derivation interrupted")

	// ErrStep is matched by *StepError.
	ErrStep = errors.New("derivation step failed")
)

// InterruptedError is returned when the context is done at a suspension
// point. State is the last fully completed state and can be resumed.
type InterruptedError struct {
	State State
	Err   error
}

func (e *InterruptedError) Error() string {
	return fmt.Sprintf("derivation interrupted at round %d of %d: %v", e.State.Index, e.State.StepCount, e.Err)
}

// Unwrap returns the context error.
func (e *InterruptedError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *InterruptedError) Is(target error) bool {
	return target == ErrInterrupted
}

// StepError is returned when the step function fails. State is the last
// state that completed successfully; the failing round is State.Index+1.
type StepError struct {
	State State
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("derivation round %d failed: %v", e.State.Index+1, e.Err)
}

// Unwrap returns the step function error.
func (e *StepError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *StepError) Is(target error) bool {
	return target == ErrStep
}
