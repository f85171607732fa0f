package slowcipher

import (
	"errors"
	"fmt"

	"github.com/slowcipher/slowcipher-go/internal/crypto"
	"github.com/slowcipher/slowcipher-go/internal/derive"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrValidation is returned when arguments are rejected before any
	// computation starts.
	ErrValidation = errors.New("validation failed")

	// ErrPrimitive is returned when the derivation primitive or the cipher
	// rejects its input.
	ErrPrimitive = errors.New("primitive failed")

	// ErrInterrupted is returned when the context is cancelled during a
	// derivation.
	ErrInterrupted = errors.New("derivation interrupted")

	// ErrCheckpoint identifies a checkpoint persistence failure. These are
	// never returned from derivation calls; see WithCheckpointErrorHandler.
	ErrCheckpoint = errors.New("checkpoint persistence failed")
)

// SlowCipherError is implemented by all errors returned by this package.
type SlowCipherError interface {
	error
	SlowCipherError() // marker method
}

// DerivationState is a resumable point in the derivation chain: ValueHex
// is the derived key after Index of StepCount rounds.
type DerivationState struct {
	ValueHex  string
	Index     int
	StepCount int
}

func stateFromDerive(s derive.State) DerivationState {
	return DerivationState{
		ValueHex:  crypto.BytesToHex(s.Value),
		Index:     s.Index,
		StepCount: s.StepCount,
	}
}

// ValidationError contains multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Errors)
}

// Is implements errors.Is for sentinel error matching.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// SlowCipherError implements the SlowCipherError interface.
func (e *ValidationError) SlowCipherError() {}

// PrimitiveError reports a failure of the derivation primitive or the
// cipher. For derivation failures State holds the last completed round,
// which remains valid and resumable.
type PrimitiveError struct {
	Stage string // "derive", "encrypt", "decrypt"
	State *DerivationState
	Err   error
}

func (e *PrimitiveError) Error() string {
	if e.State != nil {
		return fmt.Sprintf("%s failed after round %d of %d: %v", e.Stage, e.State.Index, e.State.StepCount, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *PrimitiveError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *PrimitiveError) Is(target error) bool {
	return target == ErrPrimitive
}

// SlowCipherError implements the SlowCipherError interface.
func (e *PrimitiveError) SlowCipherError() {}

// InterruptedError is returned when the context is cancelled between
// rounds. State is the last completed round; pass State.ValueHex and
// State.Index back as keyHex and startIndex to continue.
type InterruptedError struct {
	State DerivationState
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

// SlowCipherError implements the SlowCipherError interface.
func (e *InterruptedError) SlowCipherError() {}

// CheckpointError reports a failed checkpoint store operation. It never
// aborts a derivation.
type CheckpointError struct {
	Op        string // "get", "set"
	SessionID string
	Err       error
}

func (e *CheckpointError) Error() string {
	return fmt.Sprintf("checkpoint %s for session %s: %v", e.Op, e.SessionID, e.Err)
}

// Unwrap returns the underlying error.
func (e *CheckpointError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *CheckpointError) Is(target error) bool {
	return target == ErrCheckpoint
}

// SlowCipherError implements the SlowCipherError interface.
func (e *CheckpointError) SlowCipherError() {}

// wrapError converts internal derivation errors to public errors.
// This ensures that errors.Is() checks work with public sentinel errors.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var interrupted *derive.InterruptedError
	if errors.As(err, &interrupted) {
		return &InterruptedError{
			State: stateFromDerive(interrupted.State),
			Err:   interrupted.Err,
		}
	}

	var stepErr *derive.StepError
	if errors.As(err, &stepErr) {
		state := stateFromDerive(stepErr.State)
		return &PrimitiveError{
			Stage: "derive",
			State: &state,
			Err:   stepErr.Err,
		}
	}

	return err
}
