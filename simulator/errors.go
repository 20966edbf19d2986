package simulator

import (
	"errors"
	"fmt"
)

// SimError is a custom error type for simulation errors
type SimError struct {
	Message string
	Err     error
}

func (e SimError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("simulation error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("simulation error: %s", e.Message)
}

func (e SimError) Unwrap() error { return e.Err }

// ErrStepLimit is returned by Run when the step budget is exhausted before
// every process has completed.
var ErrStepLimit = errors.New("step limit reached")

// ErrInvalidConfig creates an error for invalid configuration
func ErrInvalidConfig(msg string) error {
	return SimError{Message: fmt.Sprintf("invalid config: %s", msg)}
}

// InvariantError reports a broken scheduling contract detected by the
// invariant checks. It always indicates a programming error.
type InvariantError struct {
	Step    int
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated at step %d: %s", e.Step, e.Message)
}

func invariantf(step int, format string, args ...interface{}) error {
	return &InvariantError{Step: step, Message: fmt.Sprintf(format, args...)}
}
