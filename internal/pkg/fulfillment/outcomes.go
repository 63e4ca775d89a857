package fulfillment

import (
	"errors"
	"fmt"
)

// Class separates pipeline failures by what the caller should do with
// them: fatal errors need human attention, retryable errors are safe to
// replay because every step is guarded against duplicate effects.
type Class int

const (
	// ClassRetryable marks transient faults (generation transport,
	// datastore, auth provider). The whole Fulfill call may be replayed.
	ClassRetryable Class = iota
	// ClassFatal marks data-integrity violations (missing order or
	// intake, invalid generated document). Replaying cannot fix these.
	ClassFatal
)

func (c Class) String() string {
	if c == ClassFatal {
		return "fatal"
	}
	return "retryable"
}

// StepError is a classified failure of one orchestration step.
type StepError struct {
	Step  string
	Class Class
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("fulfillment step %s (%s): %v", e.Step, e.Class, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func fatal(step string, err error) error {
	return &StepError{Step: step, Class: ClassFatal, Err: err}
}

func retryable(step string, err error) error {
	return &StepError{Step: step, Class: ClassRetryable, Err: err}
}

// IsFatal reports whether err is a classified fatal pipeline failure.
// Anything else, including unclassified errors, counts as retryable.
func IsFatal(err error) bool {
	var se *StepError
	if errors.As(err, &se) {
		return se.Class == ClassFatal
	}
	return false
}
