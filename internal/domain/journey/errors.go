package journey

import (
	"errors"
	"fmt"
)

var (
	// ErrStepNotFound is returned when a step is not registered
	ErrStepNotFound = errors.New("step not found")

	// ErrDuplicateURL is returned when two steps are registered under one URL
	ErrDuplicateURL = errors.New("step url already registered")

	// ErrInvalidStep is returned when a step definition is missing its name or URL
	ErrInvalidStep = errors.New("invalid step definition")

	// ErrConditionTimeout is returned when a route condition does not finish in time
	ErrConditionTimeout = errors.New("route condition timed out")

	// ErrNilCondition is returned when a conditional route has no condition
	ErrNilCondition = errors.New("route condition is nil")

	// ErrCycle is returned when a walk revisits a step
	ErrCycle = errors.New("journey walk revisited a step")
)

// ConditionError reports a route condition that failed to evaluate.
// It is never treated as a false condition.
type ConditionError struct {
	Step  StepName
	Route int
	Err   error
}

func (e *ConditionError) Error() string {
	return fmt.Sprintf("condition %d of step %s: %v", e.Route, e.Step, e.Err)
}

func (e *ConditionError) Unwrap() error {
	return e.Err
}
