package generator

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyWorkflow is returned when no steps could be parsed from the explanation.
	ErrEmptyWorkflow = errors.New("no workflow steps found in explanation")

	// ErrDuplicateStep is returned when two lines claim the same step number.
	ErrDuplicateStep = errors.New("duplicate step number")

	// ErrInvalidOptions is returned when platform or approach is not recognized.
	ErrInvalidOptions = errors.New("invalid generation options")
)

// DuplicateStepError reports which step numbers appear more than once.
type DuplicateStepError struct {
	Numbers []int // 1-based step numbers
}

func (e *DuplicateStepError) Error() string {
	return fmt.Sprintf("%v: %v", ErrDuplicateStep, e.Numbers)
}

func (e *DuplicateStepError) Unwrap() error {
	return ErrDuplicateStep
}
