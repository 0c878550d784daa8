package runloop

import (
	"errors"
	"fmt"
)

// Stage names the step of a run that failed.
type Stage string

const (
	StageParse    Stage = "parse"
	StageLoad     Stage = "load"
	StageGenerate Stage = "generate"
)

// RunError is a failure confined to one input line. The loop reports it
// and moves on to the next line.
type RunError struct {
	Stage Stage
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Stage, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

func newRunError(stage Stage, err error) *RunError {
	return &RunError{Stage: stage, Err: err}
}

// IsRunError checks if an error is (or wraps) a RunError and returns it if so.
func IsRunError(err error) (*RunError, bool) {
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr, true
	}
	return nil, false
}
