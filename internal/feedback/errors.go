package feedback

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a task id is unknown.
	ErrNotFound = errors.New("task not found")
	// ErrInvalidInput is returned for unusable submissions.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAlreadyTerminal is returned when a status update targets a task that
	// already succeeded or failed. Terminal rows are never rewritten.
	ErrAlreadyTerminal = errors.New("task already terminal")
)

// TaskFailedError reports that the pipeline failed and the failure was
// recorded on the task. The queue message should not be redelivered.
type TaskFailedError struct {
	TaskID string
	Err    error
}

func (e *TaskFailedError) Error() string {
	return fmt.Sprintf("task %s failed: %v", e.TaskID, e.Err)
}

func (e *TaskFailedError) Unwrap() error {
	return e.Err
}
