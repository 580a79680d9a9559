package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrOperationFailed is reported when a failure carries no specific reason.
var ErrOperationFailed = errors.New("operation failed")

// ErrLockAcquire is returned when a publish lock cannot be acquired.
var ErrLockAcquire = errors.New("failed to acquire lock")

// SpawnError is returned when an external process could not be launched
// (executable not found, permission denied, bad working directory).
type SpawnError struct {
	Command Command
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Command.String(), e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// ExitError is returned by Result.Check when a process exited with a non-zero status.
// Runners never return it on their own.
type ExitError struct {
	Command  Command
	ExitCode int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Command.String(), e.ExitCode)
}

// MalformedTemplateError reports unbalanced marker syntax in a template document.
type MalformedTemplateError struct {
	Line   int
	Column int
	Reason string
}

func (e *MalformedTemplateError) Error() string {
	return fmt.Sprintf("malformed template at %d:%d: %s", e.Line, e.Column, e.Reason)
}

// TaskNotFoundError is returned when a task (or prerequisite) name is not registered.
type TaskNotFoundError struct {
	Name string
	// RequiredBy is the task that referenced Name, empty for top-level invocations.
	RequiredBy string
}

func (e *TaskNotFoundError) Error() string {
	if e.RequiredBy != "" {
		return fmt.Sprintf("task %q not found (required by %q)", e.Name, e.RequiredBy)
	}
	return fmt.Sprintf("task %q not found", e.Name)
}

// CycleError is returned when a task appears twice on its own prerequisite path.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "task cycle detected: " + strings.Join(e.Path, " -> ")
}

// ChainFailure is returned by a step chain whose step failed and no recovery
// handler was installed.
type ChainFailure struct {
	Chain string
	Step  string
	Index int
	Err   error
}

func (e *ChainFailure) Error() string {
	cause := e.Err
	if cause == nil {
		cause = ErrOperationFailed
	}
	if e.Chain == "" {
		return fmt.Sprintf("step %q failed: %v", e.Step, cause)
	}
	return fmt.Sprintf("%s: step %q failed: %v", e.Chain, e.Step, cause)
}

func (e *ChainFailure) Unwrap() error {
	if e.Err == nil {
		return ErrOperationFailed
	}
	return e.Err
}

// TaskError records which task a failure escaped from.
type TaskError struct {
	Task string
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %q: %v", e.Task, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// Reason returns the human readable failure message shown to the user.
// The innermost task name is kept as prefix; nested TaskError wrappers are collapsed.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var te *TaskError
	if errors.As(err, &te) {
		inner := te
		for {
			var next *TaskError
			if !errors.As(inner.Err, &next) {
				break
			}
			inner = next
		}
		if inner.Err == nil {
			return fmt.Sprintf("task %q: %v", inner.Task, ErrOperationFailed)
		}
		return inner.Error()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return ErrOperationFailed.Error()
}
