package job

import (
	"errors"
	"fmt"

	"github.com/ewinston/qiskit-terra/id"
)

var (
	// ErrCancelled is surfaced by Result when the job was cancelled
	// before it started executing.
	ErrCancelled = errors.New("job: cancelled")

	// ErrWaitTimeout is surfaced by Result when the wait deadline
	// elapses before the job reaches a terminal status. The job itself
	// is unaffected and the wait may be retried.
	ErrWaitTimeout = errors.New("job: result wait timed out")

	// ErrNotSubmitted is surfaced when a job was never bound to a pool
	// submission. It indicates dispatcher misuse, not a job failure.
	ErrNotSubmitted = errors.New("job: not submitted")
)

// ExecutionError is surfaced by Result when the backend's executor
// failed. The captured cause is available via Unwrap.
type ExecutionError struct {
	JobID id.ID
	Cause error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("job %s: execution failed: %v", e.JobID, e.Cause)
}

// Unwrap returns the captured cause.
func (e *ExecutionError) Unwrap() error { return e.Cause }
