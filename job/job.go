// Package job provides the caller-facing handle for one submitted
// execution unit. A Job projects the pool task's state machine into
// the lifecycle statuses callers poll, and adds blocking result
// retrieval with timeout and best-effort cancellation.
//
// A Job holds no mutable state of its own beyond the cancel-requested
// flag: status, timestamps and the outcome are all read through the
// pool handle, whose single-writer discipline makes every accessor
// safe to call from any goroutine while a worker transitions the task.
package job

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ewinston/qiskit-terra/id"
	"github.com/ewinston/qiskit-terra/pool"
	"github.com/ewinston/qiskit-terra/result"
)

// Status is the lifecycle status of a Job. It moves monotonically
// along INITIALIZING → QUEUED → RUNNING → {DONE, ERROR}, or
// QUEUED → CANCELLED; terminal statuses never change.
type Status string

const (
	// StatusInitializing means the job exists but has not been
	// submitted to a pool yet.
	StatusInitializing Status = "INITIALIZING"
	// StatusQueued means the job is waiting for a pool worker.
	StatusQueued Status = "QUEUED"
	// StatusRunning means a worker is executing the job.
	StatusRunning Status = "RUNNING"
	// StatusCancelled means the job was cancelled while queued.
	StatusCancelled Status = "CANCELLED"
	// StatusDone means execution completed and a result was captured.
	StatusDone Status = "DONE"
	// StatusError means execution failed and the cause was captured.
	StatusError Status = "ERROR"
)

// StatusCanceled is the legacy spelling of StatusCancelled.
//
// Deprecated: use StatusCancelled.
const StatusCanceled = StatusCancelled

// Terminal reports whether no further transitions can occur.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusDone || s == StatusError
}

// Job tracks one execution unit from submission to terminal outcome.
// Construct with New, bind with Bind; both are done by the backend
// dispatcher during Run.
type Job struct {
	id          id.ID
	backendName string
	submittedAt time.Time

	handle          atomic.Pointer[pool.Handle]
	cancelRequested atomic.Bool
}

// New creates a Job for the named backend. The job stays in
// StatusInitializing until Bind attaches the pool handle.
func New(backendName string) *Job {
	return &Job{
		id:          id.NewJobID(),
		backendName: backendName,
		submittedAt: time.Now(),
	}
}

// Bind attaches the pool handle produced by a successful submission.
// Called exactly once, by the dispatcher.
func (j *Job) Bind(h *pool.Handle) {
	j.handle.Store(h)
}

// ID returns the job's unique identifier. IDs are never reused.
func (j *Job) ID() id.ID { return j.id }

// BackendName returns the backend the job was dispatched to.
func (j *Job) BackendName() string { return j.backendName }

// SubmittedAt returns when the job was created for submission.
func (j *Job) SubmittedAt() time.Time { return j.submittedAt }

// StartedAt returns when a worker began executing the job, or the
// zero time if it has not started.
func (j *Job) StartedAt() time.Time {
	if h := j.handle.Load(); h != nil {
		return h.StartedAt()
	}
	return time.Time{}
}

// FinishedAt returns when the job reached a terminal status, or the
// zero time.
func (j *Job) FinishedAt() time.Time {
	if h := j.handle.Load(); h != nil {
		return h.FinishedAt()
	}
	return time.Time{}
}

// Status returns the job's current status. Non-blocking.
func (j *Job) Status() Status {
	h := j.handle.Load()
	if h == nil {
		return StatusInitializing
	}

	switch h.State() {
	case pool.StatePending:
		return StatusQueued
	case pool.StateRunning:
		return StatusRunning
	case pool.StateSucceeded:
		return StatusDone
	case pool.StateFailed:
		return StatusError
	case pool.StateCancelled:
		return StatusCancelled
	default:
		return StatusInitializing
	}
}

// Running reports whether the job is currently executing.
func (j *Job) Running() bool { return j.Status() == StatusRunning }

// Done reports whether the job completed successfully.
func (j *Job) Done() bool { return j.Status() == StatusDone }

// Cancelled reports whether the job was cancelled before starting.
func (j *Job) Cancelled() bool { return j.Status() == StatusCancelled }

// CancelRequested reports whether Cancel has ever been called,
// regardless of whether cancellation took effect.
func (j *Job) CancelRequested() bool { return j.cancelRequested.Load() }

// Cancel requests best-effort cancellation. It returns true only if
// the QUEUED → CANCELLED transition occurred: a job that has started
// executing is never preempted and continues to DONE or ERROR. Under
// concurrent calls at most one caller observes true, and a call after
// a previous success returns false.
func (j *Job) Cancel() bool {
	h := j.handle.Load()
	if h == nil {
		return false
	}
	j.cancelRequested.Store(true)
	return h.TryCancel()
}

// Result blocks until the job reaches a terminal status or ctx
// expires. On DONE it returns the captured result; on ERROR it fails
// with an *ExecutionError carrying the captured cause; on CANCELLED it
// fails with ErrCancelled. If ctx expires first the call fails with
// ErrWaitTimeout without altering the job's state; the wait may be
// retried. Every concurrent caller observes the same terminal outcome.
func (j *Job) Result(ctx context.Context) (*result.Result, error) {
	h := j.handle.Load()
	if h == nil {
		return nil, ErrNotSubmitted
	}

	// An already-terminal job yields its outcome even when ctx has
	// expired too: the terminal state was reached first, so the wait
	// never times out.
	select {
	case <-h.Done():
	default:
		select {
		case <-h.Done():
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrWaitTimeout, ctx.Err())
		}
	}

	switch h.State() {
	case pool.StateCancelled:
		return nil, fmt.Errorf("job %s: %w", j.id, ErrCancelled)
	case pool.StateFailed:
		_, cause := h.Outcome()
		return nil, &ExecutionError{JobID: j.id, Cause: cause}
	default:
		res, _ := h.Outcome()
		return res, nil
	}
}
