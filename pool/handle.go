package pool

import (
	"sync"
	"time"

	"github.com/ewinston/qiskit-terra/qobj"
	"github.com/ewinston/qiskit-terra/result"
)

// State is the lifecycle state of a submitted task.
type State int

const (
	// StatePending means the task is queued and has not started.
	StatePending State = iota
	// StateRunning means a worker is executing the task.
	StateRunning
	// StateSucceeded means the task finished and produced a result.
	StateSucceeded
	// StateFailed means the executor returned an error or panicked.
	StateFailed
	// StateCancelled means the task was cancelled before it started.
	StateCancelled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions can occur.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCancelled
}

// Handle tracks one submitted task. All state transitions take the
// handle mutex, which makes begin and TryCancel mutually exclusive:
// exactly one of them wins the pending state. The done channel closes
// exactly once, on the terminal transition, so any number of waiters
// wake immediately. After done closes, res and err are never written
// again and may be read without the lock.
type Handle struct {
	unit *qobj.Qobj
	fn   ExecuteFunc

	mu         sync.Mutex
	state      State
	res        *result.Result
	err        error
	enqueuedAt time.Time
	startedAt  time.Time
	finishedAt time.Time

	done chan struct{}
}

func newHandle(u *qobj.Qobj, fn ExecuteFunc) *Handle {
	return &Handle{
		unit:       u,
		fn:         fn,
		state:      StatePending,
		enqueuedAt: time.Now(),
		done:       make(chan struct{}),
	}
}

// Unit returns the execution unit this task carries.
func (h *Handle) Unit() *qobj.Qobj { return h.unit }

// State returns the task's current state. Non-blocking; safe to call
// from any goroutine while a worker transitions the task.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Started reports whether a worker has begun executing the task.
// Stays true once the task reaches a terminal state via execution.
func (h *Handle) Started() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.startedAt.IsZero()
}

// TryCancel attempts best-effort cancellation. It succeeds only while
// the task is still pending; a running or finished task is never
// preempted. At most one caller ever observes true.
func (h *Handle) TryCancel() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != StatePending {
		return false
	}
	h.state = StateCancelled
	h.finishedAt = time.Now()
	close(h.done)
	return true
}

// Done returns a channel closed when the task reaches a terminal
// state. It never closes more than once.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Outcome returns the captured result or execution error. Before the
// task is terminal it returns ErrNotDone. A cancelled task has neither
// result nor error; check State.
func (h *Handle) Outcome() (*result.Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.state {
	case StateSucceeded:
		return h.res, nil
	case StateFailed:
		return nil, h.err
	case StateCancelled:
		return nil, nil
	default:
		return nil, ErrNotDone
	}
}

// EnqueuedAt returns when the task was submitted.
func (h *Handle) EnqueuedAt() time.Time { return h.enqueuedAt }

// StartedAt returns when a worker began the task, or the zero time.
func (h *Handle) StartedAt() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.startedAt
}

// FinishedAt returns when the task reached a terminal state, or the
// zero time.
func (h *Handle) FinishedAt() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.finishedAt
}

// begin claims the task for execution. Returns false if the task was
// cancelled while queued, in which case the worker must skip it.
func (h *Handle) begin() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != StatePending {
		return false
	}
	h.state = StateRunning
	h.startedAt = time.Now()
	return true
}

// finish records the task's outcome. Called exactly once, by the
// worker that ran the task.
func (h *Handle) finish(res *result.Result, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err != nil {
		h.state = StateFailed
		h.err = err
	} else {
		h.state = StateSucceeded
		h.res = res
	}
	h.finishedAt = time.Now()
	close(h.done)
}
