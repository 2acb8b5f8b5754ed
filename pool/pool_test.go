package pool_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ewinston/qiskit-terra/pool"
	"github.com/ewinston/qiskit-terra/qobj"
	"github.com/ewinston/qiskit-terra/result"
)

var poolNames int

var poolNameMu sync.Mutex

// newTestPool builds a pool with a unique name so metric label sets
// never collide across tests.
func newTestPool(t *testing.T, capacity int) *pool.Pool {
	t.Helper()

	poolNameMu.Lock()
	poolNames++
	name := fmt.Sprintf("test_pool_%d", poolNames)
	poolNameMu.Unlock()

	p, err := pool.New(name, pool.Config{Capacity: capacity}, slog.Default())
	if err != nil {
		t.Fatalf("pool.New failed: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = p.Close(ctx)
	})
	return p
}

func okExec(_ context.Context, _ *qobj.Qobj) (*result.Result, error) {
	return &result.Result{Success: true, Counts: map[string]uint64{"00": 1}, Shots: 1}, nil
}

// gatedExec blocks until release is closed, signalling on started when
// a worker picks it up.
func gatedExec(started chan<- struct{}, release <-chan struct{}) pool.ExecuteFunc {
	return func(_ context.Context, _ *qobj.Qobj) (*result.Result, error) {
		if started != nil {
			started <- struct{}{}
		}
		<-release
		return &result.Result{Success: true}, nil
	}
}

func waitDone(t *testing.T, h *pool.Handle) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("task did not finish: state=%s", h.State())
	}
}

func TestSubmitAndOutcome(t *testing.T) {
	p := newTestPool(t, 1)

	h, err := p.Submit(qobj.New("b", nil), okExec)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	waitDone(t, h)

	if h.State() != pool.StateSucceeded {
		t.Fatalf("expected succeeded, got %s", h.State())
	}
	res, err := h.Outcome()
	if err != nil {
		t.Fatalf("Outcome returned error: %v", err)
	}
	if !res.Success || res.Counts["00"] != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
	if !h.Started() {
		t.Error("Started should remain true after completion")
	}
	if h.FinishedAt().IsZero() {
		t.Error("FinishedAt should be set")
	}
}

func TestOutcomeBeforeDone(t *testing.T) {
	p := newTestPool(t, 1)

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	h, err := p.Submit(qobj.New("b", nil), gatedExec(started, release))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	<-started

	if _, err := h.Outcome(); !errors.Is(err, pool.ErrNotDone) {
		t.Errorf("expected ErrNotDone, got %v", err)
	}

	close(release)
	waitDone(t, h)
}

func TestFIFOStartOrder(t *testing.T) {
	p := newTestPool(t, 1)

	const n = 5
	var mu sync.Mutex
	var order []int

	// Hold the single worker until every task is queued.
	gate := make(chan struct{})
	first, err := p.Submit(qobj.New("b", nil), gatedExec(nil, gate))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	handles := make([]*pool.Handle, 0, n)
	for i := range n {
		h, err := p.Submit(qobj.New("b", nil), func(_ context.Context, _ *qobj.Qobj) (*result.Result, error) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return &result.Result{Success: true}, nil
		})
		if err != nil {
			t.Fatalf("Submit %d failed: %v", i, err)
		}
		handles = append(handles, h)
	}

	close(gate)
	waitDone(t, first)
	for _, h := range handles {
		waitDone(t, h)
	}

	mu.Lock()
	defer mu.Unlock()
	for i, got := range order {
		if got != i {
			t.Fatalf("tasks started out of order: %v", order)
		}
	}
}

func TestConcurrentRunning(t *testing.T) {
	p := newTestPool(t, 2)

	release := make(chan struct{})
	started := make(chan struct{}, 2)

	h1, err := p.Submit(qobj.New("b", nil), gatedExec(started, release))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	h2, err := p.Submit(qobj.New("b", nil), gatedExec(started, release))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	// Both tasks must be picked up simultaneously at capacity 2.
	for range 2 {
		select {
		case <-started:
		case <-time.After(5 * time.Second):
			t.Fatal("expected two tasks running simultaneously")
		}
	}

	if h1.State() != pool.StateRunning || h2.State() != pool.StateRunning {
		t.Errorf("expected both running, got %s and %s", h1.State(), h2.State())
	}

	close(release)
	waitDone(t, h1)
	waitDone(t, h2)
}

func TestCapacityBound(t *testing.T) {
	p := newTestPool(t, 1)

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	h1, err := p.Submit(qobj.New("b", nil), gatedExec(started, release))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	<-started

	h2, err := p.Submit(qobj.New("b", nil), okExec)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	// The second task must stay pending while the only worker is busy.
	time.Sleep(50 * time.Millisecond)
	if got := h2.State(); got != pool.StatePending {
		t.Errorf("expected second task pending at capacity 1, got %s", got)
	}

	close(release)
	waitDone(t, h1)
	waitDone(t, h2)
}

func TestCancelQueued(t *testing.T) {
	p := newTestPool(t, 1)

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	h1, err := p.Submit(qobj.New("b", nil), gatedExec(started, release))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	<-started

	h2, err := p.Submit(qobj.New("b", nil), okExec)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if !h2.TryCancel() {
		t.Fatal("expected cancellation of a queued task to succeed")
	}
	if h2.State() != pool.StateCancelled {
		t.Errorf("expected cancelled, got %s", h2.State())
	}
	// Done must already be closed.
	select {
	case <-h2.Done():
	default:
		t.Error("Done not closed after cancellation")
	}
	// Second attempt is a no-op.
	if h2.TryCancel() {
		t.Error("second TryCancel should return false")
	}
	if h2.Started() {
		t.Error("a cancelled task must never report started")
	}

	close(release)
	waitDone(t, h1)
}

func TestCancelRunning(t *testing.T) {
	p := newTestPool(t, 1)

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	h, err := p.Submit(qobj.New("b", nil), gatedExec(started, release))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	<-started

	if h.TryCancel() {
		t.Fatal("cancelling a running task must fail")
	}

	close(release)
	waitDone(t, h)

	if h.State() != pool.StateSucceeded {
		t.Errorf("task should still complete after rejected cancel, got %s", h.State())
	}
}

func TestExecutorError(t *testing.T) {
	p := newTestPool(t, 1)

	boom := errors.New("backend exploded")
	h, err := p.Submit(qobj.New("b", nil), func(_ context.Context, _ *qobj.Qobj) (*result.Result, error) {
		return nil, boom
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	waitDone(t, h)

	if h.State() != pool.StateFailed {
		t.Fatalf("expected failed, got %s", h.State())
	}
	if _, err := h.Outcome(); !errors.Is(err, boom) {
		t.Errorf("expected captured cause, got %v", err)
	}

	// The pool keeps serving other tasks.
	h2, err := p.Submit(qobj.New("b", nil), okExec)
	if err != nil {
		t.Fatalf("Submit after failure: %v", err)
	}
	waitDone(t, h2)
	if h2.State() != pool.StateSucceeded {
		t.Errorf("sibling task affected by failure: %s", h2.State())
	}
}

func TestExecutorPanic(t *testing.T) {
	p := newTestPool(t, 1)

	h, err := p.Submit(qobj.New("b", nil), func(_ context.Context, _ *qobj.Qobj) (*result.Result, error) {
		panic("mocking job error")
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	waitDone(t, h)

	if h.State() != pool.StateFailed {
		t.Fatalf("expected failed after panic, got %s", h.State())
	}
	_, execErr := h.Outcome()
	if execErr == nil {
		t.Fatal("expected an error outcome after panic")
	}

	// Worker survived the panic.
	h2, err := p.Submit(qobj.New("b", nil), okExec)
	if err != nil {
		t.Fatalf("Submit after panic: %v", err)
	}
	waitDone(t, h2)
	if h2.State() != pool.StateSucceeded {
		t.Errorf("worker did not survive panic: %s", h2.State())
	}
}

func TestSubmitAfterClose(t *testing.T) {
	p := newTestPool(t, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := p.Submit(qobj.New("b", nil), okExec); !errors.Is(err, pool.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestCloseDrainsQueued(t *testing.T) {
	p := newTestPool(t, 1)

	handles := make([]*pool.Handle, 0, 4)
	for range 4 {
		h, err := p.Submit(qobj.New("b", nil), okExec)
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		handles = append(handles, h)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	for i, h := range handles {
		if h.State() != pool.StateSucceeded {
			t.Errorf("task %d not drained on close: %s", i, h.State())
		}
	}
}

func TestCloseReleasesRunContext(t *testing.T) {
	p := newTestPool(t, 1)

	var runCtx context.Context
	h, err := p.Submit(qobj.New("b", nil), func(ctx context.Context, _ *qobj.Qobj) (*result.Result, error) {
		runCtx = ctx
		return &result.Result{Success: true}, nil
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	waitDone(t, h)

	// A graceful close must cancel the run context too, not only the
	// deadline path.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	select {
	case <-runCtx.Done():
	default:
		t.Error("run context still live after graceful close")
	}
}

func TestNilExecuteFunc(t *testing.T) {
	p := newTestPool(t, 1)

	if _, err := p.Submit(qobj.New("b", nil), nil); !errors.Is(err, pool.ErrNilExec) {
		t.Errorf("expected ErrNilExec, got %v", err)
	}
}

func TestInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  pool.Config
		want error
	}{
		{"zero capacity", pool.Config{Capacity: 0}, pool.ErrInvalidCapacity},
		{"negative capacity", pool.Config{Capacity: -3}, pool.ErrInvalidCapacity},
		{"negative rate", pool.Config{Capacity: 1, RateLimit: -1}, pool.ErrInvalidRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pool.New("invalid_cfg", tt.cfg, slog.Default())
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestModeString(t *testing.T) {
	if pool.ModeThread.String() != "thread" || pool.ModeProcess.String() != "process" {
		t.Errorf("unexpected mode names: %s, %s", pool.ModeThread, pool.ModeProcess)
	}
}
