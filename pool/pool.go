// Package pool provides the bounded worker pool that executes compiled
// execution units. Submit enqueues a task and immediately returns a
// Handle; a fixed set of workers drains the queue in FIFO order. The
// task state machine on the Handle is the single linearization point
// for the cancel-versus-start race.
package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ewinston/qiskit-terra/qobj"
	"github.com/ewinston/qiskit-terra/result"
)

var (
	// Construction errors. These are fatal: a pool that fails to
	// construct never existed.
	ErrInvalidCapacity = errors.New("pool: capacity must be at least 1")
	ErrInvalidRate     = errors.New("pool: rate limit must not be negative")

	// Runtime errors.
	ErrClosed  = errors.New("pool: closed")
	ErrNilExec = errors.New("pool: nil execute function")
	ErrNotDone = errors.New("pool: task not finished")
)

// ExecuteFunc runs one execution unit and produces its result. It is
// invoked on a pool worker; a returned error or a panic becomes the
// task's failure outcome and never disturbs other tasks.
type ExecuteFunc func(ctx context.Context, u *qobj.Qobj) (*result.Result, error)

// Mode selects how a pool's workers execute tasks.
type Mode int

const (
	// ModeThread runs the ExecuteFunc inline in the worker goroutine.
	ModeThread Mode = iota

	// ModeProcess marks a pool whose ExecuteFuncs supervise one OS
	// subprocess per task (see the runner package). The pool machinery
	// is identical; the mode is fixed at construction and recorded for
	// observability.
	ModeProcess
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeThread:
		return "thread"
	case ModeProcess:
		return "process"
	default:
		return "unknown"
	}
}

// Config holds a pool's construction parameters. Capacity and Mode are
// fixed for the pool's lifetime; swapping either means building a new
// pool.
type Config struct {
	// Capacity is the maximum number of tasks executing concurrently.
	Capacity int

	// Mode selects thread-backed or process-backed execution.
	Mode Mode

	// RateLimit is the maximum sustained task starts per second.
	// Zero disables rate limiting.
	RateLimit float64

	// RateBurst is the burst size for the token-bucket rate limiter.
	// Defaults to 1 if RateLimit is set but RateBurst is zero.
	RateBurst int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Capacity: 4,
		Mode:     ModeThread,
	}
}

func (c Config) validate() error {
	if c.Capacity < 1 {
		return fmt.Errorf("%w (got %d)", ErrInvalidCapacity, c.Capacity)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w (got %g)", ErrInvalidRate, c.RateLimit)
	}
	return nil
}

// Pool is a bounded FIFO worker pool. All mutation of the queue goes
// through the pool mutex; task state is guarded by each task's own
// mutex. Safe for concurrent use.
type Pool struct {
	name     string
	capacity int
	mode     Mode
	limiter  *rate.Limiter
	logger   *slog.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []*Handle
	closed bool

	// runCtx is cancelled when a Close deadline expires, signalling
	// well-behaved executors to return.
	runCtx    context.Context
	cancelRun context.CancelFunc

	wg sync.WaitGroup
}

// New creates a pool named for its owning backend and starts its
// workers. Invalid configuration is fatal at construction time.
func New(name string, cfg Config, logger *slog.Logger) (*Pool, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pool{
		name:     name,
		capacity: cfg.Capacity,
		mode:     cfg.Mode,
		logger:   logger,
	}
	p.cond = sync.NewCond(&p.mu)
	p.runCtx, p.cancelRun = context.WithCancel(context.Background())

	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	initPoolMetrics(name)

	p.logger.Info("worker pool starting",
		slog.String("pool", name),
		slog.Int("capacity", cfg.Capacity),
		slog.String("mode", cfg.Mode.String()),
	)

	for range cfg.Capacity {
		p.wg.Add(1)
		go p.worker()
	}

	return p, nil
}

// Name returns the pool's name.
func (p *Pool) Name() string { return p.name }

// Capacity returns the maximum number of concurrently executing tasks.
func (p *Pool) Capacity() int { return p.capacity }

// Mode returns the pool's execution mode.
func (p *Pool) Mode() Mode { return p.mode }

// Submit enqueues a task that will invoke fn on a worker. It never
// blocks on capacity: excess tasks queue in FIFO order. The returned
// Handle reports the task's state, supports best-effort cancellation,
// and blocks for the outcome via Done.
func (p *Pool) Submit(u *qobj.Qobj, fn ExecuteFunc) (*Handle, error) {
	if fn == nil {
		return nil, ErrNilExec
	}

	h := newHandle(u, fn)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	p.queue = append(p.queue, h)
	queuedTasks.WithLabelValues(p.name).Inc()
	p.cond.Signal()
	p.mu.Unlock()

	return h, nil
}

// Close stops intake, drains already-queued tasks, and waits for the
// workers to exit. If ctx expires first, still-pending tasks are
// cancelled and running executors are signalled through their context.
// Idempotent.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.wg.Wait()
		return nil
	}
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()

	p.logger.Info("worker pool stopping", slog.String("pool", p.name))

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancelRun()
		p.logger.Info("worker pool stopped gracefully", slog.String("pool", p.name))
	case <-ctx.Done():
		p.logger.Warn("worker pool shutdown timed out, cancelling pending tasks",
			slog.String("pool", p.name))
		p.abandonQueue()
		p.cancelRun()
		p.wg.Wait()
	}

	return nil
}

// abandonQueue cancels every still-pending task so waiters unblock.
func (p *Pool) abandonQueue() {
	p.mu.Lock()
	pending := p.queue
	p.queue = nil
	p.cond.Broadcast()
	p.mu.Unlock()

	for _, h := range pending {
		queuedTasks.WithLabelValues(p.name).Dec()
		h.TryCancel()
		tasksTotal.WithLabelValues(p.name, statusCancelled).Inc()
	}
}

// worker is run by each pool goroutine.
func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		h := p.next()
		if h == nil {
			return
		}

		// Throttle task starts, not submissions.
		if p.limiter != nil {
			if err := p.limiter.Wait(p.runCtx); err != nil {
				h.TryCancel()
				tasksTotal.WithLabelValues(p.name, statusCancelled).Inc()
				continue
			}
		}

		if !h.begin() {
			// Cancelled while queued.
			tasksTotal.WithLabelValues(p.name, statusCancelled).Inc()
			continue
		}

		runningTasks.WithLabelValues(p.name).Inc()
		start := time.Now()

		res, err := p.runTask(h)
		h.finish(res, err)

		elapsed := time.Since(start)
		runningTasks.WithLabelValues(p.name).Dec()
		taskDuration.WithLabelValues(p.name).Observe(elapsed.Seconds())

		if err != nil {
			tasksTotal.WithLabelValues(p.name, statusFailed).Inc()
			p.logger.Debug("task execution failed",
				slog.String("pool", p.name),
				slog.String("qobj_id", h.Unit().ID().String()),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			tasksTotal.WithLabelValues(p.name, statusSucceeded).Inc()
		}
	}
}

// next blocks until a task is available or the pool is closed and
// drained. Returns nil when the worker should exit.
func (p *Pool) next() *Handle {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.queue) == 0 && !p.closed {
		p.cond.Wait()
	}

	if len(p.queue) == 0 {
		return nil
	}

	h := p.queue[0]
	p.queue = p.queue[1:]
	queuedTasks.WithLabelValues(p.name).Dec()
	return h
}

// runTask invokes the execute function, converting a panic into a
// failure outcome so one misbehaving executor never takes down the
// worker or its sibling tasks.
func (p *Pool) runTask(h *Handle) (res *result.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("executor panicked",
				slog.String("pool", p.name),
				slog.String("qobj_id", h.Unit().ID().String()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			res = nil
			err = fmt.Errorf("pool: executor panic: %v", r)
		}
	}()

	return h.fn(p.runCtx, h.Unit())
}
