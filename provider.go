package terra

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/ewinston/qiskit-terra/middleware"
	"github.com/ewinston/qiskit-terra/pool"
	"github.com/ewinston/qiskit-terra/runner"
)

// Definition describes a backend to register: a name, a pool
// configuration, and an executor. Thread-mode backends supply Execute;
// process-mode backends may instead supply Command, which is turned
// into a subprocess executor through the runner package.
type Definition struct {
	// Name is the unique backend identifier used for dispatch.
	Name string

	// Description is an optional human-readable summary.
	Description string

	// Config is the pool configuration. The zero value means
	// DefaultConfig.
	Config Config

	// Execute runs one unit in-process. Takes precedence over Command
	// when both are set.
	Execute pool.ExecuteFunc

	// Command is the argv of a subprocess implementing the runner
	// protocol. Used when Execute is nil.
	Command []string
}

// Provider resolves backend names to their pools and executors. It is
// a registry plus factory: all concurrency lives in the pools it
// creates. Each Provider owns its backends exclusively; there is no
// shared package-level state, so independent Providers never interfere.
type Provider struct {
	logger *slog.Logger
	mws    []middleware.Middleware

	mu       sync.RWMutex
	backends map[string]*Backend
	closed   bool
}

// New creates a Provider with the given options.
func New(opts ...Option) (*Provider, error) {
	p := &Provider{
		logger:   slog.Default(),
		backends: make(map[string]*Backend),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Logger returns the provider's logger.
func (p *Provider) Logger() *slog.Logger { return p.logger }

// Register adds a backend and constructs its dedicated pool. Invalid
// definitions and duplicate names fail immediately; nothing is
// registered partially.
func (p *Provider) Register(def Definition) error {
	if def.Name == "" {
		return ErrInvalidName
	}

	exec := def.Execute
	if exec == nil && len(def.Command) > 0 {
		fn, err := runner.Command(def.Command)
		if err != nil {
			return fmt.Errorf("backend %q: %w", def.Name, err)
		}
		exec = fn
	}
	if exec == nil {
		return fmt.Errorf("backend %q: %w", def.Name, ErrMissingExecutor)
	}

	cfg := def.Config
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}

	// Recover is always outermost so a panic anywhere in the chain
	// becomes an error outcome instead of killing a worker.
	mws := append([]middleware.Middleware{middleware.Recover(p.logger)}, p.mws...)
	wrapped := pool.ExecuteFunc(middleware.Wrap(middleware.Handler(exec), mws...))

	pl, err := pool.New(def.Name, cfg, p.logger)
	if err != nil {
		return fmt.Errorf("backend %q: %w", def.Name, err)
	}

	b := &Backend{
		name:        def.Name,
		description: def.Description,
		pool:        pl,
		exec:        wrapped,
		logger:      p.logger,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		closeCtx, cancel := context.WithCancel(context.Background())
		cancel()
		_ = pl.Close(closeCtx)
		return ErrProviderClosed
	}
	if _, exists := p.backends[def.Name]; exists {
		closeCtx, cancel := context.WithCancel(context.Background())
		cancel()
		_ = pl.Close(closeCtx)
		return fmt.Errorf("%w: %q", ErrBackendExists, def.Name)
	}
	p.backends[def.Name] = b

	p.logger.Info("backend registered",
		slog.String("backend", def.Name),
		slog.Int("capacity", cfg.Capacity),
		slog.String("mode", cfg.Mode.String()),
	)

	return nil
}

// Get resolves a backend by name. Fails with ErrUnknownBackend for
// unregistered names; the failure surfaces here, never inside a Job.
func (p *Provider) Get(name string) (*Backend, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrProviderClosed
	}
	b, ok := p.backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	return b, nil
}

// GetBackend resolves a backend by name.
//
// Deprecated: use Get.
func (p *Provider) GetBackend(name string) (*Backend, error) {
	return p.Get(name)
}

// Backends returns the registered backend names, sorted.
func (p *Provider) Backends() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.backends))
	for name := range p.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close shuts down every backend pool, draining queued work within
// the context deadline. The provider accepts no further dispatch.
func (p *Provider) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	backends := make([]*Backend, 0, len(p.backends))
	for _, b := range p.backends {
		backends = append(backends, b)
	}
	p.mu.Unlock()

	var errs []error
	for _, b := range backends {
		if err := b.pool.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("backend %q: %w", b.name, err))
		}
	}
	return errors.Join(errs...)
}
