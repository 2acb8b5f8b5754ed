package terra

import (
	"log/slog"

	"github.com/ewinston/qiskit-terra/middleware"
)

// Option configures a Provider.
type Option func(*Provider) error

// WithLogger sets the structured logger for the provider and the
// pools it creates.
func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) error {
		p.logger = l
		return nil
	}
}

// WithMiddleware appends execution middleware applied to every
// backend registered afterwards. Recover is always installed
// outermost regardless.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(p *Provider) error {
		p.mws = append(p.mws, mws...)
		return nil
	}
}

// WithBackend registers a backend during construction. Equivalent to
// calling Register after New.
func WithBackend(def Definition) Option {
	return func(p *Provider) error {
		return p.Register(def)
	}
}
