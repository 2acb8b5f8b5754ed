// Package middleware provides composable middleware for execution
// unit dispatch. Middleware wraps executor calls synchronously and can
// modify execution (recover from panics, log, record metrics, add
// tracing).
package middleware

import (
	"context"

	"github.com/ewinston/qiskit-terra/qobj"
	"github.com/ewinston/qiskit-terra/result"
)

// Handler is the terminal function that executes one unit. It has the
// same shape as pool.ExecuteFunc.
type Handler func(ctx context.Context, u *qobj.Qobj) (*result.Result, error)

// Middleware wraps a Handler with cross-cutting logic. It receives the
// current context, the unit being executed, and the next handler to
// call. Middleware MUST call next to continue the chain (unless
// short-circuiting on error).
type Middleware func(ctx context.Context, u *qobj.Qobj, next Handler) (*result.Result, error)

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the
// list is the outermost wrapper.
//
// Example: Chain(logging, recover, tracing) executes as:
//
//	logging → recover → tracing → handler
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, u *qobj.Qobj, next Handler) (*result.Result, error) {
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context, u *qobj.Qobj) (*result.Result, error) {
				return mw(ctx, u, prev)
			}
		}
		return h(ctx, u)
	}
}

// Wrap applies a middleware chain to a handler, producing a plain
// Handler suitable for submission to a pool.
func Wrap(h Handler, mws ...Middleware) Handler {
	if len(mws) == 0 {
		return h
	}
	chain := Chain(mws...)
	return func(ctx context.Context, u *qobj.Qobj) (*result.Result, error) {
		return chain(ctx, u, h)
	}
}
