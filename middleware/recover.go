package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/ewinston/qiskit-terra/qobj"
	"github.com/ewinston/qiskit-terra/result"
)

// Recover returns middleware that recovers from panics in the handler
// chain. Panics are converted to errors and logged with a stack trace.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, u *qobj.Qobj, next Handler) (res *result.Result, retErr error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("executor panicked",
					slog.String("qobj_id", u.ID().String()),
					slog.String("backend", u.BackendName()),
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)
				res = nil
				retErr = fmt.Errorf("panic executing %s: %v", u.ID(), r)
			}
		}()
		return next(ctx, u)
	}
}
