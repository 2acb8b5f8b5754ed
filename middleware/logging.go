package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/ewinston/qiskit-terra/qobj"
	"github.com/ewinston/qiskit-terra/result"
)

// Logging returns middleware that logs execution start and completion.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, u *qobj.Qobj, next Handler) (*result.Result, error) {
		logger.Info("execution started",
			slog.String("qobj_id", u.ID().String()),
			slog.String("backend", u.BackendName()),
		)

		start := time.Now()
		res, err := next(ctx, u)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("execution failed",
				slog.String("qobj_id", u.ID().String()),
				slog.String("backend", u.BackendName()),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("execution completed",
				slog.String("qobj_id", u.ID().String()),
				slog.String("backend", u.BackendName()),
				slog.Duration("elapsed", elapsed),
			)
		}

		return res, err
	}
}
