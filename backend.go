package terra

import (
	"log/slog"

	"github.com/ewinston/qiskit-terra/job"
	"github.com/ewinston/qiskit-terra/pool"
	"github.com/ewinston/qiskit-terra/qobj"
)

// Backend is the caller-facing handle for one registered backend. It
// is the only entry point the circuit and compiler layers need: hand
// it a compiled unit and get a Job back.
type Backend struct {
	name        string
	description string
	pool        *pool.Pool
	exec        pool.ExecuteFunc
	logger      *slog.Logger
}

// Name returns the backend's registered name.
func (b *Backend) Name() string { return b.name }

// Description returns the optional human-readable summary.
func (b *Backend) Description() string { return b.description }

// Capacity returns the backend pool's maximum concurrent tasks.
func (b *Backend) Capacity() int { return b.pool.Capacity() }

// Mode returns the backend pool's execution mode.
func (b *Backend) Mode() Mode { return b.pool.Mode() }

// Run submits a compiled unit for asynchronous execution and returns
// immediately with a queued Job. The unit is logically owned by the
// job until it reaches a terminal status. Run never blocks on pool
// capacity; excess work queues in FIFO order.
func (b *Backend) Run(u *qobj.Qobj) (*job.Job, error) {
	if u == nil {
		return nil, ErrNilUnit
	}

	j := job.New(b.name)
	h, err := b.pool.Submit(u, b.exec)
	if err != nil {
		return nil, err
	}
	j.Bind(h)

	b.logger.Debug("job submitted",
		slog.String("job_id", j.ID().String()),
		slog.String("qobj_id", u.ID().String()),
		slog.String("backend", b.name),
	)

	return j, nil
}
