// Package terra provides the asynchronous job execution core of the
// qiskit-terra client library: a backend registry that dispatches
// compiled execution units (qobjs) onto bounded worker pools and hands
// back Job values for lifecycle tracking.
//
// The Provider is the entry point. Register backends with a pool
// configuration and an executor, then run qobjs against them:
//
//	p, err := terra.New(
//	    terra.WithBackend(terra.Definition{
//	        Name:    "local_sampler",
//	        Config:  terra.Config{Capacity: 4, Mode: terra.ModeThread},
//	        Execute: sim.Backend(0),
//	    }),
//	)
//	b, err := p.Get("local_sampler")
//	j, err := b.Run(qobj.New("local_sampler", payload))
//	res, err := j.Result(ctx)
//
// Run returns immediately; the Job exposes non-blocking status
// accessors and a blocking Result. Cancellation is best-effort and
// queue-only: a job that has started executing always runs to DONE or
// ERROR.
//
// # Architecture
//
// Each registered backend owns a dedicated worker pool, fixed in
// capacity and mode (goroutine-backed or subprocess-backed) for its
// lifetime. There are no package-level pools; every Provider is fully
// isolated, so tests and callers never interfere with each other.
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based
// identifiers.
package terra
