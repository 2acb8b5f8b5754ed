package terra

import "errors"

var (
	// Dispatch errors. These surface synchronously at the Provider
	// boundary, never inside a Job.
	ErrUnknownBackend  = errors.New("terra: unknown backend")
	ErrBackendExists   = errors.New("terra: backend already registered")
	ErrMissingExecutor = errors.New("terra: backend has no executor")
	ErrInvalidName     = errors.New("terra: invalid backend name")
	ErrNilUnit         = errors.New("terra: nil execution unit")

	// Lifecycle errors.
	ErrProviderClosed = errors.New("terra: provider closed")
)
