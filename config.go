package terra

import "github.com/ewinston/qiskit-terra/pool"

// Config is the pool configuration attached to a backend definition.
// See pool.Config for field semantics.
type Config = pool.Config

// Mode selects thread-backed or process-backed execution for a
// backend's pool.
type Mode = pool.Mode

// Execution modes, re-exported for backend definitions.
const (
	ModeThread  = pool.ModeThread
	ModeProcess = pool.ModeProcess
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config { return pool.DefaultConfig() }
