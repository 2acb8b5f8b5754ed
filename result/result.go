// Package result defines the opaque outcome of one execution unit.
// The core never interprets a Result beyond surfacing it through
// Job.Result; its shape is a contract between the compiler that built
// the qobj and whoever consumes the counts.
package result

import (
	"time"
)

// Result is the structured success payload produced by a backend's
// executor: a mapping of measurement outcome labels to counts, plus
// bookkeeping.
type Result struct {
	// Counts maps an outcome label (e.g. "0011") to the number of
	// shots that produced it.
	Counts map[string]uint64 `json:"counts,omitempty"`

	// Shots is the total number of shots executed.
	Shots uint64 `json:"shots"`

	// Success reports whether the backend considered the run valid.
	Success bool `json:"success"`

	// TimeTaken is the wall-clock execution time reported by the
	// backend. Zero when the backend does not report one.
	TimeTaken time.Duration `json:"time_taken,omitempty"`

	// Metadata carries backend-specific annotations.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// TotalCounts sums all recorded outcome counts.
func (r *Result) TotalCounts() uint64 {
	var total uint64
	for _, c := range r.Counts {
		total += c
	}
	return total
}
