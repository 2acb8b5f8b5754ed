// Package sim provides a reference local sampler backend: an ideal,
// noise-free executor that returns entangled-pair style counts. It
// exists so the execution core can be exercised end to end without a
// numeric simulator, and doubles as the stdin/stdout program for
// process-backed pools (see Run).
package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ewinston/qiskit-terra/pool"
	"github.com/ewinston/qiskit-terra/qobj"
	"github.com/ewinston/qiskit-terra/result"
)

const (
	defaultShots       = 1024
	defaultMemorySlots = 2
)

// Backend returns an ExecuteFunc that samples an ideal maximally
// entangled state: all shots land on the all-zeros and all-ones
// labels, split evenly. Shot count and register width come from the
// unit's "shots" and "memory_slots" metadata. A non-zero delay is
// slept before sampling, respecting the context; use it to hold tasks
// in flight in scheduling tests.
func Backend(delay time.Duration) pool.ExecuteFunc {
	return func(ctx context.Context, u *qobj.Qobj) (*result.Result, error) {
		if delay > 0 {
			t := time.NewTimer(delay)
			defer t.Stop()
			select {
			case <-t.C:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		start := time.Now()
		res, err := sample(u)
		if err != nil {
			return nil, err
		}
		res.TimeTaken = time.Since(start) + delay
		return res, nil
	}
}

func sample(u *qobj.Qobj) (*result.Result, error) {
	shots, err := metaUint(u, "shots", defaultShots)
	if err != nil {
		return nil, err
	}
	slots, err := metaUint(u, "memory_slots", defaultMemorySlots)
	if err != nil {
		return nil, err
	}
	if slots < 1 {
		return nil, fmt.Errorf("sim: memory_slots must be at least 1")
	}

	zeros := strings.Repeat("0", int(slots))
	ones := strings.Repeat("1", int(slots))

	counts := map[string]uint64{}
	if shots > 0 {
		counts[zeros] = shots / 2
		counts[ones] = shots - shots/2
	}

	return &result.Result{
		Counts:  counts,
		Shots:   shots,
		Success: true,
	}, nil
}

func metaUint(u *qobj.Qobj, key string, fallback uint64) (uint64, error) {
	v, ok := u.Meta(key)
	if !ok {
		return fallback, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("sim: metadata %q: %w", key, err)
	}
	return n, nil
}

// Run implements the process-backend protocol over the given streams:
// it reads one unit as JSON from r, samples it, and writes the result
// as JSON to w. A command wrapping Run is registrable with a
// process-mode backend through the runner package.
func Run(r io.Reader, w io.Writer) error {
	var u qobj.Qobj
	if err := json.NewDecoder(r).Decode(&u); err != nil {
		return fmt.Errorf("sim: decode unit: %w", err)
	}

	res, err := sample(&u)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(w).Encode(res); err != nil {
		return fmt.Errorf("sim: encode result: %w", err)
	}
	return nil
}
