// Package runner builds process-backed executors: each task runs as
// one supervised OS subprocess, receiving the execution unit as JSON
// on stdin and reporting a result as JSON on stdout. Backends that
// need true CPU parallelism outside the calling process register a
// Command instead of an in-process execute function.
package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/ewinston/qiskit-terra/pool"
	"github.com/ewinston/qiskit-terra/qobj"
	"github.com/ewinston/qiskit-terra/result"
)

// ErrNoCommand is returned when Command is called with an empty argv.
var ErrNoCommand = errors.New("runner: no command provided")

// stderrTailLimit bounds how much captured stderr is attached to an
// execution error.
const stderrTailLimit = 4 << 10

type config struct {
	dir string
	env []string
}

// Option configures the subprocess environment.
type Option func(*config)

// WithDir sets the subprocess working directory.
func WithDir(dir string) Option {
	return func(c *config) { c.dir = dir }
}

// WithEnv sets the subprocess environment. When unset the subprocess
// inherits the parent environment.
func WithEnv(env []string) Option {
	return func(c *config) { c.env = env }
}

// Command returns an ExecuteFunc that runs argv once per task. The
// unit is written to the subprocess as JSON on stdin; stdout must
// carry a single JSON result document. A nonzero exit status or
// malformed output becomes the task's error outcome, with the tail of
// stderr attached.
func Command(argv []string, opts ...Option) (pool.ExecuteFunc, error) {
	if len(argv) == 0 {
		return nil, ErrNoCommand
	}

	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(ctx context.Context, u *qobj.Qobj) (*result.Result, error) {
		input, err := json.Marshal(u)
		if err != nil {
			return nil, fmt.Errorf("runner: encode unit %s: %w", u.ID(), err)
		}

		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		cmd.Dir = cfg.dir
		cmd.Env = cfg.env
		cmd.Stdin = bytes.NewReader(input)

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		start := time.Now()
		if err := cmd.Run(); err != nil {
			return nil, fmt.Errorf("runner: %s: %w%s", argv[0], err, stderrTail(&stderr))
		}

		var res result.Result
		if err := json.Unmarshal(stdout.Bytes(), &res); err != nil {
			return nil, fmt.Errorf("runner: %s: malformed result: %w%s", argv[0], err, stderrTail(&stderr))
		}
		if res.TimeTaken == 0 {
			res.TimeTaken = time.Since(start)
		}

		return &res, nil
	}, nil
}

func stderrTail(buf *bytes.Buffer) string {
	s := strings.TrimSpace(buf.String())
	if s == "" {
		return ""
	}
	if len(s) > stderrTailLimit {
		s = s[len(s)-stderrTailLimit:]
	}
	return fmt.Sprintf(" (stderr: %s)", s)
}
