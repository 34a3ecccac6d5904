package rrd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrEngineNotFound is returned when the rrdtool binary cannot be located.
var ErrEngineNotFound = errors.New("rrdtool executable not found")

const stderrLimit = 4 << 10

// Runner executes the engine binary with a structured argv.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// execRunner runs the binary directly, never through a shell.
type execRunner struct {
	binary  string
	timeout time.Duration
}

// NewExecRunner returns a Runner that executes binary with a per-call timeout.
func NewExecRunner(binary string, timeout time.Duration) Runner {
	return &execRunner{binary: binary, timeout: timeout}
}

func (r *execRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.WaitDelay = time.Second
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		s := stderr.String()
		if len(s) > stderrLimit {
			s = s[:stderrLimit] + "... (truncated)"
		}
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return out, fmt.Errorf("%s %s: %w (stderr: %s)", r.binary, firstArg(args), err, strings.TrimSpace(s))
	}
	return out, nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// CheckEngine resolves binary (a name on PATH or a path) and returns the
// absolute location. The error wraps ErrEngineNotFound.
func CheckEngine(binary string) (string, error) {
	if binary == "" {
		return "", fmt.Errorf("%w: empty path", ErrEngineNotFound)
	}
	p, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrEngineNotFound, binary, err)
	}
	return p, nil
}
