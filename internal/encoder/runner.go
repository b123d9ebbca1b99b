package encoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes an external binary and returns its stdout. The
// default implementation shells out; tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, name string, args []string) ([]byte, error)
}

// execRunner runs commands via os/exec with the context wired through,
// so cancelling a run kills the subprocess.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", name, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s exited with %d: %s", name, exitErr.ExitCode(), stderrTail(stderr.Bytes()))
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return stdout.Bytes(), nil
}

// stderrTail keeps the last chunk of encoder noise: the useful part of
// an ffmpeg failure is almost always at the end.
func stderrTail(b []byte) string {
	const max = 2048
	s := strings.TrimSpace(string(b))
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}
