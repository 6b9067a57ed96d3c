// Package peakrdl drives the external PeakRDL command-line tool.
//
// The package never parses SystemRDL itself. It builds argument lists for
// the regblock, uvm and html subcommands and runs them through an Executor.
package peakrdl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var (
	// ErrToolNotFound indicates the tool binary is not on PATH.
	ErrToolNotFound = errors.New("tool not found")
)

// Output holds the captured streams of a finished command.
type Output struct {
	Stdout string
	Stderr string
}

// ToolError reports a command that ran but exited non-zero.
type ToolError struct {
	Tool     string
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s %s: exit status %d", e.Tool, strings.Join(e.Args, " "), e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + firstLine(e.Stderr)
	}
	return msg
}

// Executor runs an external command in dir.
type Executor interface {
	Run(ctx context.Context, dir, name string, args ...string) (Output, error)
}

// Compile-time check that ExecExecutor implements Executor.
var _ Executor = ExecExecutor{}

// ExecExecutor runs real processes.
type ExecExecutor struct{}

// Run executes name with args and captures stdout and stderr.
func (ExecExecutor) Run(ctx context.Context, dir, name string, args ...string) (Output, error) {
	//nolint:gosec // G204: binary and args come from configuration
	cmd := exec.CommandContext(ctx, name, args...)
	if dir != "" {
		cmd.Dir = dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{
		Stdout: strings.TrimSpace(stdout.String()),
		Stderr: strings.TrimSpace(stderr.String()),
	}
	if err == nil {
		return out, nil
	}

	if errors.Is(err, exec.ErrNotFound) {
		return out, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return out, fmt.Errorf("%s: %w", name, ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return out, &ToolError{
			Tool:     name,
			Args:     args,
			ExitCode: exitErr.ExitCode(),
			Stderr:   out.Stderr,
		}
	}
	return out, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
