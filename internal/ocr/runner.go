package ocr

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

const maxStderr = 512

// Runner executes an external OCR tool and returns its stdout.
// A failed run returns a *ToolError.
type Runner interface {
	Run(ctx context.Context, tool string, args ...string) ([]byte, error)
}

// ToolError is a tool that failed to start or exited non-zero.
type ToolError struct {
	Tool   string
	Stderr string // last maxStderr bytes
	Err    error
}

func (e *ToolError) Error() string {
	if e.Stderr == "" {
		return e.Tool + ": " + e.Err.Error()
	}
	return e.Tool + ": " + e.Err.Error() + ": " + e.Stderr
}

func (e *ToolError) Unwrap() error { return e.Err }

type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, tool string, args ...string) ([]byte, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, tool, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	if err := cmd.Run(); err != nil {
		te := &ToolError{Tool: tool, Stderr: tail(stderr.String(), maxStderr), Err: err}
		r.logger.Error("ocr.tool.failed", "tool", tool, "args", args,
			"elapsed_ms", time.Since(start).Milliseconds(), "error", te)
		return nil, te
	}
	r.logger.Debug("ocr.tool.done", "tool", tool, "args", args,
		"elapsed_ms", time.Since(start).Milliseconds(), "stdout_bytes", stdout.Len())
	return stdout.Bytes(), nil
}

// tail keeps the end of s; tools print the actual failure last.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
