package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, logger *slog.Logger, args ...string) (stdout, stderr []byte, err error)
}

// ToolError is a poppler or tesseract invocation that did not exit cleanly.
type ToolError struct {
	Tool     string
	ExitCode int // -1 when the process was killed or never started
	Stderr   string
	TimedOut bool
	Err      error
}

func (e *ToolError) Error() string {
	switch {
	case e.TimedOut:
		return fmt.Sprintf("%s timed out: %v", e.Tool, e.Err)
	case e.Stderr != "":
		return fmt.Sprintf("%s exited with code %d: %s", e.Tool, e.ExitCode, e.Stderr)
	default:
		return fmt.Sprintf("%s exited with code %d: %v", e.Tool, e.ExitCode, e.Err)
	}
}

func (e *ToolError) Unwrap() error { return e.Err }

// execRunner runs each command under its own deadline; timeout <= 0 leaves
// only the caller's context in charge.
type execRunner struct {
	timeout time.Duration
}

func (r execRunner) Run(ctx context.Context, name string, logger *slog.Logger, args ...string) ([]byte, []byte, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	start := time.Now()
	logger.Debug("ocr.exec.start", "cmd_line", strings.Join(append([]string{name}, args...), " "))

	cmd := exec.CommandContext(ctx, name, args...)
	// children that inherit the pipes must not hold Wait open after a kill
	cmd.WaitDelay = time.Second
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	dur := time.Since(start)
	if err == nil {
		logger.Debug("ocr.exec.ok",
			"cmd", name,
			"duration_ms", dur.Milliseconds(),
			"stdout_bytes", out.Len(),
			"stderr_bytes", errb.Len(),
		)
		return out.Bytes(), errb.Bytes(), nil
	}

	terr := &ToolError{
		Tool:     filepath.Base(name),
		ExitCode: -1,
		Stderr:   truncate(strings.TrimSpace(errb.String()), 512),
		Err:      err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		terr.ExitCode = exitErr.ExitCode()
	}
	if cerr := ctx.Err(); cerr != nil {
		terr.TimedOut = errors.Is(cerr, context.DeadlineExceeded)
		terr.Err = cerr
	}
	logger.Error("ocr.exec.failed",
		"cmd", name,
		"duration_ms", dur.Milliseconds(),
		"exit_code", terr.ExitCode,
		"timed_out", terr.TimedOut,
		"error", err,
		"stderr", truncate(errb.String(), 8<<10), // cap at 8KB
	)
	return out.Bytes(), errb.Bytes(), terr
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
