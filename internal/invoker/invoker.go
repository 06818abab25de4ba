// Package invoker runs the external spectral measurement binary and turns its
// textual diagnostic output into typed records. The binary itself is a black
// box: a sequence of labeled "key: value" lines interleaved with periodic
// "t: <time> M: <momentary> S: <short-term> I: <integrated>" readings.
package invoker

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"time"

	"github.com/tphakala/audioqa/internal/conf"
	"github.com/tphakala/audioqa/internal/errors"
	"github.com/tphakala/audioqa/internal/logging"
)

var logger *slog.Logger

func init() {
	logger = logging.ForService("invoker")
	if logger == nil {
		logger = slog.Default().With("service", "invoker")
	}
}

// Result holds the captured output of a single invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Invoker runs the measurement command against an asset path.
type Invoker struct {
	commandPath string
	maxArgs     int
	timeout     time.Duration
}

// New builds an Invoker from the platform settings.
func New(settings *conf.Settings) *Invoker {
	return &Invoker{
		commandPath: settings.Invoker.CommandPath,
		maxArgs:     settings.Invoker.MaxArgs,
		timeout:     settings.InvokerTimeout(),
	}
}

// NewWithDefaults builds an Invoker for callers (tests, quick checks) that
// don't have a loaded Settings instance. A non-positive maxArgs or timeout
// falls back to 64 arguments or 30 s; these fallbacks are fixed here and
// are not read from conf.
func NewWithDefaults(commandPath string, timeout time.Duration, maxArgs int) *Invoker {
	if maxArgs <= 0 {
		maxArgs = 64
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Invoker{commandPath: commandPath, maxArgs: maxArgs, timeout: timeout}
}

// Run spawns the command with args, waits up to timeout (or the Invoker's
// configured default if timeout <= 0), and returns its captured stdout and
// stderr. A non-zero exit is reported as an error carrying the captured
// stderr, never a panic.
func (i *Invoker) Run(ctx context.Context, args []string, timeout time.Duration) (*Result, error) {
	if len(args) > i.maxArgs {
		return nil, errors.Newf("argument count %d exceeds invoker limit %d", len(args), i.maxArgs).
			Component("invoker").
			Category(errors.CategoryValidation).
			Context("operation", "run").
			Context("arg_count", len(args)).
			Context("max_args", i.maxArgs).
			Build()
	}

	if timeout <= 0 {
		timeout = i.timeout
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, i.commandPath, args...) //nolint:gosec // commandPath is operator-configured, args are built internally

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	exitCode := 0
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}

	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
		Duration: duration,
	}

	if runErr != nil {
		if runCtx.Err() != nil {
			return result, errors.New(runCtx.Err()).
				Component("invoker").
				Category(errors.CategoryCommandExecution).
				CommandContext(i.commandPath, timeout).
				Context("operation", "run").
				Context("timed_out", true).
				Context("stderr_preview", previewOf(result.Stderr)).
				Build()
		}

		logger.Warn("invocation exited non-zero",
			"command", i.commandPath,
			"exit_code", exitCode,
			"duration_ms", duration.Milliseconds())

		return result, errors.New(runErr).
			Component("invoker").
			Category(errors.CategoryCommandExecution).
			CommandContext(i.commandPath, timeout).
			Context("operation", "run").
			Context("exit_code", exitCode).
			Context("stderr_preview", previewOf(result.Stderr)).
			Build()
	}

	return result, nil
}

func previewOf(s string) string {
	const maxPreview = 300
	if len(s) <= maxPreview {
		return s
	}
	return s[:maxPreview] + "...(truncated)"
}
