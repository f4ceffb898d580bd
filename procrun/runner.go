package procrun

import (
	"context"
	"errors"
	"os/exec"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// waitDelay bounds how long Wait blocks on the child's pipes after the
// process group has been killed. Without it, a grandchild inheriting the
// pipes could keep Wait hanging past the deadline.
const waitDelay = 5 * time.Second

// Spec describes a single child process invocation
type Spec struct {
	Command string
	Args    []string
	Dir     string
	Timeout time.Duration
}

// Result represents the structured outcome of a child process run
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
	Duration time.Duration
}

// Runner defines the interface for bounded process execution
type Runner interface {
	Run(ctx context.Context, spec Spec) (Result, error)
}

// ExecRunner implements Runner using os/exec with process-group termination
type ExecRunner struct {
	logger    *zap.Logger
	maxOutput int
}

// NewExecRunner creates an ExecRunner. maxOutput caps the number of bytes
// captured per stream; anything beyond it is discarded.
func NewExecRunner(logger *zap.Logger, maxOutput int) *ExecRunner {
	return &ExecRunner{
		logger:    logger,
		maxOutput: maxOutput,
	}
}

// Run executes the given spec and waits for it to finish or for the timeout
// to expire. A timeout is reported in the Result, not as an error; the error
// return is reserved for spawn failures (command not found, bad workdir).
func (r *ExecRunner) Run(ctx context.Context, spec Spec) (Result, error) {
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, spec.Command, spec.Args...) //nolint:gosec // Commands come from service config, not callers
	cmd.Dir = spec.Dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.WaitDelay = waitDelay
	cmd.Cancel = func() error {
		// Negative pid addresses the whole process group.
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	stdout := newCapBuffer(r.maxOutput)
	stderr := newCapBuffer(r.maxOutput)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	timedOut := errors.Is(ctx.Err(), context.DeadlineExceeded)

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(runErr, &exitErr):
			exitCode = exitErr.ExitCode()
		case timedOut:
			// Killed before or during start; no exit status to report.
			exitCode = -1
		default:
			r.logger.Error("failed to spawn process",
				zap.String("command", spec.Command),
				zap.Strings("args", spec.Args),
				zap.Error(runErr))
			return Result{}, runErr
		}
	}

	if stdout.truncated || stderr.truncated {
		r.logger.Warn("process output truncated",
			zap.String("command", spec.Command),
			zap.Int("limit_bytes", r.maxOutput))
	}

	r.logger.Debug("process finished",
		zap.String("command", spec.Command),
		zap.Strings("args", spec.Args),
		zap.String("dir", spec.Dir),
		zap.Duration("duration", duration),
		zap.Int("exit_code", exitCode),
		zap.Bool("timed_out", timedOut))

	return Result{
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		TimedOut: timedOut,
		Duration: duration,
	}, nil
}
