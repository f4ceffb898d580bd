package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/isdmx/venvbox/config"
	"github.com/isdmx/venvbox/environment"
	"github.com/isdmx/venvbox/procrun"
)

// Request represents a code execution request
type Request struct {
	Code string   `json:"code"`
	Lib  []string `json:"lib,omitempty"`
	Name string   `json:"name,omitempty"`
}

// Result represents the outcome of a code execution request. Error is empty
// on full success; otherwise it carries a human-readable diagnostic, which
// for interpreter failures is the native traceback text.
type Result struct {
	Output string `json:"output"`
	Error  string `json:"error"`
}

// CodeRunner defines the interface for running code inside an environment
type CodeRunner interface {
	Run(ctx context.Context, envPath, code string) Result
}

// CodeExecutor implements CodeRunner against a virtual environment's
// interpreter
type CodeExecutor struct {
	logger      *zap.Logger
	runner      procrun.Runner
	execTimeout time.Duration
}

// NewCodeExecutor creates a CodeExecutor from the application configuration
func NewCodeExecutor(logger *zap.Logger, runner procrun.Runner, cfg *config.Config) *CodeExecutor {
	return &CodeExecutor{
		logger:      logger,
		runner:      runner,
		execTimeout: cfg.ExecTimeout(),
	}
}

// Run writes code to a private script, executes it with the environment's
// interpreter, and classifies the outcome. The script directory doubles as
// the working directory and is removed on every exit path.
func (e *CodeExecutor) Run(ctx context.Context, envPath, code string) Result {
	workDir, err := os.MkdirTemp("", "venvbox-run-*")
	if err != nil {
		return Result{Error: fmt.Sprintf("failed to create working directory: %v", err)}
	}
	defer os.RemoveAll(workDir)

	script := filepath.Join(workDir, "main.py")
	if err := os.WriteFile(script, []byte(code), 0o600); err != nil {
		return Result{Error: fmt.Sprintf("failed to write script: %v", err)}
	}

	res, err := e.runner.Run(ctx, procrun.Spec{
		Command: environment.InterpreterPath(envPath),
		Args:    []string{script},
		Dir:     workDir,
		Timeout: e.execTimeout,
	})
	if err != nil {
		return Result{Error: fmt.Sprintf("failed to start interpreter: %v", err)}
	}

	if res.TimedOut {
		e.logger.Warn("code execution timed out",
			zap.String("env", envPath),
			zap.Duration("timeout", e.execTimeout))
		return Result{
			Output: res.Stdout,
			Error:  fmt.Sprintf("Error: Code execution timed out (%d seconds limit)", int(e.execTimeout.Seconds())),
		}
	}

	if res.ExitCode != 0 {
		// Interpreter exception: stderr carries the traceback verbatim. A
		// signal-killed child leaves stderr empty; it still must not read
		// as success.
		if res.Stderr == "" {
			return Result{
				Output: res.Stdout,
				Error:  fmt.Sprintf("process exited with code %d", res.ExitCode),
			}
		}
		return Result{Output: res.Stdout, Error: res.Stderr}
	}

	return Result{Output: res.Stdout}
}
