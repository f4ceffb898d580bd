package executor

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/isdmx/venvbox/config"
	"github.com/isdmx/venvbox/environment"
	"github.com/isdmx/venvbox/procrun"
)

// MockRunner implements procrun.Runner for testing
type MockRunner struct {
	mu      sync.Mutex
	calls   []procrun.Spec
	runFunc func(spec procrun.Spec) (procrun.Result, error)
}

func (m *MockRunner) Run(_ context.Context, spec procrun.Spec) (procrun.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, spec)
	m.mu.Unlock()

	if m.runFunc != nil {
		return m.runFunc(spec)
	}
	return procrun.Result{}, nil
}

func testExecConfig() *config.Config {
	return &config.Config{
		Runner: config.RunnerConfig{
			CreateTimeoutSec:  30,
			InstallTimeoutSec: 300,
			ExecTimeoutSec:    30,
			MaxOutputKB:       1024,
		},
	}
}

func TestCodeExecutorSuccess(t *testing.T) {
	var scriptContent string
	runner := &MockRunner{
		runFunc: func(spec procrun.Spec) (procrun.Result, error) {
			data, err := os.ReadFile(spec.Args[0])
			if err != nil {
				return procrun.Result{}, err
			}
			scriptContent = string(data)
			return procrun.Result{Stdout: "Hello, World!\n"}, nil
		},
	}
	exec := NewCodeExecutor(zaptest.NewLogger(t), runner, testExecConfig())

	res := exec.Run(context.Background(), "/envs/demo", "print('Hello, World!')")

	assert.Equal(t, "Hello, World!\n", res.Output)
	assert.Empty(t, res.Error)
	assert.Equal(t, "print('Hello, World!')", scriptContent)

	require.Len(t, runner.calls, 1)
	call := runner.calls[0]
	assert.Equal(t, environment.InterpreterPath("/envs/demo"), call.Command)
	assert.Equal(t, 30*time.Second, call.Timeout)
	assert.NotEmpty(t, call.Dir)

	// The per-request script directory is removed after the run.
	_, err := os.Stat(call.Dir)
	assert.True(t, os.IsNotExist(err))
}

func TestCodeExecutorInterpreterException(t *testing.T) {
	traceback := "Traceback (most recent call last):\n" +
		"  File \"main.py\", line 1, in <module>\n" +
		"    raise ValueError('This is a test error')\n" +
		"ValueError: This is a test error\n"
	runner := &MockRunner{
		runFunc: func(procrun.Spec) (procrun.Result, error) {
			return procrun.Result{ExitCode: 1, Stdout: "partial\n", Stderr: traceback}, nil
		},
	}
	exec := NewCodeExecutor(zaptest.NewLogger(t), runner, testExecConfig())

	res := exec.Run(context.Background(), "/envs/demo", "raise ValueError('This is a test error')")

	assert.Equal(t, "partial\n", res.Output)
	assert.Equal(t, traceback, res.Error, "traceback must be forwarded verbatim")
}

func TestCodeExecutorTimeout(t *testing.T) {
	runner := &MockRunner{
		runFunc: func(procrun.Spec) (procrun.Result, error) {
			return procrun.Result{TimedOut: true, ExitCode: -1, Stdout: "before sleep\n"}, nil
		},
	}
	exec := NewCodeExecutor(zaptest.NewLogger(t), runner, testExecConfig())

	res := exec.Run(context.Background(), "/envs/demo", "import time; time.sleep(999)")

	assert.Equal(t, "before sleep\n", res.Output)
	assert.Equal(t, "Error: Code execution timed out (30 seconds limit)", res.Error)
}

func TestCodeExecutorSignalKilledChild(t *testing.T) {
	// A child killed by a signal (OOM kill, cancellation) reports a
	// non-zero exit with nothing on stderr; the result must still read as
	// a failure.
	runner := &MockRunner{
		runFunc: func(procrun.Spec) (procrun.Result, error) {
			return procrun.Result{ExitCode: -1, Stdout: "partial\n"}, nil
		},
	}
	exec := NewCodeExecutor(zaptest.NewLogger(t), runner, testExecConfig())

	res := exec.Run(context.Background(), "/envs/demo", "print('hi')")

	assert.Equal(t, "partial\n", res.Output)
	assert.Equal(t, "process exited with code -1", res.Error)
}

func TestCodeExecutorSpawnFailure(t *testing.T) {
	runner := &MockRunner{
		runFunc: func(procrun.Spec) (procrun.Result, error) {
			return procrun.Result{}, errors.New("no such file or directory")
		},
	}
	exec := NewCodeExecutor(zaptest.NewLogger(t), runner, testExecConfig())

	res := exec.Run(context.Background(), "/envs/missing", "print('hi')")

	assert.Empty(t, res.Output)
	assert.Contains(t, res.Error, "failed to start interpreter")
}

func TestCodeExecutorClassification(t *testing.T) {
	tests := []struct {
		name string
		proc procrun.Result
		want Result
	}{
		{
			name: "HelloWorld",
			proc: procrun.Result{Stdout: "Hello, World!\n"},
			want: Result{Output: "Hello, World!\n", Error: ""},
		},
		{
			name: "SumRange",
			proc: procrun.Result{Stdout: "Sum: 55\n"},
			want: Result{Output: "Sum: 55\n", Error: ""},
		},
		{
			name: "RaisedValueError",
			proc: procrun.Result{ExitCode: 1, Stderr: "ValueError: This is a test error\n"},
			want: Result{Output: "", Error: "ValueError: This is a test error\n"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &MockRunner{
				runFunc: func(procrun.Spec) (procrun.Result, error) {
					return tt.proc, nil
				},
			}
			exec := NewCodeExecutor(zaptest.NewLogger(t), runner, testExecConfig())

			res := exec.Run(context.Background(), "/envs/demo", "code")
			assert.Equal(t, tt.want, res)
		})
	}
}
