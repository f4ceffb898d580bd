// Package procrun provides bounded external process execution.
//
// The procrun package is the single primitive used for every child process
// the service spawns: virtualenv creation, dependency installation, and code
// execution all go through the same Runner so that deadline and kill
// semantics are uniform.
//
// Each child runs in its own process group. When the deadline expires the
// whole group receives SIGKILL, so interpreter subprocesses cannot outlive
// the request that started them. Both output streams are captured into
// size-capped buffers.
//
// Usage:
//
//	runner := procrun.NewExecRunner(logger, 1<<20)
//	res, err := runner.Run(ctx, procrun.Spec{
//	    Command: "uv",
//	    Args:    []string{"venv", "/tmp/env"},
//	    Timeout: 30 * time.Second,
//	})
package procrun
