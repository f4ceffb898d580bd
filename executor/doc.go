// Package executor runs submitted Python code and orchestrates requests.
//
// The CodeExecutor persists code to a per-request script, runs the target
// environment's interpreter against it under the execution timeout, and
// classifies the outcome. Interpreter error text (tracebacks) is forwarded
// verbatim, never parsed.
//
// The Service is the boundary the transport layers call. It resolves the
// dependency set, obtains a cached or ephemeral environment, executes the
// code, and encodes every failure class into the Result. It never returns an
// error and never lets a request take down the process.
package executor
