// Package main is the entry point for the venvbox server.
//
// venvbox executes caller-submitted Python code in isolated virtual
// environments managed with uv, installing requested dependencies first.
// Named environments are cached and reused across requests while their
// dependency set matches; unnamed requests get a throwaway environment.
//
// The application uses Uber's fx framework for dependency injection and
// lifecycle management, with zap for structured logging and viper for
// configuration. Requests are served over plain JSON HTTP or over MCP,
// selected by server.transport.
package main
