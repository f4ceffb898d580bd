// Package mcpserver provides the Model Context Protocol (MCP) transport.
//
// The mcpserver package exposes the execution service as an MCP tool using
// the mark3labs/mcp-go library. The execute_python tool accepts the same
// request shape as the HTTP transport (code, optional dependency list,
// optional environment name) and returns the {"output", "error"} result as
// JSON text content.
//
// The server supports both stdio and streamable HTTP transports as selected
// by the application configuration.
package mcpserver
