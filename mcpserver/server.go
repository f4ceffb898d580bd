package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/isdmx/venvbox/config"
	"github.com/isdmx/venvbox/executor"
)

// ExecutionService defines the service interface the MCP layer depends on
type ExecutionService interface {
	Execute(ctx context.Context, req executor.Request) executor.Result
}

// MCPServer represents the MCP server
type MCPServer struct {
	config    *config.Config
	logger    *zap.Logger
	svc       ExecutionService
	mcpServer *server.MCPServer
}

// New creates a new MCPServer
func New(cfg *config.Config, logger *zap.Logger, svc ExecutionService) (*MCPServer, error) {
	s := &MCPServer{
		config: cfg,
		logger: logger,
		svc:    svc,
	}

	// Log configuration parameters on startup
	logger.Info("configuration loaded",
		zap.String("server.transport", cfg.Server.Transport),
		zap.Int("server.http_port", cfg.Server.HTTPPort),
		zap.String("runner.uv_path", cfg.Runner.UVPath),
		zap.Int("runner.create_timeout_sec", cfg.Runner.CreateTimeoutSec),
		zap.Int("runner.install_timeout_sec", cfg.Runner.InstallTimeoutSec),
		zap.Int("runner.exec_timeout_sec", cfg.Runner.ExecTimeoutSec),
		zap.Int("runner.max_output_kb", cfg.Runner.MaxOutputKB),
		zap.String("environments.root", cfg.Environments.Root),
	)

	s.mcpServer = server.NewMCPServer("venvbox", "Python code execution in isolated virtual environments")

	s.registerExecutePythonTool()

	return s, nil
}

// registerExecutePythonTool registers the execute_python tool
func (s *MCPServer) registerExecutePythonTool() {
	tool := mcp.Tool{
		Name:        "execute_python",
		Description: "Execute Python code in an isolated virtual environment with optional dependencies",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"code": map[string]any{
					"type":        "string",
					"description": "Python code to execute",
				},
				"lib": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Dependency specifiers in requirements.txt format (optional)",
				},
				"name": map[string]any{
					"type":        "string",
					"description": "Named environment to reuse across calls (optional)",
				},
			},
			Required: []string{"code"},
		},
	}

	s.mcpServer.AddTool(tool, s.handleExecutePython)
}

// handleExecutePython handles the execute_python tool
func (s *MCPServer) handleExecutePython(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return nil, fmt.Errorf("code parameter is required: %w", err)
	}

	req := executor.Request{
		Code: code,
		Lib:  request.GetStringSlice("lib", nil),
		Name: request.GetString("name", ""),
	}

	s.logger.Info("code execution requested",
		zap.Int("lib_count", len(req.Lib)),
		zap.String("env_name", req.Name))

	result := s.svc.Execute(ctx, req)

	s.logger.Info("code execution completed",
		zap.Int("output_len", len(result.Output)),
		zap.Bool("failed", result.Error != ""))

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: string(resultJSON),
			},
		},
	}, nil
}

// ServeStdio starts the server on stdio
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server on stdio")
	return server.ServeStdio(s.mcpServer)
}

// ServeHTTP starts the server on HTTP
func (s *MCPServer) ServeHTTP() error {
	port := s.config.Server.HTTPPort
	s.logger.Info("starting MCP server on HTTP", zap.Int("port", port))

	httpServer := server.NewStreamableHTTPServer(s.mcpServer)
	return httpServer.Start(fmt.Sprintf(":%d", port))
}

// GetMCPServer returns the underlying MCP server for fx
func (s *MCPServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}
