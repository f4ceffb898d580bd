package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/isdmx/venvbox/config"
	"github.com/isdmx/venvbox/environment"
	"github.com/isdmx/venvbox/executor"
	"github.com/isdmx/venvbox/httpserver"
	"github.com/isdmx/venvbox/logger"
	"github.com/isdmx/venvbox/mcpserver"
	"github.com/isdmx/venvbox/procrun"
)

func main() {
	app := fx.New(
		// Provide dependencies
		fx.Provide(
			// Config
			config.New,

			// Logger with configuration
			logger.NewFromConfig,

			// Bounded process runner shared by provisioning and execution
			func(log *zap.Logger, cfg *config.Config) procrun.Runner {
				return procrun.NewExecRunner(log, cfg.MaxOutputBytes())
			},

			// Environment provisioning and the named-environment cache
			func(log *zap.Logger, runner procrun.Runner, cfg *config.Config) environment.Provisioner {
				return environment.NewUVProvisioner(log, runner, cfg)
			},
			environment.NewCache,

			// Code execution
			executor.NewCodeExecutor,
			func(log *zap.Logger, cache *environment.Cache, prov environment.Provisioner, exec *executor.CodeExecutor) *executor.Service {
				return executor.NewService(log, cache, prov, exec)
			},

			// Transports
			func(cfg *config.Config, log *zap.Logger, svc *executor.Service) *httpserver.Server {
				return httpserver.New(cfg, log, svc)
			},
			func(cfg *config.Config, log *zap.Logger, svc *executor.Service) (*mcpserver.MCPServer, error) {
				return mcpserver.New(cfg, log, svc)
			},
		),

		// Start the appropriate transport based on config
		fx.Invoke(
			func(cfg *config.Config, httpSrv *httpserver.Server, mcpSrv *mcpserver.MCPServer) {
				switch cfg.Server.Transport {
				case "http":
					go func() {
						if err := httpSrv.Start(); err != nil {
							panic(err)
						}
					}()
				case "mcp-stdio":
					go func() {
						if err := mcpSrv.ServeStdio(); err != nil {
							panic(err)
						}
					}()
				case "mcp-http":
					go func() {
						if err := mcpSrv.ServeHTTP(); err != nil {
							panic(err)
						}
					}()
				default:
					panic("unsupported transport: " + cfg.Server.Transport)
				}
			},
		),

		// Use the application logger for fx logs
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
	)

	// Start the application
	app.Run()
}
