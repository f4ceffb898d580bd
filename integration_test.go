package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/isdmx/venvbox/config"
	"github.com/isdmx/venvbox/environment"
	"github.com/isdmx/venvbox/executor"
	"github.com/isdmx/venvbox/httpserver"
	"github.com/isdmx/venvbox/logger"
	"github.com/isdmx/venvbox/mcpserver"
	"github.com/isdmx/venvbox/procrun"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			Transport: "http",
			HTTPPort:  8000,
		},
		Runner: config.RunnerConfig{
			// A nonexistent uv binary makes provisioning fail fast, which is
			// enough to drive the full request path deterministically.
			UVPath:            filepath.Join(t.TempDir(), "uv-not-installed"),
			CreateTimeoutSec:  5,
			InstallTimeoutSec: 10,
			ExecTimeoutSec:    5,
			MaxOutputKB:       64,
		},
		Environments: config.EnvironmentsConfig{Root: t.TempDir()},
		Logging: config.LoggingConfig{
			Mode:  "development",
			Level: "debug",
		},
	}
}

// buildService wires the real component graph the way cmd/server does.
func buildService(t *testing.T, cfg *config.Config) *executor.Service {
	t.Helper()
	log := zaptest.NewLogger(t)
	runner := procrun.NewExecRunner(log, cfg.MaxOutputBytes())
	prov := environment.NewUVProvisioner(log, runner, cfg)
	cache := environment.NewCache(log, prov, cfg)
	exec := executor.NewCodeExecutor(log, runner, cfg)
	return executor.NewService(log, cache, prov, exec)
}

func TestIntegrationConfigAndLogger(t *testing.T) {
	cfg := testConfig(t)

	testLogger, err := logger.New(cfg.Logging.Mode, cfg.Logging.Level)
	require.NoError(t, err)
	require.NotNil(t, testLogger)

	testLogger.Info("integration test started")
	_ = testLogger.Sync()
}

func TestIntegrationServerConstruction(t *testing.T) {
	cfg := testConfig(t)
	log := zaptest.NewLogger(t)
	svc := buildService(t, cfg)

	httpSrv := httpserver.New(cfg, log, svc)
	require.NotNil(t, httpSrv)

	mcpSrv, err := mcpserver.New(cfg, log, svc)
	require.NoError(t, err)
	require.NotNil(t, mcpSrv)
	assert.NotNil(t, mcpSrv.GetMCPServer())
}

func TestIntegrationExecuteOverHTTP(t *testing.T) {
	cfg := testConfig(t)
	srv := httpserver.New(cfg, zaptest.NewLogger(t), buildService(t, cfg))

	t.Run("EphemeralProvisioningFailureIsWellFormed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/execute",
			strings.NewReader(`{"code": "print('Hello, World!')"}`)))

		// Provisioning cannot succeed here, but the contract holds: a
		// well-formed result with the failure encoded in the error field.
		require.Equal(t, http.StatusOK, rec.Code)
		var res executor.Result
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Empty(t, res.Output)
		assert.Equal(t, "Failed to create virtual environment", res.Error)
	})

	t.Run("NamedProvisioningFailureIsRetryable", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/execute",
				strings.NewReader(`{"code": "print(1)", "name": "it-env", "lib": ["requests==2.31.0"]}`)))

			require.Equal(t, http.StatusOK, rec.Code)
			var res executor.Result
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			assert.Equal(t, "Failed to create virtual environment", res.Error)
		}
	})

	t.Run("InfoEndpoint", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "/execute", body["endpoint"])
	})
}
