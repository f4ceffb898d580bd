package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Runner       RunnerConfig       `mapstructure:"runner"`
	Environments EnvironmentsConfig `mapstructure:"environments"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Transport string `mapstructure:"transport"`
	HTTPPort  int    `mapstructure:"http_port"`
}

// RunnerConfig holds process runner configuration. Each timeout bounds one
// phase of a request: virtualenv creation, dependency install, and code
// execution.
type RunnerConfig struct {
	UVPath            string `mapstructure:"uv_path"`
	CreateTimeoutSec  int    `mapstructure:"create_timeout_sec"`
	InstallTimeoutSec int    `mapstructure:"install_timeout_sec"`
	ExecTimeoutSec    int    `mapstructure:"exec_timeout_sec"`
	MaxOutputKB       int    `mapstructure:"max_output_kb"`
}

// EnvironmentsConfig holds settings for named environment storage
type EnvironmentsConfig struct {
	Root string `mapstructure:"root"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

// New loads and validates the application configuration
func New() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set default values
	viper.SetDefault("server.transport", "http")
	viper.SetDefault("server.http_port", 8000)

	viper.SetDefault("runner.uv_path", "uv")
	viper.SetDefault("runner.create_timeout_sec", 30)
	viper.SetDefault("runner.install_timeout_sec", 300)
	viper.SetDefault("runner.exec_timeout_sec", 30)
	viper.SetDefault("runner.max_output_kb", 1024)

	viper.SetDefault("environments.root", filepath.Join(os.TempDir(), "venvbox-envs"))

	viper.SetDefault("logging.mode", "production")
	viper.SetDefault("logging.level", "info")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// If config file not found, continue with defaults
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

// validate ensures the configuration is valid
func (c *Config) validate() error {
	supportedTransports := map[string]bool{
		"http":      true,
		"mcp-stdio": true,
		"mcp-http":  true,
	}
	if !supportedTransports[c.Server.Transport] {
		return fmt.Errorf("invalid server.transport: %s, must be 'http', 'mcp-stdio' or 'mcp-http'", c.Server.Transport)
	}

	if c.Server.HTTPPort <= 0 {
		return fmt.Errorf("server.http_port must be positive, got: %d", c.Server.HTTPPort)
	}

	if c.Runner.UVPath == "" {
		return fmt.Errorf("runner.uv_path must not be empty")
	}

	if c.Runner.CreateTimeoutSec <= 0 {
		return fmt.Errorf("runner.create_timeout_sec must be positive, got: %d", c.Runner.CreateTimeoutSec)
	}

	if c.Runner.InstallTimeoutSec <= 0 {
		return fmt.Errorf("runner.install_timeout_sec must be positive, got: %d", c.Runner.InstallTimeoutSec)
	}

	if c.Runner.ExecTimeoutSec <= 0 {
		return fmt.Errorf("runner.exec_timeout_sec must be positive, got: %d", c.Runner.ExecTimeoutSec)
	}

	if c.Runner.MaxOutputKB <= 0 {
		return fmt.Errorf("runner.max_output_kb must be positive, got: %d", c.Runner.MaxOutputKB)
	}

	if c.Environments.Root == "" {
		return fmt.Errorf("environments.root must not be empty")
	}

	if c.Logging.Mode != "production" && c.Logging.Mode != "development" {
		return fmt.Errorf("invalid logging.mode: %s, must be 'production' or 'development'", c.Logging.Mode)
	}

	supportedLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
		"dpanic": true, "panic": true, "fatal": true,
	}
	if !supportedLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	return nil
}

// CreateTimeout returns the virtualenv creation timeout as a duration
func (c *Config) CreateTimeout() time.Duration {
	return time.Duration(c.Runner.CreateTimeoutSec) * time.Second
}

// InstallTimeout returns the dependency install timeout as a duration
func (c *Config) InstallTimeout() time.Duration {
	return time.Duration(c.Runner.InstallTimeoutSec) * time.Second
}

// ExecTimeout returns the code execution timeout as a duration
func (c *Config) ExecTimeout() time.Duration {
	return time.Duration(c.Runner.ExecTimeoutSec) * time.Second
}

// MaxOutputBytes returns the per-stream capture limit in bytes
func (c *Config) MaxOutputBytes() int {
	return c.Runner.MaxOutputKB * 1024
}
