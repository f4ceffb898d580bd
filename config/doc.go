// Package config provides application configuration management.
//
// The config package handles loading and validation of the application's
// configuration from YAML files. It covers server settings, process runner
// timeouts, the named-environment root directory, and logging.
//
// The configuration is read once at startup and treated as immutable
// afterwards; components receive the loaded *Config and never consult
// environment variables or files on their own.
//
// Usage:
//
//	cfg, err := config.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Server transport: %s\n", cfg.Server.Transport)
package config
