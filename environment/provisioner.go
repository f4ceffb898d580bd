package environment

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/isdmx/venvbox/config"
	"github.com/isdmx/venvbox/procrun"
)

// ProvisionPhase identifies which provisioning step failed
type ProvisionPhase string

// Provisioning phases
const (
	PhaseCreate  ProvisionPhase = "create"
	PhaseInstall ProvisionPhase = "install"
)

// ProvisionError describes a failed provisioning attempt. Output carries the
// failing command's stderr verbatim so callers can surface the installer's
// own diagnostics.
type ProvisionError struct {
	Phase    ProvisionPhase
	TimedOut bool
	Output   string
	Err      error
}

func (e *ProvisionError) Error() string {
	switch {
	case e.TimedOut:
		return fmt.Sprintf("environment %s phase timed out", e.Phase)
	case e.Err != nil:
		return fmt.Sprintf("environment %s phase failed: %v", e.Phase, e.Err)
	default:
		return fmt.Sprintf("environment %s phase failed: %s", e.Phase, e.Output)
	}
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// Provisioner defines the interface for environment provisioning
type Provisioner interface {
	Provision(ctx context.Context, path string, deps DepSet) error
}

// UVProvisioner implements Provisioner using the uv package manager
type UVProvisioner struct {
	logger         *zap.Logger
	runner         procrun.Runner
	uvPath         string
	createTimeout  time.Duration
	installTimeout time.Duration
}

// NewUVProvisioner creates a UVProvisioner from the application configuration
func NewUVProvisioner(logger *zap.Logger, runner procrun.Runner, cfg *config.Config) *UVProvisioner {
	return &UVProvisioner{
		logger:         logger,
		runner:         runner,
		uvPath:         cfg.Runner.UVPath,
		createTimeout:  cfg.CreateTimeout(),
		installTimeout: cfg.InstallTimeout(),
	}
}

// Provision creates a virtual environment at path and installs deps into it.
// Either step failing or timing out aborts the whole attempt; a partially
// provisioned directory is left behind and rebuilt by the next attempt.
func (p *UVProvisioner) Provision(ctx context.Context, path string, deps DepSet) error {
	res, err := p.runner.Run(ctx, procrun.Spec{
		Command: p.uvPath,
		Args:    []string{"venv", path},
		Timeout: p.createTimeout,
	})
	if err != nil {
		return &ProvisionError{Phase: PhaseCreate, Err: err}
	}
	if res.TimedOut {
		p.logger.Warn("virtual environment creation timed out",
			zap.String("path", path),
			zap.Duration("timeout", p.createTimeout))
		return &ProvisionError{Phase: PhaseCreate, TimedOut: true, Output: res.Stderr}
	}
	if res.ExitCode != 0 {
		p.logger.Warn("virtual environment creation failed",
			zap.String("path", path),
			zap.Int("exit_code", res.ExitCode),
			zap.String("stderr", res.Stderr))
		return &ProvisionError{Phase: PhaseCreate, Output: res.Stderr}
	}

	p.logger.Info("virtual environment created",
		zap.String("path", path),
		zap.Duration("duration", res.Duration))

	if deps.Empty() {
		return nil
	}
	return p.install(ctx, path, deps)
}

func (p *UVProvisioner) install(ctx context.Context, path string, deps DepSet) error {
	reqFile, err := os.CreateTemp("", "venvbox-req-*.txt")
	if err != nil {
		return fmt.Errorf("failed to create requirements file: %w", err)
	}
	defer os.Remove(reqFile.Name())

	if _, err := reqFile.WriteString(deps.Requirements()); err != nil {
		reqFile.Close()
		return fmt.Errorf("failed to write requirements file: %w", err)
	}
	if err := reqFile.Close(); err != nil {
		return fmt.Errorf("failed to write requirements file: %w", err)
	}

	res, err := p.runner.Run(ctx, procrun.Spec{
		Command: p.uvPath,
		Args:    []string{"pip", "install", "-r", reqFile.Name(), "--python", path},
		Timeout: p.installTimeout,
	})
	if err != nil {
		return &ProvisionError{Phase: PhaseInstall, Err: err}
	}
	if res.TimedOut {
		p.logger.Warn("dependency install timed out",
			zap.String("path", path),
			zap.Strings("deps", deps),
			zap.Duration("timeout", p.installTimeout))
		return &ProvisionError{Phase: PhaseInstall, TimedOut: true, Output: res.Stderr}
	}
	if res.ExitCode != 0 {
		p.logger.Warn("dependency install failed",
			zap.String("path", path),
			zap.Strings("deps", deps),
			zap.Int("exit_code", res.ExitCode),
			zap.String("stderr", res.Stderr))
		return &ProvisionError{Phase: PhaseInstall, Output: res.Stderr}
	}

	p.logger.Info("dependencies installed",
		zap.String("path", path),
		zap.Int("count", len(deps)),
		zap.Duration("duration", res.Duration))
	return nil
}
