package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/isdmx/venvbox/environment"
)

// EnvironmentCache defines the cache interface the service depends on
type EnvironmentCache interface {
	GetOrProvision(ctx context.Context, name string, deps environment.DepSet) (string, error)
}

// Service orchestrates a full execution request: resolve the dependency set,
// obtain an environment (cached for named requests, ephemeral otherwise),
// run the code, and fold every failure into the Result.
type Service struct {
	logger *zap.Logger
	cache  EnvironmentCache
	prov   environment.Provisioner
	runner CodeRunner
}

// NewService creates an execution Service
func NewService(logger *zap.Logger, cache EnvironmentCache, prov environment.Provisioner, runner CodeRunner) *Service {
	return &Service{
		logger: logger,
		cache:  cache,
		prov:   prov,
		runner: runner,
	}
}

// Execute handles one request end to end. It never returns an error and
// never panics past this boundary; every failure is encoded in Result.Error.
func (s *Service) Execute(ctx context.Context, req Request) (res Result) {
	log := s.logger.With(zap.String("execution_id", uuid.NewString()))

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic during execution", zap.Any("panic", r))
			res = Result{Error: fmt.Sprintf("Unexpected error: %v", r)}
		}
	}()

	if strings.TrimSpace(req.Code) == "" {
		return Result{Error: "code must not be empty"}
	}

	deps, err := environment.ResolveDeps(req.Lib)
	if err != nil {
		return Result{Error: fmt.Sprintf("invalid dependency list: %v", err)}
	}

	var envPath string
	if req.Name != "" {
		if nameErr := environment.ValidateName(req.Name); nameErr != nil {
			return Result{Error: nameErr.Error()}
		}
		log = log.With(zap.String("env_name", req.Name))
		envPath, err = s.cache.GetOrProvision(ctx, req.Name, deps)
		if err != nil {
			return provisionFailure(log, err)
		}
	} else {
		dir, mkErr := os.MkdirTemp("", "venvbox-env-*")
		if mkErr != nil {
			log.Error("failed to create ephemeral environment directory", zap.Error(mkErr))
			return Result{Error: fmt.Sprintf("Unexpected error: %v", mkErr)}
		}
		// Ephemeral environments never outlive the request, whatever the
		// outcome.
		defer os.RemoveAll(dir)

		envPath = filepath.Join(dir, "venv")
		if provErr := s.prov.Provision(ctx, envPath, deps); provErr != nil {
			return provisionFailure(log, provErr)
		}
	}

	res = s.runner.Run(ctx, envPath, req.Code)
	log.Info("execution finished",
		zap.Int("output_len", len(res.Output)),
		zap.Bool("failed", res.Error != ""))
	return res
}

// provisionFailure renders a provisioning error into the caller-facing
// Result. The install phase surfaces the installer's stderr so the caller
// can see which specifier failed to resolve.
func provisionFailure(log *zap.Logger, err error) Result {
	log.Warn("environment provisioning failed", zap.Error(err))

	var perr *environment.ProvisionError
	if errors.As(err, &perr) {
		switch perr.Phase {
		case environment.PhaseCreate:
			return Result{Error: "Failed to create virtual environment"}
		case environment.PhaseInstall:
			detail := perr.Output
			if detail == "" {
				detail = perr.Error()
			}
			return Result{Error: fmt.Sprintf("Failed to install dependencies: %s", detail)}
		}
	}
	return Result{Error: fmt.Sprintf("Unexpected error: %v", err)}
}
