package environment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/isdmx/venvbox/config"
)

// State describes the lifecycle of a cached environment record
type State int

// Environment record states
const (
	StateEmpty State = iota
	StateProvisioning
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateProvisioning:
		return "provisioning"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// record is the mutable per-name entry. All fields are guarded by the cache
// mutex; the condition variable serializes provisioning per name.
type record struct {
	cond              *sync.Cond
	path              string
	deps              DepSet
	state             State
	lastProvisionedAt time.Time
}

// Cache is the process-wide registry of named environments. It hands out
// ready environment paths and guarantees at most one concurrent provisioning
// per name. The mutex is only held for record bookkeeping, never across a
// provisioning run, so unrelated names make progress independently.
type Cache struct {
	logger *zap.Logger
	prov   Provisioner
	root   string

	mu      sync.Mutex
	records map[string]*record
}

// NewCache creates a Cache storing environments under cfg.Environments.Root
func NewCache(logger *zap.Logger, prov Provisioner, cfg *config.Config) *Cache {
	return &Cache{
		logger:  logger,
		prov:    prov,
		root:    cfg.Environments.Root,
		records: make(map[string]*record),
	}
}

// GetOrProvision returns the path of a ready environment for name with the
// given dependency set, provisioning or rebuilding it first if needed.
//
// If another request is provisioning the same name, the call blocks until
// that attempt finishes and then re-evaluates the record, so identical
// concurrent requests trigger exactly one provisioning pass. A failed record
// is not terminal; the next call retries from scratch.
func (c *Cache) GetOrProvision(ctx context.Context, name string, deps DepSet) (string, error) {
	// The name becomes a path segment under the root; a bad one could make
	// the rebuild below destroy a directory the cache does not own.
	if err := ValidateName(name); err != nil {
		return "", err
	}

	c.mu.Lock()
	rec, ok := c.records[name]
	if !ok {
		rec = &record{
			cond:  sync.NewCond(&c.mu),
			path:  filepath.Join(c.root, name),
			state: StateEmpty,
		}
		c.records[name] = rec
	}

	for rec.state == StateProvisioning {
		rec.cond.Wait()
	}

	if rec.state == StateReady && rec.deps.Equal(deps) {
		path := rec.path
		c.mu.Unlock()
		c.logger.Debug("environment reused",
			zap.String("name", name),
			zap.String("path", path))
		return path, nil
	}

	prev := rec.state
	rec.state = StateProvisioning
	c.mu.Unlock()

	c.logger.Info("provisioning environment",
		zap.String("name", name),
		zap.String("path", rec.path),
		zap.String("previous_state", prev.String()),
		zap.Strings("deps", deps))

	err := c.rebuild(ctx, rec.path, deps)

	c.mu.Lock()
	if err != nil {
		rec.state = StateFailed
	} else {
		rec.state = StateReady
		rec.deps = deps
		rec.lastProvisionedAt = time.Now()
	}
	rec.cond.Broadcast()
	c.mu.Unlock()

	if err != nil {
		return "", err
	}
	return rec.path, nil
}

// rebuild removes whatever occupies path and provisions a fresh environment
// there. The removal also covers directories left over from a previous
// process whose dependency set is unknown, and half-built remains of a
// failed attempt.
func (c *Cache) rebuild(ctx context.Context, path string, deps DepSet) error {
	if err := os.MkdirAll(c.root, 0o755); err != nil {
		return fmt.Errorf("failed to create environments root: %w", err)
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to remove previous environment: %w", err)
	}
	return c.prov.Provision(ctx, path, deps)
}
