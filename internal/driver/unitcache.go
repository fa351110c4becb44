package driver

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"blaise/internal/module"
	"blaise/internal/project"
)

// UnitCache keeps compiled units for one build: an in-memory map in front
// of the persisted .bcu files in Dir. Dir may be empty, in which case
// nothing is read from or written to disk. Safe for concurrent use.
type UnitCache struct {
	mu    sync.RWMutex
	dir   string
	units map[string]*module.Unit
}

// NewUnitCache creates a cache over dir.
func NewUnitCache(dir string) *UnitCache {
	return &UnitCache{dir: dir, units: make(map[string]*module.Unit)}
}

// Dir returns the persisted-unit directory.
func (c *UnitCache) Dir() string { return c.dir }

// Fresh returns the unit for name if it was compiled from the source with
// hash src against dependencies whose current hashes are deps. A missing,
// corrupt or stale unit is a miss; the reason comes back as err for
// tracing and is never fatal.
func (c *UnitCache) Fresh(name, path string, src project.Digest, deps map[string]project.Digest) (*module.Unit, error) {
	c.mu.RLock()
	u, ok := c.units[name]
	c.mu.RUnlock()
	if !ok {
		if c.dir == "" {
			return nil, nil
		}
		loaded, found, err := module.Load(c.dir, name)
		if err != nil || !found {
			return nil, err
		}
		u = loaded
	}
	if u.Path != path {
		return nil, fmt.Errorf("%s: compiled from %s: %w", name, u.Path, module.ErrStaleUnit)
	}
	if err := u.CheckFresh(src, deps); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.units[name] = u
	c.mu.Unlock()
	return u, nil
}

// Put records u and persists it when the cache has a directory.
func (c *UnitCache) Put(u *module.Unit) error {
	c.mu.Lock()
	c.units[u.Name] = u
	c.mu.Unlock()
	if c.dir == "" {
		return nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return module.Save(c.dir, u)
}

// Get returns a unit recorded during this build.
func (c *UnitCache) Get(name string) (*module.Unit, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.units[name]
	return u, ok
}

// IsMiss reports errors that only mean "recompile".
func IsMiss(err error) bool {
	return err == nil || errors.Is(err, module.ErrStaleUnit) || errors.Is(err, module.ErrCorruptUnit)
}
