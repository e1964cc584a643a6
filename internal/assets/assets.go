// Package assets resolves and caches heightmap rasters from search directories.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Faultbox/terragen/pkg/raster"
)

var ErrNotFound = errors.New("asset not found")

// Manager looks up files by name across a list of directories.
type Manager struct {
	dirs    []string
	files   *Cache[[]byte]
	rasters *Cache[*raster.Raster]
	mu      sync.RWMutex
}

// NewManager creates a manager searching dirs in the given order of priority,
// lowest first.
func NewManager(dirs ...string) *Manager {
	m := &Manager{
		files:   NewCache[[]byte](),
		rasters: NewCache[*raster.Raster](),
	}
	for _, d := range dirs {
		m.AddSearchPath(d)
	}
	return m
}

// AddSearchPath adds a directory. Directories are searched in reverse order
// (last added = highest priority).
func (m *Manager) AddSearchPath(dir string) {
	m.mu.Lock()
	m.dirs = append(m.dirs, filepath.Clean(dir))
	m.mu.Unlock()
}

// SearchPaths returns the configured directories, lowest priority first.
func (m *Manager) SearchPaths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.dirs...)
}

// Resolve returns the path of the file named name. Search directories are
// tried first, then name itself as an absolute or working-directory path.
// A name without an extension matches any raster extension.
func (m *Manager) Resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrNotFound)
	}

	names := []string{name}
	if filepath.Ext(name) == "" {
		for _, ext := range raster.Extensions {
			names = append(names, name+ext)
		}
	}

	if !filepath.IsAbs(name) {
		m.mu.RLock()
		for i := len(m.dirs) - 1; i >= 0; i-- {
			for _, n := range names {
				if p := filepath.Join(m.dirs[i], n); fileExists(p) {
					m.mu.RUnlock()
					return p, nil
				}
			}
		}
		m.mu.RUnlock()
	}

	for _, n := range names {
		if fileExists(n) {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Load returns the contents of the named file.
func (m *Manager) Load(name string) ([]byte, error) {
	if data, ok := m.files.Get(name); ok {
		return data, nil
	}

	path, err := m.Resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	m.files.Set(name, data)
	return data, nil
}

// Raster loads and decodes the named heightmap. Decoded rasters are cached
// and shared; callers must not modify them.
func (m *Manager) Raster(name string) (*raster.Raster, error) {
	if r, ok := m.rasters.Get(name); ok {
		return r, nil
	}

	path, err := m.Resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := m.Load(name)
	if err != nil {
		return nil, err
	}
	r, err := raster.DecodeBytes(path, data)
	if err != nil {
		return nil, err
	}
	m.rasters.Set(name, r)
	return r, nil
}

// Stats returns combined hit/miss counts of the file and raster caches.
func (m *Manager) Stats() (hits, misses int) {
	fh, fm := m.files.Stats()
	rh, rm := m.rasters.Stats()
	return fh + rh, fm + rm
}

// Close drops all cached data.
func (m *Manager) Close() {
	m.files.Clear()
	m.rasters.Clear()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Cache is a simple in-memory cache keyed by asset name.
type Cache[V any] struct {
	data map[string]V
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache[V any]() *Cache[V] {
	return &Cache[V]{
		data: make(map[string]V),
	}
}

// Get retrieves an item from cache.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}

// Set stores an item in cache.
func (c *Cache[V]) Set(key string, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = v
}

// Len returns the number of cached entries.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Clear clears the cache.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]V)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache[V]) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
