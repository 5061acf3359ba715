// Package backend provides storage backend implementations.
// All backends implement types.BackendStorage and hand out share.Source
// handles for random-access reads.
package backend

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/LeeDigitalWorks/sharefs/pkg/types"
)

// Registry holds registered backend factories
var (
	registryMu sync.RWMutex
	registry   = make(map[types.StorageType]Factory)
)

// Factory creates a BackendStorage from config
type Factory func(cfg types.BackendConfig) (types.BackendStorage, error)

// Register adds a factory for a storage type
func Register(t types.StorageType, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[t] = f
}

// New creates a BackendStorage from config
func New(cfg types.BackendConfig) (types.BackendStorage, error) {
	registryMu.RLock()
	f, ok := registry[cfg.Type]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
	return f(cfg)
}

// Manager tracks the backends opened by one command
type Manager struct {
	mu       sync.RWMutex
	backends map[string]types.BackendStorage
	configs  map[string]types.BackendConfig
}

// NewManager creates a backend manager
func NewManager() *Manager {
	return &Manager{
		backends: make(map[string]types.BackendStorage),
		configs:  make(map[string]types.BackendConfig),
	}
}

// Add creates and registers a backend
func (m *Manager) Add(id string, cfg types.BackendConfig) (types.BackendStorage, error) {
	storage, err := New(cfg)
	if err != nil {
		return nil, fmt.Errorf("create backend %s: %w", id, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if old, exists := m.backends[id]; exists {
		old.Close()
	}

	m.backends[id] = storage
	m.configs[id] = cfg
	return storage, nil
}

// Get retrieves a backend by ID
func (m *Manager) Get(id string) (types.BackendStorage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.backends[id]
	return b, ok
}

// Config returns the configuration a backend was created from
func (m *Manager) Config(id string) (types.BackendConfig, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.configs[id]
	return cfg, ok
}

// Remove closes and removes a backend
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.backends[id]
	if !ok {
		return nil
	}
	delete(m.backends, id)
	delete(m.configs, id)
	return b.Close()
}

// List returns all backend IDs in sorted order
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.backends))
	for id := range m.backends {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close closes all backends
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for id, b := range m.backends {
		if err := b.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close backend %s: %w", id, err))
		}
	}
	m.backends = make(map[string]types.BackendStorage)
	m.configs = make(map[string]types.BackendConfig)
	return errors.Join(errs...)
}

// CleanKey normalizes a key to a slash separated path relative to the
// backend root. Keys cannot escape the root; "" and "/" map to "".
func CleanKey(key string) string {
	return strings.TrimPrefix(path.Clean("/"+key), "/")
}
