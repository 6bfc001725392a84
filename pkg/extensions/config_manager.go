package extensions

import (
	"fmt"
	"sort"
	"sync"
)

// ConfigManager keeps the default config each extension registered with, so
// callers can check whether a persisted config still has the same structure.
type ConfigManager struct {
	mu      sync.RWMutex
	configs map[string]*ExtensionConfig
}

// NewConfigManager creates an empty config manager
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		configs: make(map[string]*ExtensionConfig),
	}
}

// Register stores a copy of the default config of an extension
func (m *ConfigManager) Register(name string, config *ExtensionConfig) error {
	if config == nil {
		return fmt.Errorf("cannot register nil config for %s", name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.configs[name] = config.Clone()
	return nil
}

// Get returns a copy of the default config of an extension
func (m *ConfigManager) Get(name string) (*ExtensionConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	config, ok := m.configs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, name)
	}
	return config.Clone(), nil
}

// Names returns the names with a registered config, sorted
func (m *ConfigManager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.configs))
	for name := range m.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
