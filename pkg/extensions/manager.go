package extensions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/platinummonkey/omniverlay/pkg/observability"
	"github.com/sirupsen/logrus"
)

// Manager is the registry of extensions keyed by name
type Manager struct {
	mu         sync.RWMutex
	extensions map[string]*Handle
	configs    *ConfigManager
	log        *logrus.Logger
	metrics    *observability.Metrics
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithLogger sets the logger used by the manager
func WithLogger(log *logrus.Logger) ManagerOption {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithMetrics sets the metrics the manager records to
func WithMetrics(metrics *observability.Metrics) ManagerOption {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// NewManager creates an empty extension manager
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		extensions: make(map[string]*Handle),
		configs:    NewConfigManager(),
		log:        logrus.New(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ConfigManager returns the store of default extension configs
func (m *Manager) ConfigManager() *ConfigManager {
	return m.configs
}

// RegisterExtension adds an extension under the name found in its info.
// Registering a name twice fails with ErrExtensionAlreadyRegistered.
func (m *Manager) RegisterExtension(ext Extension) error {
	if ext == nil {
		return fmt.Errorf("cannot register nil extension")
	}

	info := ext.Info()
	if info == nil {
		return fmt.Errorf("%w: extension has nil info", ErrExtensionLoadFailed)
	}

	snapshot := info.Snapshot()
	if snapshot.Name == "" {
		return fmt.Errorf("%w: extension has an empty name", ErrExtensionLoadFailed)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.extensions[snapshot.Name]; exists {
		return fmt.Errorf("%w: %s", ErrExtensionAlreadyRegistered, snapshot.Name)
	}

	if snapshot.State.Config != nil {
		if err := m.configs.Register(snapshot.Name, snapshot.State.Config); err != nil {
			return fmt.Errorf("%w: %v", ErrExtensionLoadFailed, err)
		}
	}

	m.extensions[snapshot.Name] = newHandle(snapshot.Name, ext)
	m.metrics.RecordRegistered(len(m.extensions))

	m.log.WithFields(logrus.Fields{
		"extension": snapshot.Name,
		"enabled":   snapshot.State.IsEnabled,
	}).Info("Registered extension")

	return nil
}

// GetExtensionByName returns the handle of a registered extension
func (m *Manager) GetExtensionByName(name string) (*Handle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	handle, ok := m.extensions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrExtensionNotFound, name)
	}
	return handle, nil
}

// Has checks if an extension is registered
func (m *Manager) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.extensions[name]
	return ok
}

// Count returns the number of registered extensions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.extensions)
}

// Names returns the registered extension names, sorted
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.extensions))
	for name := range m.extensions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnableExtension runs the extension's Enable hook unless it is already enabled
func (m *Manager) EnableExtension(ctx context.Context, name string) error {
	return m.setEnabled(ctx, name, true)
}

// DisableExtension runs the extension's Disable hook unless it is already disabled
func (m *Manager) DisableExtension(ctx context.Context, name string) error {
	return m.setEnabled(ctx, name, false)
}

func (m *Manager) setEnabled(ctx context.Context, name string, enabled bool) error {
	handle, err := m.GetExtensionByName(name)
	if err != nil {
		return err
	}

	changed, err := handle.SetEnabled(ctx, enabled)
	if err != nil {
		m.metrics.RecordTransition(name, enabled, err)
		return err
	}

	if changed {
		m.metrics.RecordTransition(name, enabled, nil)
		m.log.WithFields(logrus.Fields{
			"extension": name,
			"enabled":   enabled,
		}).Info("Extension state changed")
	}

	return nil
}

// StartEnabled runs the Enable hook of every extension whose recorded state
// is enabled. Restoring a profile only records the flag, so this is called
// once after startup to bring the extensions' side effects in line with it.
// An extension whose hook fails is recorded as disabled.
func (m *Manager) StartEnabled(ctx context.Context) error {
	var errs []error
	for _, handle := range m.handles() {
		started := false
		err := handle.With(ctx, func(ext Extension) error {
			info := ext.Info()
			if !info.IsEnabled() {
				return nil
			}
			started = true
			if err := ext.Enable(); err != nil {
				info.SetEnabled(false)
				return fmt.Errorf("failed to enable extension %s: %w", handle.Name(), err)
			}
			return nil
		})
		if started {
			m.metrics.RecordTransition(handle.Name(), true, err)
		}
		if err != nil {
			m.log.WithError(err).WithField("extension", handle.Name()).Warn("Extension failed to start")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// UpdateExtensionState overwrites the recorded state of an extension.
// The Enable/Disable hooks are not run: this restores persisted state.
func (m *Manager) UpdateExtensionState(ctx context.Context, name string, state ExtensionState) error {
	handle, err := m.GetExtensionByName(name)
	if err != nil {
		return err
	}

	return handle.With(ctx, func(ext Extension) error {
		ext.Info().SetState(state)
		return nil
	})
}

// UpdateExtensionLayout overwrites the layout of an extension
func (m *Manager) UpdateExtensionLayout(ctx context.Context, name string, layout ExtensionLayout) error {
	handle, err := m.GetExtensionByName(name)
	if err != nil {
		return err
	}

	return handle.With(ctx, func(ext Extension) error {
		ext.Info().SetLayout(layout)
		return nil
	})
}

// ListExtensions returns a copy of every extension's info, sorted by name.
// Each copy is taken under that extension's own lock, so the listing as a
// whole is not atomic.
func (m *Manager) ListExtensions(ctx context.Context) ([]ExtensionInfo, error) {
	handles := m.handles()

	infos := make([]ExtensionInfo, 0, len(handles))
	for _, handle := range handles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		infos = append(infos, handle.Extension().Info().Snapshot())
	}

	return infos, nil
}

// handles returns the registered handles sorted by name
func (m *Manager) handles() []*Handle {
	m.mu.RLock()
	handles := make([]*Handle, 0, len(m.extensions))
	for _, handle := range m.extensions {
		handles = append(handles, handle)
	}
	m.mu.RUnlock()

	sort.Slice(handles, func(i, j int) bool {
		return handles[i].Name() < handles[j].Name()
	})
	return handles
}
