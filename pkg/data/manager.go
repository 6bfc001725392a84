package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/omniverlay/pkg/observability"
	"github.com/platinummonkey/omniverlay/pkg/storage"
)

// Current is the shared handle to a manager's current document.
// Collaborators mutate it with Update and then call Manager.Save.
type Current[T Document[T]] struct {
	mu  sync.RWMutex
	doc T
}

// Name returns the name of the current document
func (c *Current[T]) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.doc.Name()
}

// Read calls fn with the current document under the read lock.
// fn must not retain or modify the document, and must not call Update.
func (c *Current[T]) Read(fn func(T)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn(c.doc)
}

// Update calls fn with the current document under the write lock
func (c *Current[T]) Update(fn func(T) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c.doc)
}

// Snapshot returns a deep copy of the current document
func (c *Current[T]) Snapshot() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.doc.Clone()
}

func (c *Current[T]) replace(doc T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.doc = doc
}

// ManagerOption configures a Manager
type ManagerOption func(*managerOptions)

type managerOptions struct {
	log     *logrus.Logger
	metrics *observability.Metrics
}

// WithLogger sets the logger
func WithLogger(log *logrus.Logger) ManagerOption {
	return func(o *managerOptions) {
		if log != nil {
			o.log = log
		}
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(metrics *observability.Metrics) ManagerOption {
	return func(o *managerOptions) {
		o.metrics = metrics
	}
}

// Manager owns the current document of one kind and moves it between memory,
// disk and the live extensions.
type Manager[T Document[T]] struct {
	kind     storage.Kind
	store    storage.Store
	registry ExtensionRegistry
	newDoc   func(name string) T
	current  *Current[T]
	log      *logrus.Logger
	metrics  *observability.Metrics
}

// NewManager creates a manager whose current document is an empty, unsaved
// document named DefaultName.
func NewManager[T Document[T]](store storage.Store, registry ExtensionRegistry, newDoc func(name string) T, opts ...ManagerOption) *Manager[T] {
	o := managerOptions{log: logrus.New()}
	for _, opt := range opts {
		opt(&o)
	}

	initial := newDoc(DefaultName)
	return &Manager[T]{
		kind:     initial.Kind(),
		store:    store,
		registry: registry,
		newDoc:   newDoc,
		current:  &Current[T]{doc: initial},
		log:      o.log,
		metrics:  o.metrics,
	}
}

// NewProfileManager creates a manager for profiles
func NewProfileManager(store storage.Store, registry ExtensionRegistry, opts ...ManagerOption) *Manager[*Profile] {
	return NewManager(store, registry, NewProfile, opts...)
}

// NewLayoutManager creates a manager for layouts
func NewLayoutManager(store storage.Store, registry ExtensionRegistry, opts ...ManagerOption) *Manager[*Layout] {
	return NewManager(store, registry, NewLayout, opts...)
}

// Kind returns the document kind this manager handles
func (m *Manager[T]) Kind() storage.Kind {
	return m.kind
}

// Current returns the shared handle to the current document
func (m *Manager[T]) Current() *Current[T] {
	return m.current
}

// Load reads, decodes and reconciles a document without making it current
func (m *Manager[T]) Load(ctx context.Context, name string) (T, error) {
	var zero T

	if err := ValidateName(name); err != nil {
		return zero, err
	}

	raw, err := m.store.Read(ctx, m.kind, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return zero, fmt.Errorf("%w: %s %s", ErrDataNotFound, m.kind, name)
		}
		return zero, err
	}

	doc := m.newDoc(name)
	if err := json.Unmarshal(raw, doc); err != nil {
		return zero, fmt.Errorf("failed to decode %s %s: %w", m.kind, name, err)
	}
	doc.SetName(name)

	if err := doc.OnLoad(ctx, m.registry); err != nil {
		return zero, fmt.Errorf("failed to reconcile %s %s: %w", m.kind, name, err)
	}

	return doc, nil
}

// Switch makes the named document current and then saves it, which persists
// the reconciliation and applies it to the extensions.
func (m *Manager[T]) Switch(ctx context.Context, name string) error {
	doc, err := m.Load(ctx, name)
	if err != nil {
		m.metrics.RecordSwitch(string(m.kind), err)
		return err
	}

	m.current.replace(doc)

	err = m.Save(ctx)
	m.metrics.RecordSwitch(string(m.kind), err)
	if err != nil {
		return err
	}

	m.log.WithFields(logrus.Fields{
		"kind": m.kind,
		"name": name,
	}).Info("Switched document")

	return nil
}

// SwitchOrCreate switches to the named document, creating it when it does
// not exist yet.
func (m *Manager[T]) SwitchOrCreate(ctx context.Context, name string) error {
	err := m.Switch(ctx, name)
	if errors.Is(err, ErrDataNotFound) {
		m.log.WithFields(logrus.Fields{
			"kind": m.kind,
			"name": name,
		}).Info("Document not found, creating it")
		return m.Create(ctx, name)
	}
	return err
}

// Save writes the current document to disk and then applies it to the
// extensions. The document is read-locked throughout, so updates wait for
// an in-flight save and concurrent saves apply the same content.
func (m *Manager[T]) Save(ctx context.Context) error {
	var err error
	m.current.Read(func(doc T) {
		err = m.save(ctx, doc)
	})
	return err
}

func (m *Manager[T]) save(ctx context.Context, doc T) error {
	name := doc.Name()

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		err = fmt.Errorf("failed to encode %s %s: %w", m.kind, name, err)
		m.metrics.RecordSave(string(m.kind), err)
		return err
	}

	if err := m.store.Write(ctx, m.kind, name, raw); err != nil {
		err = fmt.Errorf("failed to save %s %s: %w", m.kind, name, err)
		m.metrics.RecordSave(string(m.kind), err)
		return err
	}
	m.metrics.RecordSave(string(m.kind), nil)

	start := time.Now()
	err = doc.ApplyToExtensions(ctx, m.registry)
	m.metrics.ObserveApply(string(m.kind), time.Since(start).Seconds())
	if err != nil {
		return err
	}

	m.log.WithFields(logrus.Fields{
		"kind": m.kind,
		"name": name,
	}).Debug("Saved and applied document")

	return nil
}

// Create makes a new empty document current, reconciles it with the
// registered extensions and saves it.
func (m *Manager[T]) Create(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	exists, err := m.store.Exists(ctx, m.kind, name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s %s", ErrDataExists, m.kind, name)
	}

	doc := m.newDoc(name)
	if err := doc.OnLoad(ctx, m.registry); err != nil {
		return fmt.Errorf("failed to reconcile %s %s: %w", m.kind, name, err)
	}

	m.current.replace(doc)

	if err := m.Save(ctx); err != nil {
		return err
	}

	m.log.WithFields(logrus.Fields{
		"kind": m.kind,
		"name": name,
	}).Info("Created document")

	return nil
}

// List returns the names of all stored documents, sorted
func (m *Manager[T]) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx, m.kind)
}

// NextName returns the first free name of the form "<prefix> N", starting
// at one more than the number of stored documents.
func (m *Manager[T]) NextName(ctx context.Context, prefix string) (string, error) {
	names, err := m.List(ctx)
	if err != nil {
		return "", err
	}

	taken := make(map[string]struct{}, len(names))
	for _, name := range names {
		taken[name] = struct{}{}
	}

	for n := len(names) + 1; ; n++ {
		candidate := fmt.Sprintf("%s %d", prefix, n)
		if _, ok := taken[candidate]; !ok {
			return candidate, nil
		}
	}
}
