package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/omniverlay/pkg/async"
	"github.com/platinummonkey/omniverlay/pkg/events"
	"github.com/platinummonkey/omniverlay/pkg/storage"
)

// Source is the event source set on events published by the watcher
const Source = "watcher"

// Store is the part of the document store the watcher needs
type Store interface {
	Dir(kind storage.Kind) string
	InvalidatePath(path string)
}

// Notifier publishes change events
type Notifier interface {
	Notify(eventType events.EventType, source string) events.Event
}

// Watcher observes the profile and layout directories for documents edited
// outside the application. Every change drops the store's cached copy of the
// file and publishes events.UpdateDocuments.
type Watcher struct {
	store    Store
	notifier Notifier
	kinds    []storage.Kind
	log      *logrus.Logger
}

// Option configures a Watcher
type Option func(*Watcher)

// WithLogger sets the logger
func WithLogger(log *logrus.Logger) Option {
	return func(w *Watcher) {
		if log != nil {
			w.log = log
		}
	}
}

// WithKinds restricts the watched document kinds
func WithKinds(kinds ...storage.Kind) Option {
	return func(w *Watcher) {
		w.kinds = kinds
	}
}

// New creates a watcher for profiles and layouts
func New(store Store, notifier Notifier, opts ...Option) *Watcher {
	w := &Watcher{
		store:    store,
		notifier: notifier,
		kinds:    []storage.Kind{storage.KindProfile, storage.KindLayout},
		log:      logrus.New(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is done
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := w.open()
	if err != nil {
		return err
	}
	return w.loop(ctx, fsw)
}

// Start begins watching and returns once the directories are registered.
// The returned channel is closed when the watcher has stopped.
func (w *Watcher) Start(ctx context.Context) (<-chan struct{}, error) {
	fsw, err := w.open()
	if err != nil {
		return nil, err
	}
	return async.SafeGo(ctx, w.log, 0, "document watcher", func(ctx context.Context) error {
		return w.loop(ctx, fsw)
	}), nil
}

func (w *Watcher) open() (*fsnotify.Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	for _, kind := range w.kinds {
		dir := w.store.Dir(kind)
		if err := os.MkdirAll(dir, 0755); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to create document directory: %w", err)
		}
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		w.log.WithField("dir", dir).Debug("Watching document directory")
	}

	return fsw, nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) error {
	defer fsw.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("Document watcher error")
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !isDocument(event.Name) {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	w.store.InvalidatePath(event.Name)

	w.log.WithFields(logrus.Fields{
		"file": event.Name,
		"op":   event.Op.String(),
	}).Debug("Document changed on disk")

	w.notifier.Notify(events.UpdateDocuments, Source)
}

// isDocument reports whether a path names a document file, skipping hidden
// temp files left by atomic writes.
func isDocument(path string) bool {
	base := filepath.Base(path)
	return !strings.HasPrefix(base, ".") && filepath.Ext(base) == ".json"
}
