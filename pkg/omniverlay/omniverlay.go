package omniverlay

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/omniverlay/pkg/config"
	"github.com/platinummonkey/omniverlay/pkg/data"
	"github.com/platinummonkey/omniverlay/pkg/events"
	"github.com/platinummonkey/omniverlay/pkg/extensions"
	"github.com/platinummonkey/omniverlay/pkg/observability"
	"github.com/platinummonkey/omniverlay/pkg/storage"
	"github.com/platinummonkey/omniverlay/pkg/watcher"
)

const (
	// ProfilePrefix is the prefix of automatically named profiles
	ProfilePrefix = "Profile"
	// LayoutPrefix is the prefix of automatically named layouts
	LayoutPrefix = "Layout"
)

// Omniverlay ties the extension registry, the profile and layout managers
// and the event notifier together. It is created once per process and passed
// to whatever needs it. Its fields never change after New, and each
// component carries its own locks.
type Omniverlay struct {
	cfg *config.Config
	log *logrus.Logger

	registry *prometheus.Registry
	metrics  *observability.Metrics

	store      *storage.FileSystemStore
	extensions *extensions.Manager
	profiles   *data.Manager[*data.Profile]
	layouts    *data.Manager[*data.Layout]
	notifier   *events.Notifier
}

// Option configures an Omniverlay
type Option func(*options)

type options struct {
	log      *logrus.Logger
	registry *prometheus.Registry
	clock    clockwork.Clock
}

// WithLogger sets the logger shared by every component
func WithLogger(log *logrus.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithMetricsRegistry registers metrics on the given registry instead of a
// new one
func WithMetricsRegistry(registry *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = registry
	}
}

// WithClock sets the clock used to timestamp events
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// New wires up every component from cfg. Nothing is loaded until Startup.
func New(cfg *config.Config, opts ...Option) (*Omniverlay, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = observability.NewLogger(cfg.Observability.LogLevel, nil)
	}

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		if o.registry == nil {
			o.registry = prometheus.NewRegistry()
		}
		metrics = observability.NewMetrics(o.registry)
	}

	store, err := storage.NewFileSystemStore(cfg.Storage, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	manager := extensions.NewManager(
		extensions.WithLogger(o.log),
		extensions.WithMetrics(metrics),
	)

	dataOpts := []data.ManagerOption{data.WithLogger(o.log), data.WithMetrics(metrics)}

	return &Omniverlay{
		cfg:        cfg,
		log:        o.log,
		registry:   o.registry,
		metrics:    metrics,
		store:      store,
		extensions: manager,
		profiles:   data.NewProfileManager(store, manager, dataOpts...),
		layouts:    data.NewLayoutManager(store, manager, dataOpts...),
		notifier: events.NewNotifier(
			events.WithClock(o.clock),
			events.WithLogger(o.log),
			events.WithMetrics(metrics),
		),
	}, nil
}

// Config returns the configuration
func (o *Omniverlay) Config() *config.Config { return o.cfg }

// Logger returns the shared logger
func (o *Omniverlay) Logger() *logrus.Logger { return o.log }

// MetricsRegistry returns the Prometheus registry, or nil when metrics are disabled
func (o *Omniverlay) MetricsRegistry() *prometheus.Registry { return o.registry }

// Store returns the document store
func (o *Omniverlay) Store() *storage.FileSystemStore { return o.store }

// Extensions returns the extension manager
func (o *Omniverlay) Extensions() *extensions.Manager { return o.extensions }

// Profiles returns the profile manager
func (o *Omniverlay) Profiles() *data.Manager[*data.Profile] { return o.profiles }

// Layouts returns the layout manager
func (o *Omniverlay) Layouts() *data.Manager[*data.Layout] { return o.layouts }

// Notifier returns the event notifier
func (o *Omniverlay) Notifier() *events.Notifier { return o.notifier }

// NewWatcher creates a watcher over the document directories that publishes
// on this instance's notifier
func (o *Omniverlay) NewWatcher() *watcher.Watcher {
	return watcher.New(o.store, o.notifier, watcher.WithLogger(o.log))
}

// Subscribe registers a handler for change events
func (o *Omniverlay) Subscribe(handler events.Handler) *events.Subscription {
	return o.notifier.Subscribe(handler)
}

// RegisterExtension adds an extension to the registry. Extensions should be
// registered before Startup so the loaded documents are reconciled with them.
func (o *Omniverlay) RegisterExtension(ext extensions.Extension) error {
	return o.extensions.RegisterExtension(ext)
}

// Startup loads the configured default profile and layout, creating them on
// first run, and applies them to the registered extensions.
func (o *Omniverlay) Startup(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return o.profiles.SwitchOrCreate(gctx, o.cfg.Documents.DefaultProfile)
	})
	g.Go(func() error {
		return o.layouts.SwitchOrCreate(gctx, o.cfg.Documents.DefaultLayout)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %w", ErrBackendInitialization, err)
	}

	o.log.WithFields(logrus.Fields{
		"profile":    o.profiles.Current().Name(),
		"layout":     o.layouts.Current().Name(),
		"extensions": o.extensions.Count(),
	}).Info("Omniverlay started")

	o.notifier.Notify(events.UpdateExtensions, "startup")
	return nil
}

// withLockTimeout bounds ctx by the configured lock timeout
func (o *Omniverlay) withLockTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.cfg.LockTimeout)
}
