package performance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/omniverlay/pkg/extensions"
	"github.com/platinummonkey/omniverlay/pkg/observability"
)

// Name is the extension name
const Name = "Performance"

const (
	categoryGeneral = "General"
	valueInterval   = "interval"
	valueUnit       = "unit"

	defaultIntervalMS = 1000
	minInterval       = time.Second
	sampleTimeout     = 5 * time.Second
)

// Unit selects how CPU usage is reported
type Unit string

const (
	UnitPercent  Unit = "percent"
	UnitFraction Unit = "fraction"
)

// Sample is one CPU usage reading
type Sample struct {
	CPUUsage float64   `json:"cpu_usage"`
	Unit     Unit      `json:"unit"`
	Time     time.Time `json:"time"`
}

// Sink receives samples while the extension is enabled
type Sink interface {
	Publish(Sample)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(Sample)

// Publish calls f
func (f SinkFunc) Publish(s Sample) { f(s) }

// Sampler returns the global CPU usage in percent
type Sampler func(ctx context.Context) (float64, error)

// CPUSampler reads the global CPU usage since the previous call
func CPUSampler(ctx context.Context) (float64, error) {
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, fmt.Errorf("failed to read cpu usage: %w", err)
	}
	if len(percents) == 0 {
		return 0, fmt.Errorf("no cpu usage reported")
	}
	return percents[0], nil
}

// DefaultConfig returns the extension's default configuration
func DefaultConfig() *extensions.ExtensionConfig {
	return extensions.NewExtensionConfigBuilder().
		AddCategory(extensions.NewConfigCategoryBuilder(categoryGeneral).
			AddValue(valueInterval, "Sampling interval in milliseconds, rounded to whole seconds (minimum 1s)", extensions.IntValue(defaultIntervalMS)).
			AddValue(valueUnit, "How CPU usage is shown", extensions.EnumValue{
				Name:    "Unit",
				Current: string(UnitPercent),
				Values:  []string{string(UnitPercent), string(UnitFraction)},
			}).
			Build()).
		Build()
}

// DefaultLayout returns the extension's default geometry
func DefaultLayout() extensions.ExtensionLayout {
	return extensions.ExtensionLayout{Width: 500, Height: 50}
}

// Extension samples CPU usage on a schedule while enabled
type Extension struct {
	info    *extensions.SharedInfo
	sink    Sink
	sampler Sampler
	log     *logrus.Logger

	mu        sync.Mutex
	scheduler *cron.Cron
}

// Option configures an Extension
type Option func(*Extension)

// WithSampler replaces the CPU sampler
func WithSampler(sampler Sampler) Option {
	return func(e *Extension) {
		e.sampler = sampler
	}
}

// WithLogger sets the logger
func WithLogger(log *logrus.Logger) Option {
	return func(e *Extension) {
		if log != nil {
			e.log = log
		}
	}
}

// New creates a disabled extension with its default config and layout
func New(sink Sink, opts ...Option) *Extension {
	layout := DefaultLayout()
	e := &Extension{
		info: extensions.NewSharedInfo(extensions.ExtensionInfo{
			Name:   Name,
			State:  extensions.ExtensionState{Config: DefaultConfig()},
			Layout: &layout,
		}),
		sink:    sink,
		sampler: CPUSampler,
		log:     logrus.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Info implements extensions.Extension
func (e *Extension) Info() *extensions.SharedInfo {
	return e.info
}

// Enable starts sampling at the configured interval
func (e *Extension) Enable() error {
	interval, unit := settings(e.info.State().Config)

	scheduler := cron.New()
	spec := fmt.Sprintf("@every %s", interval)
	if _, err := scheduler.AddFunc(spec, func() { e.SampleOnce(context.Background(), unit) }); err != nil {
		return fmt.Errorf("failed to schedule sampling: %w", err)
	}

	e.mu.Lock()
	previous := e.scheduler
	e.scheduler = scheduler
	e.mu.Unlock()

	if previous != nil {
		<-previous.Stop().Done()
	}
	scheduler.Start()

	e.log.WithFields(logrus.Fields{
		"interval": interval.String(),
		"unit":     unit,
	}).Info("Performance sampling started")

	return nil
}

// Disable stops sampling and waits for a running sample to finish
func (e *Extension) Disable() error {
	e.mu.Lock()
	scheduler := e.scheduler
	e.scheduler = nil
	e.mu.Unlock()

	if scheduler != nil {
		<-scheduler.Stop().Done()
		e.log.Info("Performance sampling stopped")
	}
	return nil
}

// Running reports whether the sampler is scheduled
func (e *Extension) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scheduler != nil
}

// SampleOnce takes one reading and publishes it to the sink
func (e *Extension) SampleOnce(ctx context.Context, unit Unit) {
	defer observability.RecoverPanic(e.log, "performance sample")

	ctx, cancel := context.WithTimeout(ctx, sampleTimeout)
	defer cancel()

	usage, err := e.sampler(ctx)
	if err != nil {
		e.log.WithError(err).Warn("Performance sample failed")
		return
	}

	if unit == UnitFraction {
		usage /= 100
	}

	if e.sink != nil {
		e.sink.Publish(Sample{CPUUsage: usage, Unit: unit, Time: time.Now()})
	}
}

// settings reads the interval and unit from a config, falling back to the
// defaults for missing or invalid values. The scheduler works in whole
// seconds, so the interval is rounded to the nearest second and never less
// than one.
func settings(cfg *extensions.ExtensionConfig) (time.Duration, Unit) {
	interval := time.Duration(defaultIntervalMS) * time.Millisecond
	unit := UnitPercent

	if v, ok := cfg.Lookup(categoryGeneral, valueInterval); ok {
		if ms, ok := v.Value.(extensions.IntValue); ok && ms > 0 {
			interval = time.Duration(ms) * time.Millisecond
		}
	}
	interval = interval.Round(time.Second)
	if interval < minInterval {
		interval = minInterval
	}
	if v, ok := cfg.Lookup(categoryGeneral, valueUnit); ok {
		if enum, ok := v.Value.(extensions.EnumValue); ok && enum.Allows(enum.Current) {
			unit = Unit(enum.Current)
		}
	}

	return interval, unit
}
