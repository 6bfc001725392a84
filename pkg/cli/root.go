package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/omniverlay/pkg/config"
	"github.com/platinummonkey/omniverlay/pkg/extensions"
	"github.com/platinummonkey/omniverlay/pkg/extensions/performance"
	"github.com/platinummonkey/omniverlay/pkg/observability"
	"github.com/platinummonkey/omniverlay/pkg/omniverlay"
)

// Option configures the root command
type Option func(*app)

// WithOmniverlayOptions passes options through to omniverlay.New
func WithOmniverlayOptions(opts ...omniverlay.Option) Option {
	return func(a *app) {
		a.ovOpts = append(a.ovOpts, opts...)
	}
}

// WithSampler replaces the CPU sampler of the built-in performance extension
func WithSampler(sampler performance.Sampler) Option {
	return func(a *app) {
		a.sampler = sampler
	}
}

// app holds the global flags and the instance built from them
type app struct {
	dataDir  string
	logLevel string
	asJSON   bool
	profile  string
	layout   string

	ovOpts  []omniverlay.Option
	sampler performance.Sampler

	ov       *omniverlay.Omniverlay
	builtins []extensions.Extension
}

// NewRootCommand creates the omniverlay command tree
func NewRootCommand(opts ...Option) *cobra.Command {
	a := &app{}
	for _, opt := range opts {
		opt(a)
	}

	root := &cobra.Command{
		Use:   "omniverlay",
		Short: "Omniverlay - extension, profile and layout manager for overlays",
		Long: `Omniverlay manages overlay extensions together with the profiles that
record which extensions are enabled and how they are configured, and the
layouts that record where they are drawn.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "Data directory (default $OMNIVERLAY_DATA_DIR or ~/.omniverlay)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "Output in JSON format")
	root.PersistentFlags().StringVar(&a.profile, "profile", "", "Profile to load at startup (default from config)")
	root.PersistentFlags().StringVar(&a.layout, "layout", "", "Layout to load at startup (default from config)")

	root.AddCommand(
		newExtensionsCommand(a),
		newProfileCommand(a),
		newLayoutCommand(a),
		newRunCommand(a),
	)

	return root
}

// Execute runs the root command against ctx
func Execute(ctx context.Context, opts ...Option) error {
	return NewRootCommand(opts...).ExecuteContext(ctx)
}

// open loads the configuration, registers the built-in extensions and runs
// startup. Logs go to the command's error stream so output stays parseable.
func (a *app) open(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if a.dataDir != "" {
		cfg, err = config.LoadConfigWithDataDir(a.dataDir)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Observability.LogLevel = observability.ParseLogLevel(a.logLevel)
	}
	if a.profile != "" {
		cfg.Documents.DefaultProfile = a.profile
	}
	if a.layout != "" {
		cfg.Documents.DefaultLayout = a.layout
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := observability.NewLogger(cfg.Observability.LogLevel, cmd.ErrOrStderr())

	opts := append([]omniverlay.Option{omniverlay.WithLogger(log)}, a.ovOpts...)
	ov, err := omniverlay.New(cfg, opts...)
	if err != nil {
		return err
	}

	perfOpts := []performance.Option{performance.WithLogger(log)}
	if a.sampler != nil {
		perfOpts = append(perfOpts, performance.WithSampler(a.sampler))
	}
	perf := performance.New(sampleWriter{w: cmd.OutOrStdout()}, perfOpts...)
	if err := ov.RegisterExtension(perf); err != nil {
		return err
	}

	if err := ov.Startup(cmd.Context()); err != nil {
		return err
	}

	a.ov = ov
	a.builtins = append(a.builtins, perf)
	return nil
}

// close stops anything the built-in extensions started
func (a *app) close() {
	for _, ext := range a.builtins {
		if err := ext.Disable(); err != nil {
			a.ov.Logger().WithError(err).WithField("extension", ext.Info().Name()).Warn("Failed to stop extension")
		}
	}
}

// runE adapts fn into a cobra RunE that opens the instance first
func (a *app) runE(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.open(cmd); err != nil {
			return fmt.Errorf("failed to start omniverlay: %w", err)
		}
		defer a.close()
		return fn(cmd, args)
	}
}

// sampleWriter prints performance samples as JSON lines
type sampleWriter struct {
	w io.Writer
}

func (s sampleWriter) Publish(sample performance.Sample) {
	_ = writeJSONLine(s.w, sample)
}
