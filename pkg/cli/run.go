package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/platinummonkey/omniverlay/pkg/async"
	"github.com/platinummonkey/omniverlay/pkg/events"
	"github.com/platinummonkey/omniverlay/pkg/observability"
)

const shutdownTimeout = 5 * time.Second

func newRunCommand(a *app) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the enabled extensions and keep running until interrupted",
		Long: `Run loads the startup profile and layout, starts every extension the
profile enables and watches the data directory for document changes.
Performance samples are printed to stdout as JSON lines.`,
		Args: cobra.NoArgs,
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	cmd.RunE = a.runE(func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ov := a.ov
		log := ov.Logger()

		sub := ov.Subscribe(func(event events.Event) {
			log.WithFields(logrus.Fields{
				"id":     event.ID,
				"type":   event.Type,
				"source": event.Source,
			}).Debug("Event")
		})
		defer sub.Unsubscribe()

		if err := ov.StartEnabled(ctx); err != nil {
			log.WithError(err).Warn("Some extensions failed to start")
		}

		if ov.Config().WatchEnabled {
			done, err := ov.NewWatcher().Start(ctx)
			if err != nil {
				return err
			}
			defer func() {
				stop()
				<-done
			}()
		}

		if metricsAddr != "" {
			if ov.MetricsRegistry() == nil {
				log.Warn("Metrics are disabled, not serving metrics endpoint")
			} else {
				shutdown, err := serveMetrics(metricsAddr, ov.MetricsRegistry(), log)
				if err != nil {
					return err
				}
				defer shutdown()
			}
		}

		log.WithField("profile", ov.CurrentProfile()).Info("Omniverlay running")
		<-ctx.Done()
		log.Info("Shutting down")
		return nil
	})

	return cmd
}

func serveMetrics(addr string, registry *prometheus.Registry, log *logrus.Logger) (func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	observability.RegisterMetricsEndpoint(mux, registry)
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	done := async.SafeGo(context.Background(), log, 0, "metrics server", func(context.Context) error {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	log.WithField("addr", listener.Addr().String()).Info("Serving metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(ctx)
		<-done
	}, nil
}
