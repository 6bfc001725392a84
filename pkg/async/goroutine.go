package async

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/omniverlay/pkg/observability"
)

// SafeGo executes a function in a goroutine with:
// - Context cancellation support
// - Panic recovery
// - Optional timeout enforcement (zero means none)
// - Error logging
//
// The returned channel is closed when fn has returned.
//
// Example:
//
//	done := SafeGo(ctx, log, 0, "document watcher", func(ctx context.Context) error {
//	    return w.Run(ctx)
//	})
//	<-done
func SafeGo(parentCtx context.Context, logger *logrus.Logger, timeout time.Duration, taskName string, fn func(context.Context) error) <-chan struct{} {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	done := make(chan struct{})

	go func() {
		defer close(done)

		ctx, cancel := parentCtx, context.CancelFunc(func() {})
		if timeout > 0 {
			ctx, cancel = context.WithTimeout(parentCtx, timeout)
		}
		defer cancel()

		defer observability.RecoverPanic(logger, taskName)

		if err := fn(ctx); err != nil && ctx.Err() == nil {
			logger.WithError(err).WithField("task", taskName).Error("Background task failed")
		}
	}()

	return done
}
