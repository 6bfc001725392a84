// Package async runs background goroutines with panic recovery, optional
// timeouts and logrus error logging.
//
//	done := async.SafeGo(ctx, log, 0, "document watcher", func(ctx context.Context) error {
//		return watcher.Run(ctx)
//	})
//	cancel()
//	<-done
//
// Errors returned after the task's context is done are treated as a normal
// shutdown and not logged.
package async
