// Package omniverlay is the composition root of the overlay backend.
//
// An *Omniverlay owns the extension registry, the profile and layout
// managers, the document store and the event notifier, and exposes the
// operations a front end calls:
//
//	app, err := omniverlay.New(cfg, omniverlay.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	if err := app.RegisterExtension(performance.New(sink)); err != nil {
//		return err
//	}
//	if err := app.Startup(ctx); err != nil {
//		return err
//	}
//	app.Subscribe(func(e events.Event) { refreshUI(e) })
//
// Operations that change extension state persist the change into the
// current profile or layout before applying it, then publish an event.
// Each one is bounded by the configured lock timeout.
//
// Global returns a lazily created process-wide instance for binaries that
// want one; nothing in this module uses it internally.
package omniverlay
