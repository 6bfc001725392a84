// Package events delivers change notifications from the core to whatever
// front end is attached (a tray menu, a window, the CLI).
//
// Subscribers register a Handler with a Notifier and receive every event
// published afterwards, synchronously and in subscription order. A handler
// that panics is recovered and logged; the remaining handlers still run.
//
//	notifier := events.NewNotifier(events.WithLogger(log))
//	sub := notifier.Subscribe(func(e events.Event) {
//		if e.Type == events.UpdateExtensions {
//			refresh()
//		}
//	})
//	defer sub.Unsubscribe()
package events
