// Package extensions provides the registry of overlay extensions and their typed configuration.
//
// # Overview
//
// An extension is a small widget drawn over the screen (a performance monitor,
// a clock). Each one owns a SharedInfo record holding its name, its enabled
// flag, an optional ExtensionConfig and an optional on-screen layout. The
// Manager maps extension names to handles and exposes the operations the rest
// of the application uses to drive them.
//
// # Lifecycle
//
// Extensions move between Disabled and Enabled only through EnableExtension and
// DisableExtension, which run the extension's hooks:
//
//	manager := extensions.NewManager(extensions.WithLogger(log))
//	if err := manager.RegisterExtension(perf); err != nil {
//		return err
//	}
//	if err := manager.EnableExtension(ctx, "Performance"); err != nil {
//		return err
//	}
//
// UpdateExtensionState and UpdateExtensionLayout overwrite the recorded state
// without running hooks. They are used when restoring a saved profile or layout.
//
// # Configuration
//
// ExtensionConfig is a list of named categories of typed values. Configs are
// built once with the builders and compared by shape with MatchStructure:
//
//	cfg := extensions.NewExtensionConfigBuilder().
//		AddCategory(extensions.NewConfigCategoryBuilder("General").
//			AddValue("interval", "Sampling interval in ms", extensions.IntValue(1000)).
//			Build()).
//		Build()
//
// # Concurrency
//
// Every extension has its own lock; operations on one extension never wait for
// another. Lock waits honour the caller's context.
package extensions
