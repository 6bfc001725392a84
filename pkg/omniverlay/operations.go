package omniverlay

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/omniverlay/pkg/data"
	"github.com/platinummonkey/omniverlay/pkg/events"
	"github.com/platinummonkey/omniverlay/pkg/extensions"
)

// ListExtensions returns every registered extension's info, sorted by name
func (o *Omniverlay) ListExtensions(ctx context.Context) ([]extensions.ExtensionInfo, error) {
	ctx, cancel := o.withLockTimeout(ctx)
	defer cancel()

	return o.extensions.ListExtensions(ctx)
}

// UpdateExtensionsState writes the given states into the current profile,
// saves it and applies it. Every name must be registered.
func (o *Omniverlay) UpdateExtensionsState(ctx context.Context, states map[string]extensions.ExtensionState) error {
	ctx, cancel := o.withLockTimeout(ctx)
	defer cancel()

	if err := o.checkRegistered(keys(states)); err != nil {
		return err
	}

	if err := o.profiles.Current().Update(func(p *data.Profile) error {
		for name, state := range states {
			p.Extensions[name] = state.Clone()
		}
		return nil
	}); err != nil {
		return err
	}

	if err := o.profiles.Save(ctx); err != nil {
		return err
	}

	o.notifier.Notify(events.UpdateExtensions, "update_state")
	return nil
}

// UpdateExtensionsLayout writes the given layouts into the current layout,
// saves it and applies it. Every name must be registered.
func (o *Omniverlay) UpdateExtensionsLayout(ctx context.Context, layouts map[string]extensions.ExtensionLayout) error {
	ctx, cancel := o.withLockTimeout(ctx)
	defer cancel()

	if err := o.checkRegistered(keys(layouts)); err != nil {
		return err
	}

	if err := o.layouts.Current().Update(func(l *data.Layout) error {
		for name, layout := range layouts {
			l.Extensions[name] = layout
		}
		return nil
	}); err != nil {
		return err
	}

	if err := o.layouts.Save(ctx); err != nil {
		return err
	}

	o.notifier.Notify(events.UpdateExtensions, "update_layout")
	return nil
}

// EnableExtension runs the extension's Enable hook and records the new flag
// in the current profile
func (o *Omniverlay) EnableExtension(ctx context.Context, name string) error {
	return o.setEnabled(ctx, name, true)
}

// DisableExtension runs the extension's Disable hook and records the new
// flag in the current profile
func (o *Omniverlay) DisableExtension(ctx context.Context, name string) error {
	return o.setEnabled(ctx, name, false)
}

func (o *Omniverlay) setEnabled(ctx context.Context, name string, enabled bool) error {
	ctx, cancel := o.withLockTimeout(ctx)
	defer cancel()

	var err error
	if enabled {
		err = o.extensions.EnableExtension(ctx, name)
	} else {
		err = o.extensions.DisableExtension(ctx, name)
	}
	if err != nil {
		return err
	}

	handle, err := o.extensions.GetExtensionByName(name)
	if err != nil {
		return err
	}
	live := handle.Extension().Info().State()

	if err := o.profiles.Current().Update(func(p *data.Profile) error {
		state, ok := p.Extensions[name]
		if !ok {
			state = live
		}
		state.IsEnabled = enabled
		p.Extensions[name] = state
		return nil
	}); err != nil {
		return err
	}

	if err := o.profiles.Save(ctx); err != nil {
		return err
	}

	o.notifier.Notify(events.UpdateExtensions, "set_enabled")
	return nil
}

// StartEnabled runs the Enable hook of every extension the current profile
// enables. An extension whose hook fails is recorded as disabled in the
// profile too, so a later save does not restore a flag whose hook never
// succeeded and EnableExtension can retry it. The start errors are returned.
func (o *Omniverlay) StartEnabled(ctx context.Context) error {
	ctx, cancel := o.withLockTimeout(ctx)
	defer cancel()

	startErr := o.extensions.StartEnabled(ctx)
	if startErr == nil {
		return nil
	}

	infos, err := o.extensions.ListExtensions(ctx)
	if err != nil {
		return errors.Join(startErr, err)
	}
	stopped := make(map[string]struct{}, len(infos))
	for _, info := range infos {
		if !info.State.IsEnabled {
			stopped[info.Name] = struct{}{}
		}
	}

	var failed []string
	if err := o.profiles.Current().Update(func(p *data.Profile) error {
		for name, state := range p.Extensions {
			if _, ok := stopped[name]; ok && state.IsEnabled {
				state.IsEnabled = false
				p.Extensions[name] = state
				failed = append(failed, name)
			}
		}
		return nil
	}); err != nil {
		return errors.Join(startErr, err)
	}

	if len(failed) == 0 {
		return startErr
	}

	sort.Strings(failed)
	o.log.WithField("extensions", failed).Warn("Recorded failed extensions as disabled")

	if err := o.profiles.Save(ctx); err != nil {
		return errors.Join(startErr, err)
	}

	o.notifier.Notify(events.UpdateExtensions, "start_enabled")
	return startErr
}

// SwitchProfile makes the named profile current and applies it
func (o *Omniverlay) SwitchProfile(ctx context.Context, name string) error {
	ctx, cancel := o.withLockTimeout(ctx)
	defer cancel()

	if err := o.profiles.Switch(ctx, name); err != nil {
		return err
	}

	o.notifier.Notify(events.UpdateExtensions, "switch_profile")
	return nil
}

// SwitchLayout makes the named layout current and applies it
func (o *Omniverlay) SwitchLayout(ctx context.Context, name string) error {
	ctx, cancel := o.withLockTimeout(ctx)
	defer cancel()

	if err := o.layouts.Switch(ctx, name); err != nil {
		return err
	}

	o.notifier.Notify(events.UpdateExtensions, "switch_layout")
	return nil
}

// AddProfile creates a profile and makes it current. An empty name picks
// the next free "Profile N". It returns the name used.
func (o *Omniverlay) AddProfile(ctx context.Context, name string) (string, error) {
	return addDocument(ctx, o, o.profiles, ProfilePrefix, name)
}

// AddLayout creates a layout and makes it current. An empty name picks the
// next free "Layout N". It returns the name used.
func (o *Omniverlay) AddLayout(ctx context.Context, name string) (string, error) {
	return addDocument(ctx, o, o.layouts, LayoutPrefix, name)
}

func addDocument[T data.Document[T]](ctx context.Context, o *Omniverlay, m *data.Manager[T], prefix, name string) (string, error) {
	ctx, cancel := o.withLockTimeout(ctx)
	defer cancel()

	if name == "" {
		next, err := m.NextName(ctx, prefix)
		if err != nil {
			return "", err
		}
		name = next
	}

	if err := m.Create(ctx, name); err != nil {
		return "", err
	}

	o.log.WithFields(logrus.Fields{
		"kind": m.Kind(),
		"name": name,
	}).Info("Added document")

	o.notifier.Notify(events.UpdateDocuments, "add_"+string(m.Kind()))
	o.notifier.Notify(events.UpdateExtensions, "add_"+string(m.Kind()))
	return name, nil
}

// ListProfiles returns the names of the stored profiles
func (o *Omniverlay) ListProfiles(ctx context.Context) ([]string, error) {
	return o.profiles.List(ctx)
}

// ListLayouts returns the names of the stored layouts
func (o *Omniverlay) ListLayouts(ctx context.Context) ([]string, error) {
	return o.layouts.List(ctx)
}

// CurrentProfile returns the name of the current profile
func (o *Omniverlay) CurrentProfile() string {
	return o.profiles.Current().Name()
}

// CurrentLayout returns the name of the current layout
func (o *Omniverlay) CurrentLayout() string {
	return o.layouts.Current().Name()
}

// StaleConfigs returns the names of extensions whose config in the current
// profile no longer has the shape of the extension's registered default.
// Extensions without a registered default are skipped.
func (o *Omniverlay) StaleConfigs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	configs := o.extensions.ConfigManager()
	profile := o.profiles.Current().Snapshot()

	var stale []string
	for _, name := range configs.Names() {
		state, ok := profile.Extensions[name]
		if !ok {
			continue
		}
		def, err := configs.Get(name)
		if err != nil {
			return nil, err
		}
		if !def.MatchStructure(state.Config) {
			stale = append(stale, name)
		}
	}

	return stale, nil
}

func (o *Omniverlay) checkRegistered(names []string) error {
	for _, name := range names {
		if !o.extensions.Has(name) {
			return fmt.Errorf("%w: %s", extensions.ErrExtensionNotFound, name)
		}
	}
	return nil
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
