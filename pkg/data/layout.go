package data

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/platinummonkey/omniverlay/pkg/extensions"
	"github.com/platinummonkey/omniverlay/pkg/storage"
)

// Layout maps extension names to their on-screen geometry
type Layout struct {
	name       string
	Extensions map[string]extensions.ExtensionLayout
}

type layoutJSON struct {
	Name       string                                `json:"name"`
	Extensions map[string]extensions.ExtensionLayout `json:"extensions"`
}

// NewLayout creates an empty layout
func NewLayout(name string) *Layout {
	return &Layout{
		name:       name,
		Extensions: make(map[string]extensions.ExtensionLayout),
	}
}

// Name returns the layout name
func (l *Layout) Name() string {
	return l.name
}

// SetName renames the layout
func (l *Layout) SetName(name string) {
	l.name = name
}

// Kind returns storage.KindLayout
func (l *Layout) Kind() storage.Kind {
	return storage.KindLayout
}

// ApplyToExtensions overwrites the live layout of every extension named in
// the layout, in name order.
func (l *Layout) ApplyToExtensions(ctx context.Context, registry ExtensionRegistry) error {
	for _, name := range sortedKeys(l.Extensions) {
		if err := registry.UpdateExtensionLayout(ctx, name, l.Extensions[name]); err != nil {
			return fmt.Errorf("failed to apply layout %s: %w", l.name, err)
		}
	}
	return nil
}

// OnLoad reconciles the layout with every registered extension that has a
// live layout: missing entries are added, and the size of every entry is
// taken from the extension while the stored position is kept.
func (l *Layout) OnLoad(ctx context.Context, registry ExtensionRegistry) error {
	infos, err := registry.ListExtensions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list extensions: %w", err)
	}

	if l.Extensions == nil {
		l.Extensions = make(map[string]extensions.ExtensionLayout)
	}
	for _, info := range infos {
		if info.Layout == nil {
			continue
		}
		stored, ok := l.Extensions[info.Name]
		if !ok {
			l.Extensions[info.Name] = *info.Layout
			continue
		}
		stored.Width = info.Layout.Width
		stored.Height = info.Layout.Height
		l.Extensions[info.Name] = stored
	}
	return nil
}

// Clone returns a deep copy of the layout
func (l *Layout) Clone() *Layout {
	out := NewLayout(l.name)
	for name, layout := range l.Extensions {
		out.Extensions[name] = layout
	}
	return out
}

// MarshalJSON implements json.Marshaler
func (l *Layout) MarshalJSON() ([]byte, error) {
	entries := l.Extensions
	if entries == nil {
		entries = map[string]extensions.ExtensionLayout{}
	}
	return json.Marshal(layoutJSON{Name: l.name, Extensions: entries})
}

// UnmarshalJSON implements json.Unmarshaler
func (l *Layout) UnmarshalJSON(data []byte) error {
	var raw layoutJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	l.name = raw.Name
	l.Extensions = raw.Extensions
	if l.Extensions == nil {
		l.Extensions = make(map[string]extensions.ExtensionLayout)
	}
	return nil
}
