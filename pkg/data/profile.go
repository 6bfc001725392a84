package data

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/platinummonkey/omniverlay/pkg/extensions"
	"github.com/platinummonkey/omniverlay/pkg/storage"
)

// Profile maps extension names to their enabled flag and configuration
type Profile struct {
	name       string
	Extensions map[string]extensions.ExtensionState
}

type profileJSON struct {
	Name       string                               `json:"name"`
	Extensions map[string]extensions.ExtensionState `json:"extensions"`
}

// NewProfile creates an empty profile
func NewProfile(name string) *Profile {
	return &Profile{
		name:       name,
		Extensions: make(map[string]extensions.ExtensionState),
	}
}

// Name returns the profile name
func (p *Profile) Name() string {
	return p.name
}

// SetName renames the profile
func (p *Profile) SetName(name string) {
	p.name = name
}

// Kind returns storage.KindProfile
func (p *Profile) Kind() storage.Kind {
	return storage.KindProfile
}

// ApplyToExtensions overwrites the live state of every extension named in the
// profile, in name order. Hooks are not run.
func (p *Profile) ApplyToExtensions(ctx context.Context, registry ExtensionRegistry) error {
	for _, name := range sortedKeys(p.Extensions) {
		if err := registry.UpdateExtensionState(ctx, name, p.Extensions[name].Clone()); err != nil {
			return fmt.Errorf("failed to apply profile %s: %w", p.name, err)
		}
	}
	return nil
}

// OnLoad adds the live state of every registered extension the profile does
// not mention yet. Existing entries are left alone.
func (p *Profile) OnLoad(ctx context.Context, registry ExtensionRegistry) error {
	infos, err := registry.ListExtensions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list extensions: %w", err)
	}

	if p.Extensions == nil {
		p.Extensions = make(map[string]extensions.ExtensionState)
	}
	for _, info := range infos {
		if _, ok := p.Extensions[info.Name]; !ok {
			p.Extensions[info.Name] = info.State.Clone()
		}
	}
	return nil
}

// Clone returns a deep copy of the profile
func (p *Profile) Clone() *Profile {
	out := NewProfile(p.name)
	for name, state := range p.Extensions {
		out.Extensions[name] = state.Clone()
	}
	return out
}

// MarshalJSON implements json.Marshaler
func (p *Profile) MarshalJSON() ([]byte, error) {
	entries := p.Extensions
	if entries == nil {
		entries = map[string]extensions.ExtensionState{}
	}
	return json.Marshal(profileJSON{Name: p.name, Extensions: entries})
}

// UnmarshalJSON implements json.Unmarshaler
func (p *Profile) UnmarshalJSON(data []byte) error {
	var raw profileJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.name = raw.Name
	p.Extensions = raw.Extensions
	if p.Extensions == nil {
		p.Extensions = make(map[string]extensions.ExtensionState)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
