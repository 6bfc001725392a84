package data

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/omniverlay/pkg/extensions"
	"github.com/platinummonkey/omniverlay/pkg/observability"
	"github.com/platinummonkey/omniverlay/pkg/storage"
)

func writeDocument(t *testing.T, store *storage.FileSystemStore, kind storage.Kind, name string, doc interface{}) {
	t.Helper()

	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, store.Write(context.Background(), kind, name, raw))
}

func TestManager_InitialDocument(t *testing.T) {
	m := NewProfileManager(newStore(t), newRegistry(t), WithLogger(quietLogger()))

	assert.Equal(t, storage.KindProfile, m.Kind())
	assert.Equal(t, DefaultName, m.Current().Name())
	assert.Empty(t, m.Current().Snapshot().Extensions)
}

func TestManager_SwitchThenRead(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	registry := newRegistry(t,
		extensions.ExtensionInfo{Name: "Perf"},
		extensions.ExtensionInfo{Name: "Clock"},
	)

	stored := NewProfile("work")
	stored.Extensions["Perf"] = extensions.ExtensionState{IsEnabled: true}
	writeDocument(t, store, storage.KindProfile, "work", stored)

	m := NewProfileManager(store, registry, WithLogger(quietLogger()))
	require.NoError(t, m.Switch(ctx, "work"))

	current := m.Current().Snapshot()
	assert.Equal(t, "work", current.Name())
	assert.True(t, current.Extensions["Perf"].IsEnabled)
	assert.Contains(t, current.Extensions, "Clock", "switch persists reconciliation")

	raw, err := os.ReadFile(store.Path(storage.KindProfile, "work"))
	require.NoError(t, err)

	onDisk := NewProfile("")
	require.NoError(t, json.Unmarshal(raw, onDisk))
	assert.Equal(t, current, onDisk)

	assert.True(t, liveInfo(t, registry, "Perf").State.IsEnabled, "switch applies the document")
}

func TestManager_SwitchSeesOutsideEdit(t *testing.T) {
	ctx := context.Background()
	cfg := storage.DefaultConfig()
	cfg.Root = t.TempDir()
	store, err := storage.NewFileSystemStore(cfg, nil)
	require.NoError(t, err)

	registry := newRegistry(t, extensions.ExtensionInfo{Name: "Perf"})
	m := NewProfileManager(store, registry, WithLogger(quietLogger()))

	require.NoError(t, m.Create(ctx, "work"))
	require.NoError(t, m.Switch(ctx, "work"))
	require.False(t, m.Current().Snapshot().Extensions["Perf"].IsEnabled)

	edited := NewProfile("work")
	edited.Extensions["Perf"] = extensions.ExtensionState{IsEnabled: true}
	raw, err := json.Marshal(edited)
	require.NoError(t, err)

	path := store.Path(storage.KindProfile, "work")
	require.NoError(t, os.WriteFile(path, raw, 0644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	require.NoError(t, m.Switch(ctx, "work"))
	assert.True(t, m.Current().Snapshot().Extensions["Perf"].IsEnabled)
	assert.True(t, liveInfo(t, registry, "Perf").State.IsEnabled)

	raw, err = os.ReadFile(path)
	require.NoError(t, err)
	onDisk := NewProfile("")
	require.NoError(t, json.Unmarshal(raw, onDisk))
	assert.True(t, onDisk.Extensions["Perf"].IsEnabled, "switch must not write the old copy back")
}

func TestManager_SwitchUnknown(t *testing.T) {
	ctx := context.Background()
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	m := NewLayoutManager(newStore(t), newRegistry(t), WithLogger(quietLogger()), WithMetrics(metrics))

	err := m.Switch(ctx, "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataNotFound)
	assert.Equal(t, DefaultName, m.Current().Name(), "current document is unchanged")
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.DocumentSwitchesTotal.WithLabelValues("layouts", "error")))
}

func TestManager_SwitchInvalidName(t *testing.T) {
	m := NewProfileManager(newStore(t), newRegistry(t), WithLogger(quietLogger()))

	err := m.Switch(context.Background(), "../secrets")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestManager_SwitchCorruptDocument(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.Write(ctx, storage.KindProfile, "broken", []byte(`{"name":`)))

	m := NewProfileManager(store, newRegistry(t), WithLogger(quietLogger()))
	err := m.Switch(ctx, "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode profiles broken")
	assert.Equal(t, DefaultName, m.Current().Name())
}

func TestManager_SwitchUsesFileName(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	writeDocument(t, store, storage.KindLayout, "copied", NewLayout("original"))

	m := NewLayoutManager(store, newRegistry(t), WithLogger(quietLogger()))
	require.NoError(t, m.Switch(ctx, "copied"))
	assert.Equal(t, "copied", m.Current().Name())
}

func TestManager_SaveBeforeApply(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	m := NewProfileManager(store, newRegistry(t), WithLogger(quietLogger()))

	require.NoError(t, m.Current().Update(func(p *Profile) error {
		p.Extensions["Ghost"] = extensions.ExtensionState{IsEnabled: true}
		return nil
	}))

	err := m.Save(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, extensions.ErrExtensionNotFound)

	exists, err := store.Exists(ctx, storage.KindProfile, DefaultName)
	require.NoError(t, err)
	assert.True(t, exists, "document is written before it is applied")
}

func TestManager_UpdateThenSave(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	registry := newRegistry(t, extensions.ExtensionInfo{Name: "Perf", Layout: &extensions.ExtensionLayout{Width: 500, Height: 50}})
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	m := NewLayoutManager(store, registry, WithLogger(quietLogger()), WithMetrics(metrics))

	require.NoError(t, m.Current().Update(func(l *Layout) error {
		l.Extensions["Perf"] = extensions.ExtensionLayout{Width: 500, Height: 50, X: 40, Y: 60}
		return nil
	}))
	require.NoError(t, m.Save(ctx))

	live := liveInfo(t, registry, "Perf")
	require.NotNil(t, live.Layout)
	assert.Equal(t, uint32(40), live.Layout.X)

	loaded, err := m.Load(ctx, DefaultName)
	require.NoError(t, err)
	assert.Equal(t, uint32(60), loaded.Extensions["Perf"].Y)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.DocumentSavesTotal.WithLabelValues("layouts", "success")))
}

func TestManager_Create(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	registry := newRegistry(t, extensions.ExtensionInfo{Name: "Perf", State: extensions.ExtensionState{IsEnabled: true}})
	m := NewProfileManager(store, registry, WithLogger(quietLogger()))

	require.NoError(t, m.Create(ctx, "Profile 1"))
	assert.Equal(t, "Profile 1", m.Current().Name())
	assert.Contains(t, m.Current().Snapshot().Extensions, "Perf")

	err := m.Create(ctx, "Profile 1")
	assert.ErrorIs(t, err, ErrDataExists)

	names, err := m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Profile 1"}, names)
}

func TestManager_SwitchOrCreate(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	registry := newRegistry(t, extensions.ExtensionInfo{Name: "Perf"})
	m := NewProfileManager(store, registry, WithLogger(quietLogger()))

	require.NoError(t, m.SwitchOrCreate(ctx, DefaultName))
	exists, err := store.Exists(ctx, storage.KindProfile, DefaultName)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, m.Current().Update(func(p *Profile) error {
		p.Extensions["Perf"] = extensions.ExtensionState{IsEnabled: true}
		return nil
	}))
	require.NoError(t, m.Save(ctx))

	other := NewProfileManager(store, registry, WithLogger(quietLogger()))
	require.NoError(t, other.SwitchOrCreate(ctx, DefaultName))
	assert.True(t, other.Current().Snapshot().Extensions["Perf"].IsEnabled, "existing document is loaded, not recreated")
}

func TestManager_NextName(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	m := NewProfileManager(store, newRegistry(t), WithLogger(quietLogger()))

	name, err := m.NextName(ctx, "Profile")
	require.NoError(t, err)
	assert.Equal(t, "Profile 1", name)

	writeDocument(t, store, storage.KindProfile, DefaultName, NewProfile(DefaultName))
	writeDocument(t, store, storage.KindProfile, "Profile 2", NewProfile("Profile 2"))

	name, err = m.NextName(ctx, "Profile")
	require.NoError(t, err)
	assert.Equal(t, "Profile 3", name)

	writeDocument(t, store, storage.KindProfile, "Profile 4", NewProfile("Profile 4"))
	name, err = m.NextName(ctx, "Profile")
	require.NoError(t, err)
	assert.Equal(t, "Profile 5", name, "taken names are skipped")
}

func TestScenario_DefaultProfileGainsLateExtension(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	registry := newRegistry(t)

	stored := NewProfile(DefaultName)
	stored.Extensions["Perf"] = extensions.ExtensionState{IsEnabled: false}
	writeDocument(t, store, storage.KindProfile, DefaultName, stored)

	m := NewProfileManager(store, registry, WithLogger(quietLogger()))
	loaded, err := m.Load(ctx, DefaultName)
	require.NoError(t, err)

	require.NoError(t, registry.RegisterExtension(extensions.NewBasicExtension(
		extensions.ExtensionInfo{Name: "Perf", State: extensions.ExtensionState{Config: perfConfig(1000)}},
		nil, nil,
	)))
	require.NoError(t, registry.RegisterExtension(extensions.NewBasicExtension(
		extensions.ExtensionInfo{Name: "Clock", State: extensions.ExtensionState{IsEnabled: true}},
		nil, nil,
	)))

	require.NoError(t, loaded.OnLoad(ctx, registry))

	assert.Equal(t, extensions.ExtensionState{IsEnabled: false}, loaded.Extensions["Perf"])
	assert.True(t, loaded.Extensions["Clock"].IsEnabled)
}
