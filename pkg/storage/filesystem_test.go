package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/omniverlay/pkg/observability"
)

func newTestStore(t *testing.T, cacheEnabled bool) (*FileSystemStore, *observability.Metrics) {
	t.Helper()

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	cfg := DefaultConfig()
	cfg.Root = filepath.Join(t.TempDir(), "data")
	cfg.CacheEnabled = cacheEnabled

	store, err := NewFileSystemStore(cfg, metrics)
	require.NoError(t, err)
	return store, metrics
}

func TestNewFileSystemStore(t *testing.T) {
	t.Run("creates root directory", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "nested", "data")
		store, err := NewFileSystemStore(Config{Root: root}, nil)
		require.NoError(t, err)
		assert.Equal(t, root, store.Root())

		info, err := os.Stat(root)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("requires root", func(t *testing.T) {
		_, err := NewFileSystemStore(Config{}, nil)
		assert.Error(t, err)
	})
}

func TestFileSystemStore_WriteRead(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, false)

	require.NoError(t, store.Write(ctx, KindProfile, "default", []byte(`{"a":1}`)))

	data, err := store.Read(ctx, KindProfile, "default")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))

	_, err = os.Stat(filepath.Join(store.Root(), "profiles", "default.json"))
	assert.NoError(t, err)

	require.NoError(t, store.Write(ctx, KindProfile, "default", []byte(`{"a":2}`)))
	data, err = store.Read(ctx, KindProfile, "default")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2}`, string(data))
}

func TestFileSystemStore_ReadMissing(t *testing.T) {
	store, _ := newTestStore(t, true)

	_, err := store.Read(context.Background(), KindLayout, "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileSystemStore_WriteLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, false)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Write(ctx, KindLayout, "default", []byte(`{}`)))
	}

	entries, err := os.ReadDir(store.Dir(KindLayout))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "default.json", entries[0].Name())
}

func TestFileSystemStore_Exists(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, false)

	ok, err := store.Exists(ctx, KindProfile, "default")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Write(ctx, KindProfile, "default", []byte(`{}`)))

	ok, err = store.Exists(ctx, KindProfile, "default")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFileSystemStore_List(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, false)

	t.Run("missing directory lists as empty", func(t *testing.T) {
		names, err := store.List(ctx, KindProfile)
		require.NoError(t, err)
		assert.Empty(t, names)
		assert.NotNil(t, names)
	})

	t.Run("lists json stems sorted", func(t *testing.T) {
		for _, name := range []string{"zeta", "Profile 1", "default"} {
			require.NoError(t, store.Write(ctx, KindProfile, name, []byte(`{}`)))
		}

		dir := store.Dir(KindProfile)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.json"), []byte("{}"), 0644))
		require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0755))

		names, err := store.List(ctx, KindProfile)
		require.NoError(t, err)
		assert.Equal(t, []string{"Profile 1", "default", "zeta"}, names)
	})

	t.Run("kinds are separate", func(t *testing.T) {
		names, err := store.List(ctx, KindLayout)
		require.NoError(t, err)
		assert.Empty(t, names)
	})
}

func TestFileSystemStore_Cache(t *testing.T) {
	ctx := context.Background()
	store, metrics := newTestStore(t, true)

	require.NoError(t, store.Write(ctx, KindProfile, "default", []byte(`{"v":1}`)))

	data, err := store.Read(ctx, KindProfile, "default")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(data))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CacheHitsTotal.WithLabelValues("profiles")))

	store.Invalidate(KindProfile, "default")

	_, err = store.Read(ctx, KindProfile, "default")
	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CacheMissesTotal.WithLabelValues("profiles")))

	_, err = store.Read(ctx, KindProfile, "default")
	require.NoError(t, err)
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.CacheHitsTotal.WithLabelValues("profiles")))
}

func TestFileSystemStore_CacheSeesOutsideEdits(t *testing.T) {
	ctx := context.Background()
	store, metrics := newTestStore(t, true)

	require.NoError(t, store.Write(ctx, KindProfile, "default", []byte(`{"v":1}`)))
	_, err := store.Read(ctx, KindProfile, "default")
	require.NoError(t, err)

	path := store.Path(KindProfile, "default")
	tests := []struct {
		name    string
		content string
	}{
		{"different size", `{"v":22}`},
		{"same size", `{"v":33}`},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			later := time.Now().Add(time.Duration(i+1) * time.Minute)
			require.NoError(t, os.Chtimes(path, later, later))

			data, err := store.Read(ctx, KindProfile, "default")
			require.NoError(t, err)
			assert.JSONEq(t, tt.content, string(data))
		})
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.CacheMissesTotal.WithLabelValues("profiles")))
}

func TestFileSystemStore_CacheDropsRemovedFiles(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, true)

	require.NoError(t, store.Write(ctx, KindLayout, "default", []byte(`{"v":1}`)))
	require.NoError(t, os.Remove(store.Path(KindLayout, "default")))

	_, err := store.Read(ctx, KindLayout, "default")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileSystemStore_CacheReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, true)

	require.NoError(t, store.Write(ctx, KindLayout, "default", []byte(`{"v":1}`)))

	data, err := store.Read(ctx, KindLayout, "default")
	require.NoError(t, err)
	data[0] = 'X'

	again, err := store.Read(ctx, KindLayout, "default")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(again))
}

func TestFileSystemStore_CacheExpires(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		Root:         t.TempDir(),
		CacheEnabled: true,
		CacheSize:    4,
		CacheTTL:     20 * time.Millisecond,
	}
	store, err := NewFileSystemStore(cfg, nil)
	require.NoError(t, err)

	require.NoError(t, store.Write(ctx, KindProfile, "default", []byte(`{"v":1}`)))
	require.NoError(t, os.WriteFile(store.Path(KindProfile, "default"), []byte(`{"v":2}`), 0644))

	assert.Eventually(t, func() bool {
		data, err := store.Read(ctx, KindProfile, "default")
		return err == nil && string(data) == `{"v":2}`
	}, time.Second, 10*time.Millisecond)
}

func TestFileSystemStore_CancelledContext(t *testing.T) {
	store, _ := newTestStore(t, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Write(ctx, KindProfile, "default", []byte(`{}`)), context.Canceled)
	_, err := store.Read(ctx, KindProfile, "default")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.List(ctx, KindProfile)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.Exists(ctx, KindProfile, "default")
	assert.ErrorIs(t, err, context.Canceled)
}
