package data

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/omniverlay/pkg/extensions"
	"github.com/platinummonkey/omniverlay/pkg/storage"
)

func quietLogger() *logrus.Logger {
	log, _ := test.NewNullLogger()
	return log
}

func newRegistry(t *testing.T, infos ...extensions.ExtensionInfo) *extensions.Manager {
	t.Helper()

	registry := extensions.NewManager(extensions.WithLogger(quietLogger()))
	for _, info := range infos {
		require.NoError(t, registry.RegisterExtension(extensions.NewBasicExtension(info, nil, nil)))
	}
	return registry
}

func newStore(t *testing.T) *storage.FileSystemStore {
	t.Helper()

	store, err := storage.NewFileSystemStore(storage.Config{Root: filepath.Join(t.TempDir(), "data")}, nil)
	require.NoError(t, err)
	return store
}

func liveInfo(t *testing.T, registry *extensions.Manager, name string) extensions.ExtensionInfo {
	t.Helper()

	infos, err := registry.ListExtensions(context.Background())
	require.NoError(t, err)
	for _, info := range infos {
		if info.Name == name {
			return info
		}
	}
	t.Fatalf("extension %s not registered", name)
	return extensions.ExtensionInfo{}
}
