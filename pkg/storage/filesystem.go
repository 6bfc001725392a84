package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/platinummonkey/omniverlay/pkg/observability"
)

const documentExt = ".json"

// FileSystemStore implements the Store interface using the local filesystem.
// Documents live at <root>/<kind>/<name>.json.
type FileSystemStore struct {
	root    string
	cache   *lru.LRU[string, cachedDocument]
	metrics *observability.Metrics
}

// cachedDocument is a cached file body with the stat it was read under.
// A hit is only served while the file still has the same mtime and size.
type cachedDocument struct {
	data    []byte
	modTime time.Time
	size    int64
}

func (d cachedDocument) matches(info fs.FileInfo) bool {
	return d.size == info.Size() && d.modTime.Equal(info.ModTime())
}

// NewFileSystemStore creates a new filesystem-based store
func NewFileSystemStore(cfg Config, metrics *observability.Metrics) (*FileSystemStore, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	if err := os.MkdirAll(cfg.Root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root directory: %w", err)
	}

	s := &FileSystemStore{
		root:    cfg.Root,
		metrics: metrics,
	}

	if cfg.CacheEnabled && cfg.CacheSize > 0 {
		s.cache = lru.NewLRU[string, cachedDocument](cfg.CacheSize, nil, cfg.CacheTTL)
	}

	return s, nil
}

// Root returns the data directory
func (s *FileSystemStore) Root() string {
	return s.root
}

// Dir returns the directory holding documents of a kind
func (s *FileSystemStore) Dir(kind Kind) string {
	return filepath.Join(s.root, kind.Dir())
}

// Path returns the file path of a document
func (s *FileSystemStore) Path(kind Kind, name string) string {
	return filepath.Join(s.Dir(kind), name+documentExt)
}

// Read implements Store.Read. Cached copies are checked against the file so
// edits made outside the store are always seen.
func (s *FileSystemStore) Read(ctx context.Context, kind Kind, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.Path(kind, name)

	if s.cache == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, readError(err, kind, name)
		}
		return data, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		s.cache.Remove(path)
		return nil, readError(err, kind, name)
	}

	if doc, ok := s.cache.Get(path); ok && doc.matches(info) {
		s.metrics.RecordCache(string(kind), true)
		return cloneBytes(doc.data), nil
	}
	s.metrics.RecordCache(string(kind), false)

	data, err := os.ReadFile(path)
	if err != nil {
		s.cache.Remove(path)
		return nil, readError(err, kind, name)
	}

	// A write between Stat and ReadFile leaves a stale stat, so the next
	// read misses and reloads.
	s.cache.Add(path, cachedDocument{data: cloneBytes(data), modTime: info.ModTime(), size: info.Size()})

	return data, nil
}

func readError(err error, kind Kind, name string) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, kind, name)
	}
	return fmt.Errorf("failed to read document file: %w", err)
}

// Write implements Store.Write. The file is replaced atomically.
func (s *FileSystemStore) Write(ctx context.Context, kind Kind, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := s.Dir(kind)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create document directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write document file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync document file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close document file: %w", err)
	}

	path := s.Path(kind, name)
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace document file: %w", err)
	}

	if s.cache != nil {
		info, err := os.Stat(path)
		if err != nil {
			s.cache.Remove(path)
			return nil
		}
		s.cache.Add(path, cachedDocument{data: cloneBytes(data), modTime: info.ModTime(), size: info.Size()})
	}

	return nil
}

// Exists implements Store.Exists
func (s *FileSystemStore) Exists(ctx context.Context, kind Kind, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := os.Stat(s.Path(kind, name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat document file: %w", err)
}

// List implements Store.List. A missing directory lists as empty.
func (s *FileSystemStore) List(ctx context.Context, kind Kind) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.Dir(kind))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read document directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if filepath.Ext(entry.Name()) != documentExt {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), documentExt))
	}

	sort.Strings(names)
	return names, nil
}

// Invalidate implements Store.Invalidate
func (s *FileSystemStore) Invalidate(kind Kind, name string) {
	if s.cache == nil {
		return
	}
	s.cache.Remove(s.Path(kind, name))
}

// InvalidatePath drops the cached copy of a document by file path
func (s *FileSystemStore) InvalidatePath(path string) {
	if s.cache == nil {
		return
	}
	s.cache.Remove(path)
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
