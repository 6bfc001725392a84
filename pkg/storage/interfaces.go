package storage

import (
	"context"
	"time"
)

// Kind is a document type. Each kind is stored in its own directory.
type Kind string

const (
	KindProfile Kind = "profiles"
	KindLayout  Kind = "layouts"
)

// Dir returns the directory name of the kind
func (k Kind) Dir() string {
	return string(k)
}

// Store persists named JSON documents grouped by kind
type Store interface {
	// Read returns the raw bytes of a document, or ErrNotFound
	Read(ctx context.Context, kind Kind, name string) ([]byte, error)
	// Write replaces a document, creating its directory if needed
	Write(ctx context.Context, kind Kind, name string, data []byte) error
	// Exists reports whether a document is present
	Exists(ctx context.Context, kind Kind, name string) (bool, error)
	// List returns the names of all documents of a kind, sorted
	List(ctx context.Context, kind Kind) ([]string, error)
	// Invalidate drops any cached copy of a document
	Invalidate(kind Kind, name string)
}

// Config for the filesystem store
type Config struct {
	// Root is the application data directory; kinds are subdirectories of it
	Root string

	// CacheEnabled turns on the read cache
	CacheEnabled bool
	// CacheSize is the maximum number of cached documents
	CacheSize int
	// CacheTTL is how long a cached document stays valid
	CacheTTL time.Duration
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		Root:         ".omniverlay",
		CacheEnabled: true,
		CacheSize:    64,
		CacheTTL:     5 * time.Minute,
	}
}
