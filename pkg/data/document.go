package data

import (
	"context"
	"fmt"
	"strings"

	"github.com/platinummonkey/omniverlay/pkg/extensions"
	"github.com/platinummonkey/omniverlay/pkg/storage"
)

// DefaultName is the name of the profile and layout used on first run
const DefaultName = "default"

// ExtensionRegistry is the part of the extension manager documents apply
// themselves to and reconcile against.
type ExtensionRegistry interface {
	ListExtensions(ctx context.Context) ([]extensions.ExtensionInfo, error)
	UpdateExtensionState(ctx context.Context, name string, state extensions.ExtensionState) error
	UpdateExtensionLayout(ctx context.Context, name string, layout extensions.ExtensionLayout) error
}

// Document is a named persisted snapshot of per-extension settings
type Document[T any] interface {
	// Name is the document name and its file stem
	Name() string
	// SetName renames the document
	SetName(name string)
	// Kind selects the directory the document is stored in
	Kind() storage.Kind
	// ApplyToExtensions pushes every entry into the registry. It stops at the
	// first failure; entries applied before it stay applied.
	ApplyToExtensions(ctx context.Context, registry ExtensionRegistry) error
	// OnLoad reconciles a freshly loaded document with the live registry
	OnLoad(ctx context.Context, registry ExtensionRegistry) error
	// Clone returns a deep copy
	Clone() T
}

// ValidateName checks that a document name can be used as a file stem
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("%w: %q starts with a dot", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: %q contains a NUL byte", ErrInvalidName, name)
	}
	return nil
}
