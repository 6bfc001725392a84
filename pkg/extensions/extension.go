package extensions

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Extension is a pluggable unit of overlay behavior.
//
// Enable and Disable are lifecycle hooks and may have side effects such as
// starting a background sampler; the extension owns whatever they start.
// Info returns the shared record the extension was constructed with and
// must return the same pointer on every call.
type Extension interface {
	Info() *SharedInfo
	Enable() error
	Disable() error
}

// Handle is a registered extension together with the lock that serializes
// its transitions. Handles for different extensions never contend.
type Handle struct {
	ext  Extension
	name string
	sem  *semaphore.Weighted
}

func newHandle(name string, ext Extension) *Handle {
	return &Handle{
		ext:  ext,
		name: name,
		sem:  semaphore.NewWeighted(1),
	}
}

// Name returns the name the extension was registered under
func (h *Handle) Name() string {
	return h.name
}

// Extension returns the wrapped extension
func (h *Handle) Extension() Extension {
	return h.ext
}

// With runs fn while holding the extension lock. Waiting for the lock is
// bounded by ctx.
func (h *Handle) With(ctx context.Context, fn func(Extension) error) error {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("failed to lock extension %s: %w", h.name, err)
	}
	defer h.sem.Release(1)

	return fn(h.ext)
}

// SetEnabled moves the extension to the requested state. It is a no-op when
// the recorded flag already matches; otherwise the Enable or Disable hook
// runs and the flag is recorded only if the hook succeeds. It reports
// whether a transition happened.
func (h *Handle) SetEnabled(ctx context.Context, enabled bool) (bool, error) {
	var changed bool
	err := h.With(ctx, func(ext Extension) error {
		var err error
		changed, err = setEnabled(ext, enabled)
		return err
	})
	return changed, err
}

// setEnabled must be called with the extension lock held
func setEnabled(ext Extension, enabled bool) (bool, error) {
	info := ext.Info()
	if info.IsEnabled() == enabled {
		return false, nil
	}

	if enabled {
		if err := ext.Enable(); err != nil {
			return false, fmt.Errorf("failed to enable extension %s: %w", info.Name(), err)
		}
	} else {
		if err := ext.Disable(); err != nil {
			return false, fmt.Errorf("failed to disable extension %s: %w", info.Name(), err)
		}
	}

	info.SetEnabled(enabled)
	return true, nil
}
