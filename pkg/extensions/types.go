package extensions

import "sync"

// ExtensionLayout is the on-screen geometry of an extension
type ExtensionLayout struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
	X      uint32 `json:"x"`
	Y      uint32 `json:"y"`
}

// ExtensionState is the enabled flag and configuration of an extension.
// The zero value is disabled with no config.
type ExtensionState struct {
	IsEnabled bool             `json:"is_enabled"`
	Config    *ExtensionConfig `json:"config"`
}

// Clone returns a deep copy of the state
func (s ExtensionState) Clone() ExtensionState {
	return ExtensionState{IsEnabled: s.IsEnabled, Config: s.Config.Clone()}
}

// ExtensionInfo describes an extension: its name, state and optional layout
type ExtensionInfo struct {
	Name   string           `json:"name"`
	State  ExtensionState   `json:"state"`
	Layout *ExtensionLayout `json:"layout"`
}

// Clone returns a deep copy of the info
func (i ExtensionInfo) Clone() ExtensionInfo {
	out := ExtensionInfo{Name: i.Name, State: i.State.Clone()}
	if i.Layout != nil {
		layout := *i.Layout
		out.Layout = &layout
	}
	return out
}

// SharedInfo is the lock-guarded ExtensionInfo record an extension owns and
// shares with the manager and the data documents.
type SharedInfo struct {
	mu   sync.RWMutex
	info ExtensionInfo
}

// NewSharedInfo wraps an initial info record
func NewSharedInfo(info ExtensionInfo) *SharedInfo {
	return &SharedInfo{info: info.Clone()}
}

// Name returns the extension name
func (s *SharedInfo) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info.Name
}

// Snapshot returns a deep copy of the current info
func (s *SharedInfo) Snapshot() ExtensionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info.Clone()
}

// State returns a copy of the current state
func (s *SharedInfo) State() ExtensionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info.State.Clone()
}

// IsEnabled returns the recorded enabled flag
func (s *SharedInfo) IsEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info.State.IsEnabled
}

// Layout returns a copy of the current layout, or nil
func (s *SharedInfo) Layout() *ExtensionLayout {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.info.Layout == nil {
		return nil
	}
	layout := *s.info.Layout
	return &layout
}

// SetState replaces the whole state
func (s *SharedInfo) SetState(state ExtensionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info.State = state.Clone()
}

// SetEnabled records the enabled flag without running any hook
func (s *SharedInfo) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info.State.IsEnabled = enabled
}

// SetLayout replaces the layout
func (s *SharedInfo) SetLayout(layout ExtensionLayout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info.Layout = &layout
}
