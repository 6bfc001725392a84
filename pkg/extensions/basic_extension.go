package extensions

// BasicExtension is an Extension whose hooks are plain functions.
// It suits extensions that only carry state and layout, and tests.
type BasicExtension struct {
	info      *SharedInfo
	onEnable  func() error
	onDisable func() error
}

// NewBasicExtension creates an extension from an initial info record.
// Nil hooks succeed without doing anything.
func NewBasicExtension(info ExtensionInfo, onEnable, onDisable func() error) *BasicExtension {
	return &BasicExtension{
		info:      NewSharedInfo(info),
		onEnable:  onEnable,
		onDisable: onDisable,
	}
}

// Info returns the shared info record
func (e *BasicExtension) Info() *SharedInfo {
	return e.info
}

// Enable runs the enable hook
func (e *BasicExtension) Enable() error {
	if e.onEnable == nil {
		return nil
	}
	return e.onEnable()
}

// Disable runs the disable hook
func (e *BasicExtension) Disable() error {
	if e.onDisable == nil {
		return nil
	}
	return e.onDisable()
}
