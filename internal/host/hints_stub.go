//go:build !linux

package host

// ApplyLayer is a no-op outside X11.
func ApplyLayer(layer Layer) error {
	return nil
}

// CloseHints is a no-op outside X11.
func CloseHints() {}
