//go:build !linux

package host

// DetectCompositor returns CompositorActive; Windows and macOS always
// composite.
func DetectCompositor() CompositorStatus {
	return CompositorActive
}

// IsWayland returns false outside Linux.
func IsWayland() bool {
	return false
}

// TransparencyWarning returns "" outside Linux.
func TransparencyWarning(opacity float64) string {
	return ""
}
