// Package config holds the driver's options. Values come from defaults, an
// optional Lua file and command-line flags, in that order.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Config is the complete driver configuration.
type Config struct {
	// Backend selects the drawing backend.
	Backend BackendKind
	// Present selects where finished frames go. The GPU backend always
	// presents in a window.
	Present PresentMode

	// Width and Height are the initial surface size in pixels.
	Width  int
	Height int
	// Title is the window title.
	Title string
	// Resizable lets the window follow the outside size.
	Resizable bool
	// Cursor shows the system pointer over the window.
	Cursor bool
	// Layer is the stacking hint: -1 below, 0 normal, 1 above.
	Layer int
	// GlobalOpacity scales the alpha of the presented surface (0, 1].
	GlobalOpacity float64

	Antialias bool

	// DebugMode logs every command and interpreter abort.
	DebugMode bool
	LogLevel  slog.Level
	// MaxScriptDepth caps draw_script nesting.
	MaxScriptDepth int
	// PollInterval is how long the driver waits for host input before it
	// checks for resizes.
	PollInterval time.Duration
	// SnapshotDir receives a PNG per frame from the headless presenter.
	SnapshotDir string
}

// BackendKind selects a drawing backend.
type BackendKind int

// Backend kinds.
const (
	BackendGPU BackendKind = iota
	BackendSoftware
)

// String returns the config name of the backend.
func (b BackendKind) String() string {
	switch b {
	case BackendGPU:
		return "gpu"
	case BackendSoftware:
		return "software"
	default:
		return fmt.Sprintf("BackendKind(%d)", int(b))
	}
}

// ParseBackend parses "gpu" or "software".
func ParseBackend(s string) (BackendKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gpu":
		return BackendGPU, nil
	case "software", "cpu":
		return BackendSoftware, nil
	default:
		return BackendGPU, fmt.Errorf("unknown backend: %q", s)
	}
}

// PresentMode selects a presenter.
type PresentMode int

// Present modes.
const (
	PresentWindow PresentMode = iota
	PresentX11
	PresentHeadless
)

// String returns the config name of the mode.
func (p PresentMode) String() string {
	switch p {
	case PresentWindow:
		return "window"
	case PresentX11:
		return "x11"
	case PresentHeadless:
		return "headless"
	default:
		return fmt.Sprintf("PresentMode(%d)", int(p))
	}
}

// ParsePresent parses "window", "x11" or "headless".
func ParsePresent(s string) (PresentMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "window":
		return PresentWindow, nil
	case "x11":
		return PresentX11, nil
	case "headless", "none":
		return PresentHeadless, nil
	default:
		return PresentWindow, fmt.Errorf("unknown present mode: %q", s)
	}
}

// ParseLogLevel accepts slog level names ("debug", "info", "warn",
// "error") with optional offsets such as "warn+2".
func ParseLogLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level: %q", s)
	}
	return l, nil
}
