package config

import (
	"log/slog"

	"github.com/opd-ai/go-scenic/internal/driver"
	"github.com/opd-ai/go-scenic/internal/script"
)

// Default values for configuration options.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
	DefaultTitle  = "scenic"
)

// DefaultConfig returns the configuration used when no file or flag says
// otherwise.
func DefaultConfig() Config {
	return Config{
		Backend:        BackendGPU,
		Present:        PresentWindow,
		Width:          DefaultWidth,
		Height:         DefaultHeight,
		Title:          DefaultTitle,
		Resizable:      false,
		Cursor:         false,
		Layer:          0,
		GlobalOpacity:  1,
		Antialias:      true,
		DebugMode:      false,
		LogLevel:       slog.LevelInfo,
		MaxScriptDepth: script.DefaultMaxDepth,
		PollInterval:   driver.DefaultPollInterval,
	}
}

// Settings returns the subset of the configuration the driver can change
// while running.
func (c *Config) Settings() driver.Settings {
	return driver.Settings{
		Debug:          c.DebugMode,
		Antialias:      c.Antialias,
		MaxScriptDepth: c.MaxScriptDepth,
		LogLevel:       c.LogLevel,
	}
}
