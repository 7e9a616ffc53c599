package scenic

import (
	"io"
	"log/slog"
	"time"

	"github.com/opd-ai/go-scenic/internal/config"
)

// DefaultShutdownTimeout bounds how long Stop waits for Run to return.
const DefaultShutdownTimeout = 5 * time.Second

// Options configures a Driver. The zero value talks to the host over the
// process's stdin and stdout and logs text to stderr.
type Options struct {
	// In carries host commands. Nil means os.Stdin. It is closed when Run
	// returns if it implements io.Closer.
	In io.Reader
	// Out carries messages to the host. Nil means os.Stdout.
	Out io.Writer

	// Logger receives driver logs in addition to the host. Nil means a
	// text logger on stderr filtered at the configured level.
	Logger Logger
	// LogLevel, when set, is adjusted as settings are reloaded. Share it
	// with the handler behind Logger to have it follow.
	LogLevel *slog.LevelVar

	// Override is applied to every loaded config before validation,
	// including reloads. Command-line flags use it to win over the file.
	Override func(*config.Config) error

	// WatchConfig reloads the config file when it changes on disk. Only
	// debug, log level, antialias and script depth take effect without a
	// restart.
	WatchConfig bool
	// WatchDebounce collapses bursts of file events. Zero means 500ms.
	WatchDebounce time.Duration

	// ShutdownTimeout bounds Stop. Zero means DefaultShutdownTimeout.
	ShutdownTimeout time.Duration

	// Metrics collects operational counters. Nil means a private
	// collector; call Metrics().RegisterExpvar() to publish it.
	Metrics *Metrics
	// ErrorTracker aggregates errors. Nil means a private tracker.
	ErrorTracker *ErrorTracker
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{ShutdownTimeout: DefaultShutdownTimeout}
}

// Logger interface for custom logging.
// It follows the slog-style signature for compatibility with Go's structured logging.
type Logger interface {
	// Debug logs a debug-level message with optional key-value pairs.
	Debug(msg string, args ...any)
	// Info logs an info-level message with optional key-value pairs.
	Info(msg string, args ...any)
	// Warn logs a warning-level message with optional key-value pairs.
	Warn(msg string, args ...any)
	// Error logs an error-level message with optional key-value pairs.
	Error(msg string, args ...any)
}
