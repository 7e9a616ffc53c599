package scenic

import "time"

// Status represents the current state of a Driver.
type Status struct {
	// Running indicates if the driver is serving the host.
	Running bool
	// StartTime is when Run last started (zero if never started).
	StartTime time.Time
	// Frames is the number of frames rendered since the last start.
	Frames int64
	// LastError is the most recent error encountered (nil if none).
	LastError error
	// ConfigSource is the config file path, or "defaults".
	ConfigSource string
	// Backend and Present name the drawing backend and presenter.
	Backend string
	Present string
}

// ErrorHandler is a callback for runtime errors.
// It is called asynchronously; do not block in the handler.
type ErrorHandler func(err error)

// EventHandler is a callback for lifecycle events.
// It is called asynchronously; do not block in the handler.
type EventHandler func(event Event)

// Event represents a lifecycle event.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Message   string
}

// EventType enumerates lifecycle event types.
type EventType int

const (
	// EventStarted is emitted when Run has set up the backend and presenter.
	EventStarted EventType = iota
	// EventStopped is emitted when Run returns.
	EventStopped
	// EventConfigReloaded is emitted when a changed config file was applied.
	EventConfigReloaded
	// EventError is emitted when a recoverable error occurs.
	EventError
)

// String returns a human-readable representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventStarted:
		return "started"
	case EventStopped:
		return "stopped"
	case EventConfigReloaded:
		return "config_reloaded"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}
