package scenic

import (
	"expvar"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-scenic/internal/render"
)

// Metrics collects operational counters for a Driver and exposes them
// through expvar. Frame timings come from the driver's frame metrics once
// Run has started.
//
// Thread-safe for concurrent use.
type Metrics struct {
	starts        atomic.Int64
	stops         atomic.Int64
	configReloads atomic.Int64
	errorsTotal   atomic.Int64
	eventsEmitted atomic.Int64

	running atomic.Bool
	frames  atomic.Pointer[render.FrameMetrics]

	registered atomic.Bool
}

// NewMetrics creates a new Metrics instance.
// Call RegisterExpvar() to expose metrics via the /debug/vars endpoint.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RegisterExpvar publishes the metrics under scenic_* names. expvar names
// are process-wide, so only one Metrics can be registered per process.
// Safe to call multiple times; subsequent calls are no-ops.
func (m *Metrics) RegisterExpvar() {
	if m.registered.Swap(true) {
		return
	}

	expvar.Publish("scenic_starts_total", expvar.Func(func() any { return m.starts.Load() }))
	expvar.Publish("scenic_stops_total", expvar.Func(func() any { return m.stops.Load() }))
	expvar.Publish("scenic_config_reloads_total", expvar.Func(func() any { return m.configReloads.Load() }))
	expvar.Publish("scenic_errors_total", expvar.Func(func() any { return m.errorsTotal.Load() }))
	expvar.Publish("scenic_events_emitted_total", expvar.Func(func() any { return m.eventsEmitted.Load() }))
	expvar.Publish("scenic_running", expvar.Func(func() any { return m.running.Load() }))

	expvar.Publish("scenic_frames_total", expvar.Func(func() any { return m.Snapshot().Frames }))
	expvar.Publish("scenic_fps", expvar.Func(func() any { return m.Snapshot().FPS }))
	expvar.Publish("scenic_frame_time_avg_ms", expvar.Func(func() any {
		return float64(m.Snapshot().FrameTimeAvg) / 1e6
	}))
	expvar.Publish("scenic_frame_time_max_ms", expvar.Func(func() any {
		return float64(m.Snapshot().FrameTimeMax) / 1e6
	}))
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Starts:        m.starts.Load(),
		Stops:         m.stops.Load(),
		ConfigReloads: m.configReloads.Load(),
		ErrorsTotal:   m.errorsTotal.Load(),
		EventsEmitted: m.eventsEmitted.Load(),
		Running:       m.running.Load(),
	}
	if fm := m.frames.Load(); fm != nil {
		s.Frames = fm.Frames()
		s.FPS = fm.FPS()
		s.FrameTimeLast = fm.LastFrameTime()
		s.FrameTimeAvg = fm.AverageFrameTime()
		s.FrameTimeMax = fm.MaxFrameTime()
	}
	return s
}

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot struct {
	Starts        int64
	Stops         int64
	ConfigReloads int64
	ErrorsTotal   int64
	EventsEmitted int64

	Running bool

	Frames        int64
	FPS           float64
	FrameTimeLast time.Duration
	FrameTimeAvg  time.Duration
	FrameTimeMax  time.Duration
}

// IncrementStarts records a start operation.
func (m *Metrics) IncrementStarts() {
	m.starts.Add(1)
}

// IncrementStops records a stop operation.
func (m *Metrics) IncrementStops() {
	m.stops.Add(1)
}

// IncrementConfigReloads records a configuration reload.
func (m *Metrics) IncrementConfigReloads() {
	m.configReloads.Add(1)
}

// IncrementErrors records an error occurrence.
func (m *Metrics) IncrementErrors() {
	m.errorsTotal.Add(1)
}

// IncrementEventsEmitted records an event emission.
func (m *Metrics) IncrementEventsEmitted() {
	m.eventsEmitted.Add(1)
}

// SetRunning updates the running state gauge.
func (m *Metrics) SetRunning(running bool) {
	m.running.Store(running)
}

// attachFrames makes frame timings visible in snapshots.
func (m *Metrics) attachFrames(fm *render.FrameMetrics) {
	m.frames.Store(fm)
}

// Reset clears all counters. Useful for testing.
func (m *Metrics) Reset() {
	m.starts.Store(0)
	m.stops.Store(0)
	m.configReloads.Store(0)
	m.errorsTotal.Store(0)
	m.eventsEmitted.Store(0)
	m.running.Store(false)
	if fm := m.frames.Load(); fm != nil {
		fm.Reset()
	}
}
