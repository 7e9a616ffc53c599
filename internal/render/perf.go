package render

import (
	"sync/atomic"
	"time"
)

// FrameMetrics tracks render timing across frames. It is safe for
// concurrent use: the driver records frames while a debug reporter reads.
type FrameMetrics struct {
	frames        atomic.Int64
	lastFPS       atomic.Int64 // FPS * 1000
	lastFrameTime atomic.Int64 // nanoseconds
	minFrameTime  atomic.Int64
	maxFrameTime  atomic.Int64
	totalTime     atomic.Int64
	periodFrames  atomic.Int64
	lastUpdate    atomic.Int64 // Unix nano
	updatePeriod  time.Duration
}

// NewFrameMetrics returns a FrameMetrics that recalculates the frame rate
// every updatePeriod (one second when zero).
func NewFrameMetrics(updatePeriod time.Duration) *FrameMetrics {
	if updatePeriod <= 0 {
		updatePeriod = time.Second
	}
	fm := &FrameMetrics{updatePeriod: updatePeriod}
	fm.Reset()
	return fm
}

// RecordFrame records the time one render command took, from BeginFrame
// to present.
func (fm *FrameMetrics) RecordFrame(frameTime time.Duration) {
	n := frameTime.Nanoseconds()
	fm.frames.Add(1)
	fm.periodFrames.Add(1)
	fm.lastFrameTime.Store(n)
	fm.totalTime.Add(n)

	for {
		cur := fm.minFrameTime.Load()
		if n >= cur || fm.minFrameTime.CompareAndSwap(cur, n) {
			break
		}
	}
	for {
		cur := fm.maxFrameTime.Load()
		if n <= cur || fm.maxFrameTime.CompareAndSwap(cur, n) {
			break
		}
	}

	now := time.Now().UnixNano()
	last := fm.lastUpdate.Load()
	elapsed := time.Duration(now - last)
	if elapsed >= fm.updatePeriod && fm.lastUpdate.CompareAndSwap(last, now) {
		frames := fm.periodFrames.Swap(0)
		fm.lastFPS.Store(int64(float64(frames) / elapsed.Seconds() * 1000))
	}
}

// FPS returns the frame rate over the last completed period.
func (fm *FrameMetrics) FPS() float64 {
	return float64(fm.lastFPS.Load()) / 1000
}

// Frames returns the number of frames recorded since the last Reset.
func (fm *FrameMetrics) Frames() int64 {
	return fm.frames.Load()
}

func (fm *FrameMetrics) LastFrameTime() time.Duration {
	return time.Duration(fm.lastFrameTime.Load())
}

func (fm *FrameMetrics) MinFrameTime() time.Duration {
	if fm.frames.Load() == 0 {
		return 0
	}
	return time.Duration(fm.minFrameTime.Load())
}

func (fm *FrameMetrics) MaxFrameTime() time.Duration {
	return time.Duration(fm.maxFrameTime.Load())
}

func (fm *FrameMetrics) AverageFrameTime() time.Duration {
	count := fm.frames.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(fm.totalTime.Load() / count)
}

// Reset clears all metrics.
func (fm *FrameMetrics) Reset() {
	fm.frames.Store(0)
	fm.periodFrames.Store(0)
	fm.lastFPS.Store(0)
	fm.lastFrameTime.Store(0)
	fm.minFrameTime.Store(int64(time.Hour))
	fm.maxFrameTime.Store(0)
	fm.totalTime.Store(0)
	fm.lastUpdate.Store(time.Now().UnixNano())
}

// DrawStats counts the work a backend did in one frame.
type DrawStats struct {
	Fills     int
	Strokes   int
	Texts     int
	DrawCalls int
	Vertices  int
}

// StatsReporter is implemented by backends that count their draw calls.
type StatsReporter interface {
	DrawStats() DrawStats
}
