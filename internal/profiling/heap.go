package profiling

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"
)

// Sample is one reading of the runtime's memory state.
type Sample struct {
	At          time.Time
	HeapAlloc   uint64
	HeapObjects uint64
	Goroutines  int
	NumGC       uint32
}

// ReadSample reads the current memory state.
func ReadSample() Sample {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return Sample{
		At:          time.Now(),
		HeapAlloc:   ms.HeapAlloc,
		HeapObjects: ms.HeapObjects,
		Goroutines:  runtime.NumGoroutine(),
		NumGC:       ms.NumGC,
	}
}

func (s Sample) String() string {
	return fmt.Sprintf("heap %s in %d objects, %d goroutines, %d gc",
		FormatBytes(s.HeapAlloc), s.HeapObjects, s.Goroutines, s.NumGC)
}

// Growth compares the oldest and newest samples in a window.
type Growth struct {
	Over        time.Duration
	HeapDelta   int64
	Goroutines  int
	BytesPerSec float64
	// Reason is set when the growth crossed a threshold.
	Reason string
}

// Suspicious reports whether a threshold was crossed.
func (g Growth) Suspicious() bool { return g.Reason != "" }

func (g Growth) String() string {
	s := fmt.Sprintf("heap %+d B over %s (%.1f KB/s), goroutines %+d",
		g.HeapDelta, g.Over.Round(time.Second), g.BytesPerSec/KB, g.Goroutines)
	if g.Reason != "" {
		s += ": " + g.Reason
	}
	return s
}

// HeapWatchConfig configures a HeapWatcher.
type HeapWatchConfig struct {
	// Interval between samples. Zero means 10s.
	Interval time.Duration
	// Window is how many samples are compared. Zero means 30.
	Window int
	// BytesPerSec is sustained heap growth that counts as suspicious.
	// Zero means 1 MB/s.
	BytesPerSec float64
	// Goroutines is the net goroutine increase that counts as
	// suspicious. Zero means 10.
	Goroutines int
}

func (c *HeapWatchConfig) defaults() {
	if c.Interval <= 0 {
		c.Interval = 10 * time.Second
	}
	if c.Window < 2 {
		c.Window = 30
	}
	if c.BytesPerSec <= 0 {
		c.BytesPerSec = MB
	}
	if c.Goroutines <= 0 {
		c.Goroutines = 10
	}
}

// HeapWatcher samples memory while a driver runs. The host can grow the
// script and asset stores without bound, so a debug run reports
// sustained growth.
type HeapWatcher struct {
	cfg HeapWatchConfig

	mu      sync.Mutex
	samples []Sample
}

// NewHeapWatcher returns a watcher; call Run to start sampling.
func NewHeapWatcher(cfg HeapWatchConfig) *HeapWatcher {
	cfg.defaults()
	return &HeapWatcher{cfg: cfg, samples: make([]Sample, 0, cfg.Window)}
}

// Add records s, dropping the oldest sample once the window is full.
func (w *HeapWatcher) Add(s Sample) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.samples) == w.cfg.Window {
		copy(w.samples, w.samples[1:])
		w.samples = w.samples[:len(w.samples)-1]
	}
	w.samples = append(w.samples, s)
}

// Samples returns a copy of the current window.
func (w *HeapWatcher) Samples() []Sample {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Sample(nil), w.samples...)
}

// Growth compares the ends of the window. ok is false with fewer than
// two samples or no elapsed time.
func (w *HeapWatcher) Growth() (g Growth, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.samples) < 2 {
		return Growth{}, false
	}
	first, last := w.samples[0], w.samples[len(w.samples)-1]
	over := last.At.Sub(first.At)
	if over <= 0 {
		return Growth{}, false
	}

	g = Growth{
		Over:       over,
		HeapDelta:  int64(last.HeapAlloc) - int64(first.HeapAlloc),
		Goroutines: last.Goroutines - first.Goroutines,
	}
	g.BytesPerSec = float64(g.HeapDelta) / over.Seconds()
	switch {
	case g.BytesPerSec > w.cfg.BytesPerSec:
		g.Reason = fmt.Sprintf("heap growing faster than %s/s", FormatBytes(uint64(w.cfg.BytesPerSec)))
	case g.Goroutines > w.cfg.Goroutines:
		g.Reason = fmt.Sprintf("%d more goroutines", g.Goroutines)
	}
	return g, true
}

// Run samples until ctx is done, calling report with each suspicious
// growth.
func (w *HeapWatcher) Run(ctx context.Context, report func(Growth)) {
	t := time.NewTicker(w.cfg.Interval)
	defer t.Stop()
	w.Add(ReadSample())
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.Add(ReadSample())
			if g, ok := w.Growth(); ok && g.Suspicious() && report != nil {
				report(g)
			}
		}
	}
}

// Byte sizes for FormatBytes.
const (
	KB = 1024
	MB = KB * 1024
	GB = MB * 1024
)

// FormatBytes formats a byte count for logs.
func FormatBytes(n uint64) string {
	switch {
	case n >= GB:
		return fmt.Sprintf("%.2f GB", float64(n)/GB)
	case n >= MB:
		return fmt.Sprintf("%.2f MB", float64(n)/MB)
	case n >= KB:
		return fmt.Sprintf("%.2f KB", float64(n)/KB)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
