package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/opd-ai/go-scenic/internal/render"
	"github.com/opd-ai/go-scenic/internal/script"
	"github.com/opd-ai/go-scenic/internal/store"
)

// Presenter shows finished frames. Window hosts composite on their own
// schedule and return nil from Present.
type Presenter interface {
	// Size returns the surface size in pixels.
	Size() (width, height int)
	// Present shows the frame the backend just ended.
	Present(b render.Backend) error
}

// Settings are the driver options that can change while it runs.
type Settings struct {
	Debug          bool
	Antialias      bool
	MaxScriptDepth int
	LogLevel       slog.Level
}

// Options wires a Driver to its collaborators. Backend, Presenter and
// Upstream are required.
type Options struct {
	Backend   render.Backend
	Presenter Presenter
	Upstream  *Upstream

	// Scripts and Assets default to empty stores. Assets must be the same
	// value the backend was created with.
	Scripts *store.ScriptStore
	Assets  *store.Assets

	// Misses, when set, is reset at the start of every frame.
	Misses *MissReporter

	Logger   Logger
	LogLevel *slog.LevelVar
	Metrics  *render.FrameMetrics
	Settings Settings

	PollInterval time.Duration

	// Input carries host events to forward upstream.
	Input <-chan Event
	// Reload carries new Settings from a config watcher.
	Reload <-chan Settings
}

// Driver owns the stores and the frame state set by the host: global and
// cursor transforms, cursor position and visibility, and the clear colour.
// All methods except Run's internals must be called from the goroutine that
// calls Run.
type Driver struct {
	backend   render.Backend
	presenter Presenter
	up        *Upstream
	misses    *MissReporter
	log       Logger
	level     *slog.LevelVar
	metrics   *render.FrameMetrics
	poll      time.Duration
	input     <-chan Event
	reload    <-chan Settings

	scripts *store.ScriptStore
	assets  *store.Assets
	interp  *script.Interpreter

	settings   Settings
	globalTx   render.Matrix
	cursorTx   render.Matrix
	cursorX    float64
	cursorY    float64
	showCursor bool
	clear      render.Color

	width, height int
	lastStats     script.Stats
}

// New returns a Driver. It does not touch the transport until Run.
func New(opts Options) (*Driver, error) {
	if opts.Backend == nil {
		return nil, errors.New("driver: backend is required")
	}
	if opts.Presenter == nil {
		return nil, errors.New("driver: presenter is required")
	}
	if opts.Upstream == nil {
		return nil, errors.New("driver: upstream is required")
	}
	if opts.Scripts == nil {
		opts.Scripts = store.NewScriptStore()
	}
	if opts.Assets == nil {
		opts.Assets = store.NewAssets()
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	if opts.Metrics == nil {
		opts.Metrics = render.NewFrameMetrics(time.Second)
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	d := &Driver{
		backend:   opts.Backend,
		presenter: opts.Presenter,
		up:        opts.Upstream,
		misses:    opts.Misses,
		log:       opts.Logger,
		level:     opts.LogLevel,
		metrics:   opts.Metrics,
		poll:      opts.PollInterval,
		input:     opts.Input,
		reload:    opts.Reload,
		scripts:   opts.Scripts,
		assets:    opts.Assets,
		interp:    script.New(opts.Scripts, opts.Logger),
		globalTx:  render.Identity(),
		cursorTx:  render.Identity(),
		clear:     render.Black,
	}
	d.Apply(opts.Settings)
	return d, nil
}

// Scripts returns the script store.
func (d *Driver) Scripts() *store.ScriptStore { return d.scripts }

// Assets returns the image, stream and font stores.
func (d *Driver) Assets() *store.Assets { return d.assets }

// Metrics returns the frame timing collector.
func (d *Driver) Metrics() *render.FrameMetrics { return d.metrics }

// LastStats returns the interpreter stats of the last root render.
func (d *Driver) LastStats() script.Stats { return d.lastStats }

// Apply installs new runtime settings.
func (d *Driver) Apply(s Settings) {
	if s.MaxScriptDepth <= 0 {
		s.MaxScriptDepth = script.DefaultMaxDepth
	}
	d.settings = s
	d.interp.MaxDepth = s.MaxScriptDepth
	if d.level != nil {
		d.level.Set(s.LogLevel)
	}
	if aa, ok := d.backend.(render.Antialiaser); ok {
		aa.SetAntialias(s.Antialias)
	}
}

// Run announces readiness, then serves frames from in until the host
// quits, the stream ends or ctx is cancelled. A quit command and a
// cancelled ctx return nil.
//
// If in is an io.Closer, Run closes it before returning so the goroutine
// blocked reading it is released.
func (d *Driver) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if c, ok := in.(io.Closer); ok {
		defer c.Close()
	}

	frames := make(chan []byte, 16)
	readErr := make(chan error, 1)
	go func() { readErr <- readFrames(ctx, in, frames) }()

	d.reshape()
	if err := d.up.Ready(); err != nil {
		return fmt.Errorf("%w: send ready: %w", ErrTransport, err)
	}

	ticker := time.NewTicker(d.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case msg := <-frames:
			if err := d.Dispatch(msg); err != nil {
				if errors.Is(err, ErrQuit) {
					return nil
				}
				return err
			}

		case err := <-readErr:
			if derr := d.drain(frames); derr != nil {
				if errors.Is(derr, ErrQuit) {
					return nil
				}
				return derr
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("%w: %w", ErrTransport, err)

		case ev := <-d.input:
			if ev.Kind == EventReshape {
				d.width, d.height = ev.Width, ev.Height
			}
			if err := d.up.SendEvent(ev); err != nil {
				return fmt.Errorf("%w: forward %s: %w", ErrTransport, ev.Kind, err)
			}

		case s := <-d.reload:
			d.Apply(s)
			d.log.Info("settings reloaded", "debug", s.Debug, "antialias", s.Antialias,
				"max_script_depth", d.settings.MaxScriptDepth, "log_level", s.LogLevel)

		case <-ticker.C:
			d.reshape()
		}

		if err := d.up.Err(); err != nil {
			return fmt.Errorf("%w: upstream: %w", ErrTransport, err)
		}
	}
}

// drain dispatches frames the reader queued before it stopped.
func (d *Driver) drain(frames <-chan []byte) error {
	for {
		select {
		case msg := <-frames:
			if err := d.Dispatch(msg); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// reshape reports a surface size change.
func (d *Driver) reshape() {
	w, h := d.presenter.Size()
	if w == d.width && h == d.height {
		return
	}
	d.width, d.height = w, h
	_ = d.up.Reshape(w, h)
}

// RenderFrame draws _root_ and, when shown, _cursor_, presents the result
// and tells the host the driver is ready again. Backend errors are logged
// and do not stop the driver.
func (d *Driver) RenderFrame() error {
	start := time.Now()
	b := d.backend
	if d.misses != nil {
		d.misses.Reset()
	}

	w, h := d.presenter.Size()
	if err := b.BeginFrame(w, h, d.clear); err != nil {
		d.log.Error("begin frame failed", "width", w, "height", h, "error", err)
		return d.up.Ready()
	}
	b.Transform(d.globalTx)
	d.lastStats = d.interp.Render(b, RootScript)

	if d.showCursor {
		b.PushState()
		b.Translate(d.cursorX, d.cursorY)
		b.Transform(d.cursorTx)
		d.interp.Render(b, CursorScript)
		b.PopState()
	}

	if err := b.EndFrame(); err != nil {
		d.log.Error("frame error", "error", err)
	}
	if err := d.presenter.Present(b); err != nil {
		d.log.Error("present failed", "error", err)
	}

	elapsed := time.Since(start)
	d.metrics.RecordFrame(elapsed)
	if d.settings.Debug {
		args := []any{"ops", d.lastStats.Ops, "scripts", d.lastStats.Scripts,
			"depth", d.lastStats.MaxDepth, "aborted", d.lastStats.Aborted, "over_budget", d.lastStats.OverBudget, "elapsed", elapsed}
		if sr, ok := b.(render.StatsReporter); ok {
			ds := sr.DrawStats()
			args = append(args, "fills", ds.Fills, "strokes", ds.Strokes, "texts", ds.Texts, "draw_calls", ds.DrawCalls)
		}
		d.log.Debug("frame rendered", args...)
	}
	return d.up.Ready()
}
