package scenic

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-scenic/internal/config"
	"github.com/opd-ai/go-scenic/internal/driver"
	"github.com/opd-ai/go-scenic/internal/host"
	"github.com/opd-ai/go-scenic/internal/render"
	"github.com/opd-ai/go-scenic/internal/store"
)

// ErrCrash is returned by Run when the host sent the crash command. The
// process is expected to exit with a non-zero status.
var ErrCrash = driver.ErrCrash

// ErrAlreadyRunning is returned by Run on a Driver that is running.
var ErrAlreadyRunning = errors.New("scenic: driver already running")

// Driver renders scene scripts sent by a host process. It owns the
// backend, presenter and stores for the duration of Run.
type Driver struct {
	cfg          *config.Config
	opts         Options
	configPath   string
	configSource string

	metrics *Metrics
	tracker *ErrorTracker

	running   atomic.Bool
	lastError atomic.Value
	frames    atomic.Pointer[render.FrameMetrics]

	mu           sync.RWMutex
	startTime    time.Time
	present      string
	cancel       context.CancelFunc
	done         chan struct{}
	errorHandler ErrorHandler
	eventHandler EventHandler
}

// New creates a Driver configured from the Lua file at configPath. An
// empty path uses the defaults. The driver is created but not started.
func New(configPath string, opts *Options) (*Driver, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, NewCategorizedError(fmt.Errorf("load config: %w", err), ErrorCategoryConfig, SeverityFatal)
	}
	source := configPath
	if source == "" {
		source = "defaults"
	}
	return newDriver(cfg, configPath, source, opts)
}

// NewFromFS creates a Driver from a config file inside fsys. The file is
// not watched.
func NewFromFS(fsys fs.FS, configPath string, opts *Options) (*Driver, error) {
	p := config.NewParser()
	defer p.Close()
	cfg, err := p.ParseFromFS(fsys, configPath)
	if err != nil {
		return nil, NewCategorizedError(fmt.Errorf("load config: %w", err), ErrorCategoryConfig, SeverityFatal)
	}
	return newDriver(cfg, "", "embedded:"+configPath, opts)
}

// NewFromReader creates a Driver from Lua config read from r.
func NewFromReader(r io.Reader, opts *Options) (*Driver, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	p := config.NewParser()
	defer p.Close()
	cfg, err := p.ParseReader(bytes.NewReader(content))
	if err != nil {
		return nil, NewCategorizedError(fmt.Errorf("load config: %w", err), ErrorCategoryConfig, SeverityFatal)
	}
	return newDriver(cfg, "", "reader", opts)
}

func newDriver(cfg *config.Config, path, source string, opts *Options) (*Driver, error) {
	o := DefaultOptions()
	if opts != nil {
		o = *opts
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = DefaultShutdownTimeout
	}
	if o.Metrics == nil {
		o.Metrics = NewMetrics()
	}
	if o.ErrorTracker == nil {
		o.ErrorTracker = NewErrorTracker(DefaultErrorTrackerConfig())
	}

	config.ExpandEnvConfig(cfg)
	if o.Override != nil {
		if err := o.Override(cfg); err != nil {
			return nil, NewCategorizedError(err, ErrorCategoryConfig, SeverityFatal)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, NewCategorizedError(err, ErrorCategoryConfig, SeverityFatal)
	}

	return &Driver{
		cfg:          cfg,
		opts:         o,
		configPath:   path,
		configSource: source,
		metrics:      o.Metrics,
		tracker:      o.ErrorTracker,
	}, nil
}

// Config returns a copy of the active configuration.
func (d *Driver) Config() config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return *d.cfg
}

// Run sets up the backend and presenter and serves the host until it
// quits, the pipe fails or ctx is done. With the GPU backend Run must be
// called from the main goroutine because it owns the window.
//
// A quit command or a cancelled ctx returns nil. Other errors are
// *CategorizedError values wrapping the cause.
func (d *Driver) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	d.mu.Lock()
	d.cancel = cancel
	d.done = done
	d.startTime = time.Now()
	cfg := *d.cfg
	d.mu.Unlock()

	d.metrics.IncrementStarts()
	d.metrics.SetRunning(true)
	defer func() {
		cancel()
		d.running.Store(false)
		d.metrics.SetRunning(false)
		d.metrics.IncrementStops()
		close(done)
		d.emitEvent(EventStopped, "driver stopped")
	}()

	err := d.serve(ctx, cancel, cfg)
	if err == nil {
		return nil
	}
	ce := Categorize(err)
	d.notifyError(ce)
	return ce
}

// serve wires the components for cfg and runs them.
func (d *Driver) serve(ctx context.Context, cancel context.CancelFunc, cfg config.Config) error {
	in, out := d.opts.In, d.opts.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	up := driver.NewUpstream(out)
	level := d.opts.LogLevel
	if level == nil {
		level = new(slog.LevelVar)
	}
	level.Set(cfg.LogLevel)
	log := d.logger(up, level)

	misses := driver.NewMissReporter(up)
	assets := store.NewAssets()
	ropts := render.Options{Assets: assets, Antialias: cfg.Antialias, OnMiss: misses.Report}

	var (
		backend   render.Backend
		presenter driver.Presenter
		input     <-chan driver.Event
		window    *host.Window
	)
	if cfg.Backend == config.BackendGPU {
		gpu := render.NewGPU(ropts)
		window = host.NewWindow(gpu, host.WindowOptions{
			Width:     cfg.Width,
			Height:    cfg.Height,
			Title:     cfg.Title,
			Resizable: cfg.Resizable,
			Layer:     host.LayerFromInt(cfg.Layer),
			Opacity:   cfg.GlobalOpacity,
			Cursor:    cfg.Cursor,
			OnError: func(err error) {
				log.Warn("window hint failed", "error", err)
				d.notifyError(NewCategorizedError(err, ErrorCategoryBackend, SeverityWarning))
			},
		})
		defer host.CloseHints()
		backend, presenter, input = gpu, window, window.Events()
		d.setPresent("window")
		if msg := host.TransparencyWarning(cfg.GlobalOpacity); msg != "" {
			log.Warn(msg)
		}
	} else {
		backend = render.NewSoftware(ropts)
		p, events, closeFn, err := d.softwarePresenter(cfg)
		if err != nil {
			return NewCategorizedError(err, ErrorCategoryBackend, SeverityFatal)
		}
		defer closeFn()
		presenter, input = p, events
	}

	frames := render.NewFrameMetrics(time.Second)
	d.frames.Store(frames)
	d.metrics.attachFrames(frames)

	drv, err := driver.New(driver.Options{
		Backend:      backend,
		Presenter:    presenter,
		Upstream:     up,
		Assets:       assets,
		Misses:       misses,
		Logger:       log,
		LogLevel:     level,
		Metrics:      frames,
		Settings:     cfg.Settings(),
		PollInterval: cfg.PollInterval,
		Input:        input,
		Reload:       d.watch(ctx, log),
	})
	if err != nil {
		return NewCategorizedError(err, ErrorCategoryBackend, SeverityFatal)
	}

	log.Info("driver started", "backend", cfg.Backend, "present", d.Status().Present,
		"width", cfg.Width, "height", cfg.Height, "config", d.configSource)
	d.emitEvent(EventStarted, "driver started")

	if window == nil {
		return drv.Run(ctx, in)
	}

	errc := make(chan error, 1)
	go func() {
		err := drv.Run(ctx, in)
		cancel()
		errc <- err
	}()
	werr := window.Run(ctx)
	cancel()
	if err := <-errc; err != nil {
		return err
	}
	if werr != nil {
		return NewCategorizedError(fmt.Errorf("window: %w", werr), ErrorCategoryBackend, SeverityFatal)
	}
	return nil
}

// softwarePresenter opens the presenter for the software backend. The
// window mode maps to the X11 presenter, which is a window of its own.
func (d *Driver) softwarePresenter(cfg config.Config) (driver.Presenter, <-chan driver.Event, func(), error) {
	switch cfg.Present {
	case config.PresentHeadless:
		h, err := host.NewHeadless(cfg.Width, cfg.Height, cfg.SnapshotDir)
		if err != nil {
			return nil, nil, nil, err
		}
		d.setPresent("headless")
		return h, nil, func() {}, nil
	default:
		x, err := host.NewX11(host.X11Options{
			Width:  cfg.Width,
			Height: cfg.Height,
			Title:  cfg.Title,
			Layer:  host.LayerFromInt(cfg.Layer),
		})
		if err != nil {
			return nil, nil, nil, err
		}
		d.setPresent("x11")
		return x, x.Events(), x.Close, nil
	}
}

// watch starts the config watcher when enabled and returns the channel
// reloaded settings arrive on. It returns nil when there is nothing to
// watch.
func (d *Driver) watch(ctx context.Context, log Logger) <-chan driver.Settings {
	if !d.opts.WatchConfig || d.configPath == "" {
		return nil
	}
	configs, err := config.Watch(ctx, d.configPath, config.WatchOptions{
		Debounce: d.opts.WatchDebounce,
		Override: d.opts.Override,
		OnError: func(err error) {
			log.Warn("config reload failed", "path", d.configPath, "error", err)
			d.notifyError(NewCategorizedError(err, ErrorCategoryConfig, SeverityWarning))
		},
	})
	if err != nil {
		log.Warn("config watch unavailable", "path", d.configPath, "error", err)
		return nil
	}

	out := make(chan driver.Settings)
	go func() {
		for cfg := range configs {
			d.mu.Lock()
			d.cfg = cfg
			d.mu.Unlock()
			select {
			case out <- cfg.Settings():
			case <-ctx.Done():
				return
			}
			d.metrics.IncrementConfigReloads()
			d.emitEvent(EventConfigReloaded, "configuration reloaded from "+d.configPath)
		}
	}()
	return out
}

// logger sends driver logs to the host and to the configured Logger.
func (d *Driver) logger(up *driver.Upstream, level *slog.LevelVar) Logger {
	upstream := driver.NewUpstreamHandler(up, level)
	if d.opts.Logger == nil {
		stderr := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
		return NewSlogAdapter(slog.New(NewTeeHandler(stderr, upstream)))
	}
	return teeLogger{d.opts.Logger, NewSlogAdapter(slog.New(upstream))}
}

func (d *Driver) setPresent(name string) {
	d.mu.Lock()
	d.present = name
	d.mu.Unlock()
}

// Stop cancels Run and waits for it to return, up to the shutdown
// timeout. Safe to call multiple times; calls on a stopped driver are
// no-ops.
func (d *Driver) Stop() error {
	if !d.running.Load() {
		return nil
	}
	d.mu.RLock()
	cancel, done := d.cancel, d.done
	d.mu.RUnlock()
	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		return nil
	case <-time.After(d.opts.ShutdownTimeout):
		err := fmt.Errorf("shutdown timed out after %s", d.opts.ShutdownTimeout)
		d.notifyError(NewCategorizedError(err, ErrorCategoryUnknown, SeverityError))
		return err
	}
}

// IsRunning returns true while Run is serving the host.
func (d *Driver) IsRunning() bool {
	return d.running.Load()
}

// Status returns detailed status information about the driver.
func (d *Driver) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s := Status{
		Running:      d.running.Load(),
		StartTime:    d.startTime,
		LastError:    d.getError(),
		ConfigSource: d.configSource,
		Backend:      d.cfg.Backend.String(),
		Present:      d.present,
	}
	if fm := d.frames.Load(); fm != nil {
		s.Frames = fm.Frames()
	}
	return s
}

// SetErrorHandler registers a callback for runtime errors.
func (d *Driver) SetErrorHandler(handler ErrorHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errorHandler = handler
}

// SetEventHandler registers a callback for lifecycle events.
func (d *Driver) SetEventHandler(handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.eventHandler = handler
}

// Metrics returns the metrics collector for this driver.
func (d *Driver) Metrics() *Metrics {
	return d.metrics
}

// Errors returns the driver's error tracker.
func (d *Driver) Errors() *ErrorTracker {
	return d.tracker
}

func (d *Driver) getError() error {
	if v := d.lastError.Load(); v != nil {
		if err, ok := v.(error); ok {
			return err
		}
	}
	return nil
}

// notifyError records err and invokes the error handler if registered.
func (d *Driver) notifyError(err *CategorizedError) {
	d.lastError.Store(error(err))
	d.tracker.Record(err)
	d.metrics.IncrementErrors()

	d.mu.RLock()
	handler := d.errorHandler
	d.mu.RUnlock()

	if handler != nil {
		go func() {
			defer func() {
				// A panicking handler must not take the driver down.
				_ = recover()
			}()
			handler(err)
		}()
	}
	d.emitEvent(EventError, err.Error())
}

// emitEvent sends an event to the event handler if configured.
func (d *Driver) emitEvent(eventType EventType, message string) {
	d.metrics.IncrementEventsEmitted()

	d.mu.RLock()
	handler := d.eventHandler
	d.mu.RUnlock()

	if handler != nil {
		go func() {
			defer func() { _ = recover() }()
			handler(Event{Type: eventType, Timestamp: time.Now(), Message: message})
		}()
	}
}
