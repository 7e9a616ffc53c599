package host

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/opd-ai/go-scenic/internal/driver"
	"github.com/opd-ai/go-scenic/internal/render"
)

// ErrTerminated ends the ebiten loop when the window's context is done.
var ErrTerminated = errors.New("window terminated")

// WindowOptions configures NewWindow.
type WindowOptions struct {
	Width, Height int
	Title         string
	Resizable     bool
	Layer         Layer
	// Opacity scales the alpha of the whole surface. Values below 1 ask
	// for a transparent framebuffer.
	Opacity float64
	// Cursor shows the system pointer over the window.
	Cursor      bool
	EventBuffer int
	// OnError receives host errors that do not stop the window, such as a
	// failed layer hint.
	OnError func(error)
}

// Window hosts the GPU backend in an ebiten window. The driver renders
// into the backend from its own goroutine; Draw composites the last
// finished frame every tick and Update forwards input.
type Window struct {
	gpu    *render.GPU
	opts   WindowOptions
	events chan driver.Event
	ctx    context.Context

	width  atomic.Int32
	height atomic.Int32

	hinted  bool
	closing bool
	inside  bool
	cx, cy  int
	keys    []ebiten.Key
	chars   []rune
	drawOpt ebiten.DrawImageOptions
}

var (
	_ ebiten.Game      = (*Window)(nil)
	_ driver.Presenter = (*Window)(nil)
)

// NewWindow returns a window host for gpu. Call Run on the main goroutine.
func NewWindow(gpu *render.GPU, opts WindowOptions) *Window {
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 256
	}
	if opts.Opacity <= 0 || opts.Opacity > 1 {
		opts.Opacity = 1
	}
	w := &Window{
		gpu:    gpu,
		opts:   opts,
		events: make(chan driver.Event, opts.EventBuffer),
		cx:     -1,
		cy:     -1,
	}
	w.width.Store(int32(opts.Width))
	w.height.Store(int32(opts.Height))
	w.drawOpt.ColorScale.ScaleAlpha(float32(opts.Opacity))
	return w
}

// Events returns the channel input events are delivered on. Events are
// dropped when the driver falls behind by more than the buffer.
func (w *Window) Events() <-chan driver.Event { return w.events }

// Size returns the window's layout size.
func (w *Window) Size() (int, int) {
	return int(w.width.Load()), int(w.height.Load())
}

// Present is a no-op; Draw composites on ebiten's schedule.
func (w *Window) Present(render.Backend) error { return nil }

// Update implements ebiten.Game.
func (w *Window) Update() error {
	if w.ctx != nil {
		select {
		case <-w.ctx.Done():
			return ErrTerminated
		default:
		}
	}
	if !w.hinted {
		w.hinted = true
		if err := ApplyLayer(w.opts.Layer); err != nil && w.opts.OnError != nil {
			w.opts.OnError(err)
		}
	}
	if ebiten.IsWindowBeingClosed() && !w.closing {
		w.closing = true
		w.emit(driver.Event{Kind: driver.EventClose})
	}
	w.pollInput()
	return nil
}

// Draw implements ebiten.Game.
func (w *Window) Draw(screen *ebiten.Image) {
	w.gpu.Composite(screen, &w.drawOpt)
}

// Layout implements ebiten.Game. A resizable window follows the outside
// size; otherwise the configured size is kept.
func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	if !w.opts.Resizable {
		outsideWidth, outsideHeight = w.opts.Width, w.opts.Height
	}
	w.width.Store(int32(outsideWidth))
	w.height.Store(int32(outsideHeight))
	return outsideWidth, outsideHeight
}

// Run opens the window and blocks until ctx is done or the loop fails.
// It must be called from the main goroutine.
func (w *Window) Run(ctx context.Context) error {
	w.ctx = ctx
	ebiten.SetWindowSize(w.opts.Width, w.opts.Height)
	ebiten.SetWindowTitle(w.opts.Title)
	if w.opts.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	ebiten.SetWindowClosingHandled(true)
	if !w.opts.Cursor {
		ebiten.SetCursorMode(ebiten.CursorModeHidden)
	}

	err := ebiten.RunGameWithOptions(w, &ebiten.RunGameOptions{
		ScreenTransparent: w.opts.Opacity < 1,
	})
	if errors.Is(err, ErrTerminated) {
		return nil
	}
	return err
}

func (w *Window) emit(ev driver.Event) {
	select {
	case w.events <- ev:
	default:
	}
}

func (w *Window) pollInput() {
	mods := modsFrom(ebiten.IsKeyPressed)

	w.keys = inpututil.AppendJustPressedKeys(w.keys[:0])
	for _, k := range w.keys {
		w.emit(driver.Event{Kind: driver.EventKey, Key: keyCode(k), Action: driver.ActionPress, Mods: mods})
	}
	w.keys = inpututil.AppendJustReleasedKeys(w.keys[:0])
	for _, k := range w.keys {
		w.emit(driver.Event{Kind: driver.EventKey, Key: keyCode(k), Action: driver.ActionRelease, Mods: mods})
	}
	w.chars = ebiten.AppendInputChars(w.chars[:0])
	for _, r := range w.chars {
		w.emit(driver.Event{Kind: driver.EventCodepoint, Codepoint: r, Mods: mods})
	}

	x, y := ebiten.CursorPosition()
	fx, fy := float32(x), float32(y)
	width, height := w.Size()
	inside := x >= 0 && y >= 0 && x < width && y < height
	if inside != w.inside {
		w.inside = inside
		w.emit(driver.Event{Kind: driver.EventCursorEnter, Entered: inside, X: fx, Y: fy})
	}
	if inside && (x != w.cx || y != w.cy) {
		w.emit(driver.Event{Kind: driver.EventCursorPos, X: fx, Y: fy})
	}
	w.cx, w.cy = x, y

	for _, mb := range mouseButtons {
		if inpututil.IsMouseButtonJustPressed(mb.button) {
			w.emit(driver.Event{Kind: driver.EventMouseButton, Button: mb.code,
				Action: driver.ActionPress, Mods: mods, X: fx, Y: fy})
		}
		if inpututil.IsMouseButtonJustReleased(mb.button) {
			w.emit(driver.Event{Kind: driver.EventMouseButton, Button: mb.code,
				Action: driver.ActionRelease, Mods: mods, X: fx, Y: fy})
		}
	}
	if dx, dy := ebiten.Wheel(); dx != 0 || dy != 0 {
		w.emit(driver.Event{Kind: driver.EventScroll, DX: float32(dx), DY: float32(dy), X: fx, Y: fy})
	}
}
