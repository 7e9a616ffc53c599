//go:build linux

package host

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"

	"github.com/opd-ai/go-scenic/internal/driver"
	"github.com/opd-ai/go-scenic/internal/render"
)

// putImageHeader is the fixed part of a PutImage request in bytes.
const putImageHeader = 24

// X11 presents software frames in a window of its own. Pixels are sent
// with PutImage in row bands that fit the server's request limit. Window
// events are translated into driver events; Size processes them.
type X11 struct {
	mu     sync.Mutex
	conn   *xgb.Conn
	win    xproto.Window
	gc     xproto.Gcontext
	depth  byte
	maxReq int

	protocols xproto.Atom
	delete    xproto.Atom

	width, height int
	events        chan driver.Event
	buf           []byte
	closed        bool
}

// NewX11 opens a connection to $DISPLAY and maps a window.
func NewX11(opts X11Options) (*X11, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("host: invalid surface size %dx%d", opts.Width, opts.Height)
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 64
	}
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("host: connect to X server: %w", err)
	}
	x, err := newX11(conn, opts)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return x, nil
}

func newX11(conn *xgb.Conn, opts X11Options) (*X11, error) {
	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)
	if screen.RootDepth != 24 && screen.RootDepth != 32 {
		return nil, fmt.Errorf("host: unsupported colour depth %d", screen.RootDepth)
	}

	win, err := xproto.NewWindowId(conn)
	if err != nil {
		return nil, err
	}
	events := uint32(xproto.EventMaskExposure | xproto.EventMaskStructureNotify |
		xproto.EventMaskPointerMotion | xproto.EventMaskButtonPress | xproto.EventMaskButtonRelease |
		xproto.EventMaskKeyPress | xproto.EventMaskKeyRelease |
		xproto.EventMaskEnterWindow | xproto.EventMaskLeaveWindow)
	if err := xproto.CreateWindowChecked(conn, screen.RootDepth, win, screen.Root,
		0, 0, uint16(opts.Width), uint16(opts.Height), 0,
		xproto.WindowClassInputOutput, screen.RootVisual,
		xproto.CwBackPixel|xproto.CwEventMask, []uint32{screen.BlackPixel, events}).Check(); err != nil {
		return nil, fmt.Errorf("host: create window: %w", err)
	}

	x := &X11{
		conn:   conn,
		win:    win,
		depth:  screen.RootDepth,
		maxReq: int(setup.MaximumRequestLength)*4 - putImageHeader,
		width:  opts.Width,
		height: opts.Height,
		events: make(chan driver.Event, opts.EventBuffer),
	}

	xproto.ChangeProperty(conn, xproto.PropModeReplace, win, xproto.AtomWmName,
		xproto.AtomString, 8, uint32(len(opts.Title)), []byte(opts.Title))

	h := &hinter{conn: conn}
	if x.protocols, err = h.atom("WM_PROTOCOLS"); err != nil {
		return nil, err
	}
	if x.delete, err = h.atom("WM_DELETE_WINDOW"); err != nil {
		return nil, err
	}
	data := make([]byte, 4)
	xgb.Put32(data, uint32(x.delete))
	xproto.ChangeProperty(conn, xproto.PropModeReplace, win, x.protocols, xproto.AtomAtom, 32, 1, data)

	if opts.Layer != LayerNormal {
		if err := h.addState(win, opts.Layer.stateAtom()); err != nil {
			return nil, fmt.Errorf("host: layer hint: %w", err)
		}
	}

	if x.gc, err = xproto.NewGcontextId(conn); err != nil {
		return nil, err
	}
	xproto.CreateGC(conn, x.gc, xproto.Drawable(win), 0, nil)
	if err := xproto.MapWindowChecked(conn, win).Check(); err != nil {
		return nil, fmt.Errorf("host: map window: %w", err)
	}
	return x, nil
}

// Events returns the channel window events are delivered on.
func (x *X11) Events() <-chan driver.Event { return x.events }

// Size processes pending window events and returns the window size.
func (x *X11) Size() (int, int) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if !x.closed {
		x.poll()
	}
	return x.width, x.height
}

// Present blits the software backend's surface into the window.
func (x *X11) Present(b render.Backend) error {
	im, ok := b.(Imager)
	if !ok {
		return errors.New("host: x11 presenter needs a software backend")
	}
	img := im.Image()
	if img == nil {
		return nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return errors.New("host: x11 window closed")
	}

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	stride := w * 4
	if cap(x.buf) < stride*h {
		x.buf = make([]byte, stride*h)
	}
	buf := x.buf[:stride*h]
	toBGRX(buf, img.Pix, img.Stride, w, h)

	rows := max(1, x.maxReq/stride)
	for y := 0; y < h; y += rows {
		n := min(rows, h-y)
		xproto.PutImage(x.conn, xproto.ImageFormatZPixmap, xproto.Drawable(x.win), x.gc,
			uint16(w), uint16(n), 0, int16(y), 0, x.depth, buf[y*stride:(y+n)*stride])
	}
	// A round trip surfaces errors from the bands above.
	if _, err := xproto.GetInputFocus(x.conn).Reply(); err != nil {
		return fmt.Errorf("host: put image: %w", err)
	}
	return nil
}

// toBGRX converts premultiplied RGBA rows to the server's 32-bit ZPixmap
// layout. Dropping alpha composites the frame over black.
func toBGRX(dst, src []byte, srcStride, w, h int) {
	for y := 0; y < h; y++ {
		s := src[y*srcStride : y*srcStride+w*4]
		d := dst[y*w*4 : (y+1)*w*4]
		for i := 0; i < len(s); i += 4 {
			d[i], d[i+1], d[i+2], d[i+3] = s[i+2], s[i+1], s[i], 0xff
		}
	}
}

// Close destroys the window and closes the connection.
func (x *X11) Close() {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return
	}
	x.closed = true
	xproto.DestroyWindow(x.conn, x.win)
	x.conn.Close()
}

func (x *X11) emit(ev driver.Event) {
	select {
	case x.events <- ev:
	default:
	}
}

// poll drains queued X events without blocking.
func (x *X11) poll() {
	for {
		ev, xerr := x.conn.PollForEvent()
		if ev == nil && xerr == nil {
			return
		}
		if ev == nil {
			continue
		}
		x.handle(ev)
	}
}

func (x *X11) handle(ev xgb.Event) {
	switch e := ev.(type) {
	case xproto.ConfigureNotifyEvent:
		x.width, x.height = int(e.Width), int(e.Height)
	case xproto.ClientMessageEvent:
		if e.Type == x.protocols && e.Format == 32 && e.Data.Data32[0] == uint32(x.delete) {
			x.emit(driver.Event{Kind: driver.EventClose})
		}
	case xproto.MotionNotifyEvent:
		x.emit(driver.Event{Kind: driver.EventCursorPos, X: float32(e.EventX), Y: float32(e.EventY)})
	case xproto.EnterNotifyEvent:
		x.emit(driver.Event{Kind: driver.EventCursorEnter, Entered: true, X: float32(e.EventX), Y: float32(e.EventY)})
	case xproto.LeaveNotifyEvent:
		x.emit(driver.Event{Kind: driver.EventCursorEnter, X: float32(e.EventX), Y: float32(e.EventY)})
	case xproto.ButtonPressEvent:
		x.button(e.Detail, driver.ActionPress, e.State, e.EventX, e.EventY)
	case xproto.ButtonReleaseEvent:
		x.button(e.Detail, driver.ActionRelease, e.State, e.EventX, e.EventY)
	case xproto.KeyPressEvent:
		x.emit(driver.Event{Kind: driver.EventKey, Key: KeyUnknown, Scancode: uint32(e.Detail),
			Action: driver.ActionPress, Mods: x11Mods(e.State)})
	case xproto.KeyReleaseEvent:
		x.emit(driver.Event{Kind: driver.EventKey, Key: KeyUnknown, Scancode: uint32(e.Detail),
			Action: driver.ActionRelease, Mods: x11Mods(e.State)})
	}
}

// button maps X buttons 1-3 to mouse buttons and 4-7 to scroll steps.
func (x *X11) button(detail xproto.Button, action uint32, state uint16, px, py int16) {
	fx, fy := float32(px), float32(py)
	var dx, dy float32
	switch detail {
	case 4:
		dy = 1
	case 5:
		dy = -1
	case 6:
		dx = 1
	case 7:
		dx = -1
	default:
		x.emit(driver.Event{Kind: driver.EventMouseButton, Button: x11Button(detail), Action: action,
			Mods: x11Mods(state), X: fx, Y: fy})
		return
	}
	if action == driver.ActionPress {
		x.emit(driver.Event{Kind: driver.EventScroll, DX: dx, DY: dy, X: fx, Y: fy})
	}
}

// x11Button maps X's 1 left, 2 middle, 3 right onto 0 left, 1 right,
// 2 middle.
func x11Button(b xproto.Button) uint32 {
	switch b {
	case 1:
		return 0
	case 2:
		return 2
	case 3:
		return 1
	default:
		return uint32(b) - 1
	}
}

func x11Mods(state uint16) uint32 {
	var mods uint32
	if state&xproto.ModMaskShift != 0 {
		mods |= driver.ModShift
	}
	if state&xproto.ModMaskControl != 0 {
		mods |= driver.ModControl
	}
	if state&xproto.ModMask1 != 0 {
		mods |= driver.ModAlt
	}
	if state&xproto.ModMask4 != 0 {
		mods |= driver.ModSuper
	}
	return mods
}
