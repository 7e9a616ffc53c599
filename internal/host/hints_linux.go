//go:build linux

package host

import (
	"errors"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// hinter sets EWMH window state atoms. It caches interned atoms per
// connection.
type hinter struct {
	mu    sync.Mutex
	conn  *xgb.Conn
	owned bool
	atoms map[string]xproto.Atom
}

var activeHints = &hinter{owned: true}

// ApplyLayer sets the layer hint on the active X11 window. The ebiten host
// calls it once its window exists. LayerNormal is a no-op.
func ApplyLayer(layer Layer) error {
	if layer == LayerNormal {
		return nil
	}
	return activeHints.applyActive(layer)
}

// CloseHints releases the connection used by ApplyLayer.
func CloseHints() {
	activeHints.close()
}

func (h *hinter) applyActive(layer Layer) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.ensureConn(); err != nil {
		return err
	}
	win, err := h.activeWindow()
	if err != nil {
		return err
	}
	if win == xproto.WindowNone {
		return errors.New("host: no active window")
	}
	return h.addStateLocked(win, layer.stateAtom())
}

// addState adds the named atoms to the window's _NET_WM_STATE.
func (h *hinter) addState(win xproto.Window, names ...string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.addStateLocked(win, names...)
}

func (h *hinter) addStateLocked(win xproto.Window, names ...string) error {
	stateAtom, err := h.atom("_NET_WM_STATE")
	if err != nil {
		return err
	}
	atomAtom, err := h.atom("ATOM")
	if err != nil {
		return err
	}

	current, _ := h.windowState(win, stateAtom, atomAtom)
	set := make(map[xproto.Atom]bool, len(current)+len(names))
	final := make([]xproto.Atom, 0, len(current)+len(names))
	for _, a := range current {
		if !set[a] {
			set[a] = true
			final = append(final, a)
		}
	}
	var added []xproto.Atom
	for _, name := range names {
		if name == "" {
			continue
		}
		a, err := h.atom(name)
		if err != nil {
			return err
		}
		if !set[a] {
			set[a] = true
			final = append(final, a)
			added = append(added, a)
		}
	}
	if len(added) == 0 {
		return nil
	}

	data := make([]byte, len(final)*4)
	for i, a := range final {
		xgb.Put32(data[i*4:], uint32(a))
	}
	if err := xproto.ChangePropertyChecked(h.conn, xproto.PropModeReplace, win,
		stateAtom, atomAtom, 32, uint32(len(final)), data).Check(); err != nil {
		return err
	}

	// A mapped window only changes state when the window manager is asked.
	root := xproto.Setup(h.conn).DefaultScreen(h.conn).Root
	for _, a := range added {
		ev := xproto.ClientMessageEvent{
			Format: 32,
			Window: win,
			Type:   stateAtom,
			Data:   xproto.ClientMessageDataUnionData32New([]uint32{1, uint32(a), 0, 1, 0}),
		}
		xproto.SendEvent(h.conn, false, root,
			xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify, string(ev.Bytes()))
	}
	return nil
}

func (h *hinter) ensureConn() error {
	if h.conn != nil {
		return nil
	}
	conn, err := xgb.NewConn()
	if err != nil {
		return err
	}
	h.conn = conn
	h.atoms = make(map[string]xproto.Atom)
	return nil
}

func (h *hinter) atom(name string) (xproto.Atom, error) {
	if a, ok := h.atoms[name]; ok {
		return a, nil
	}
	reply, err := xproto.InternAtom(h.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}
	if h.atoms == nil {
		h.atoms = make(map[string]xproto.Atom)
	}
	h.atoms[name] = reply.Atom
	return reply.Atom, nil
}

// activeWindow returns _NET_ACTIVE_WINDOW, falling back to the input focus.
func (h *hinter) activeWindow() (xproto.Window, error) {
	setup := xproto.Setup(h.conn)
	if len(setup.Roots) == 0 {
		return xproto.WindowNone, nil
	}
	root := setup.Roots[0].Root

	if active, err := h.atom("_NET_ACTIVE_WINDOW"); err == nil {
		reply, err := xproto.GetProperty(h.conn, false, root, active,
			xproto.AtomWindow, 0, 1).Reply()
		if err == nil && reply != nil && len(reply.Value) >= 4 {
			return xproto.Window(xgb.Get32(reply.Value)), nil
		}
	}

	focus, err := xproto.GetInputFocus(h.conn).Reply()
	if err != nil {
		return xproto.WindowNone, err
	}
	return focus.Focus, nil
}

func (h *hinter) windowState(win xproto.Window, stateAtom, atomAtom xproto.Atom) ([]xproto.Atom, error) {
	reply, err := xproto.GetProperty(h.conn, false, win, stateAtom, atomAtom, 0, 256).Reply()
	if err != nil || reply == nil {
		return nil, err
	}
	atoms := make([]xproto.Atom, 0, len(reply.Value)/4)
	for i := 0; i+4 <= len(reply.Value); i += 4 {
		atoms = append(atoms, xproto.Atom(xgb.Get32(reply.Value[i:])))
	}
	return atoms, nil
}

func (h *hinter) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conn != nil && h.owned {
		h.conn.Close()
	}
	h.conn = nil
	h.atoms = nil
}
