package driver

import (
	"fmt"

	"github.com/opd-ai/go-scenic/internal/wire"
)

// EventKind identifies an input or window event produced by a host.
type EventKind int

const (
	EventKey EventKind = iota
	EventCodepoint
	EventCursorPos
	EventMouseButton
	EventScroll
	EventCursorEnter
	EventReshape
	EventClose
)

func (k EventKind) String() string {
	switch k {
	case EventKey:
		return "key"
	case EventCodepoint:
		return "codepoint"
	case EventCursorPos:
		return "cursor_pos"
	case EventMouseButton:
		return "mouse_button"
	case EventScroll:
		return "scroll"
	case EventCursorEnter:
		return "cursor_enter"
	case EventReshape:
		return "reshape"
	case EventClose:
		return "close"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Key and button actions.
const (
	ActionRelease uint32 = 0
	ActionPress   uint32 = 1
	ActionRepeat  uint32 = 2
)

// Modifier bits.
const (
	ModShift   uint32 = 0x01
	ModControl uint32 = 0x02
	ModAlt     uint32 = 0x04
	ModSuper   uint32 = 0x08
)

// Event is one host event waiting to be forwarded. Only the fields the Kind
// uses are meaningful.
type Event struct {
	Kind EventKind

	Key, Scancode uint32
	Codepoint     rune
	Button        uint32
	Action        uint32
	Mods          uint32

	// X and Y are the pointer position in surface coordinates.
	X, Y float32
	// DX and DY are scroll offsets.
	DX, DY float32

	Entered bool

	Width, Height int
}

// SendEvent encodes ev as its outbound message.
func (u *Upstream) SendEvent(ev Event) error {
	switch ev.Kind {
	case EventKey:
		return u.Send(MsgKey, func(w *wire.Writer) {
			w.U32(ev.Key).U32(ev.Scancode).U32(ev.Action).U32(ev.Mods)
		})
	case EventCodepoint:
		return u.Send(MsgCodepoint, func(w *wire.Writer) {
			w.U32(uint32(ev.Codepoint)).U32(ev.Mods)
		})
	case EventCursorPos:
		return u.Send(MsgCursorPos, func(w *wire.Writer) {
			w.F32(ev.X).F32(ev.Y)
		})
	case EventMouseButton:
		return u.Send(MsgMouseButton, func(w *wire.Writer) {
			w.U32(ev.Button).U32(ev.Action).U32(ev.Mods).F32(ev.X).F32(ev.Y)
		})
	case EventScroll:
		return u.Send(MsgScroll, func(w *wire.Writer) {
			w.F32(ev.DX).F32(ev.DY).F32(ev.X).F32(ev.Y)
		})
	case EventCursorEnter:
		entered := uint32(0)
		if ev.Entered {
			entered = 1
		}
		return u.Send(MsgCursorEnter, func(w *wire.Writer) {
			w.U32(entered).F32(ev.X).F32(ev.Y)
		})
	case EventReshape:
		return u.Reshape(ev.Width, ev.Height)
	case EventClose:
		return u.Close(0)
	default:
		return fmt.Errorf("unknown event kind %v", ev.Kind)
	}
}
