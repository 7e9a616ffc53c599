// Package driver runs the frame loop: it reads length-prefixed commands
// from the host, keeps the script and asset stores current, renders the
// root script through a render.Backend, and writes replies and input events
// back with the same framing.
package driver

import (
	"errors"
	"fmt"
)

// Command selects a top-level inbound message.
type Command uint32

const (
	CmdPutScript    Command = 0x01
	CmdDelScript    Command = 0x02
	CmdReset        Command = 0x03
	CmdGlobalTx     Command = 0x04
	CmdCursorTx     Command = 0x05
	CmdRender       Command = 0x06
	CmdUpdateCursor Command = 0x07
	CmdClearColor   Command = 0x08
	CmdQuit         Command = 0x20
	CmdPutFont      Command = 0x40
	CmdPutImage     Command = 0x41
	CmdCrash        Command = 0xFE
)

func (c Command) String() string {
	switch c {
	case CmdPutScript:
		return "put_script"
	case CmdDelScript:
		return "del_script"
	case CmdReset:
		return "reset"
	case CmdGlobalTx:
		return "global_tx"
	case CmdCursorTx:
		return "cursor_tx"
	case CmdRender:
		return "render"
	case CmdUpdateCursor:
		return "update_cursor"
	case CmdClearColor:
		return "clear_color"
	case CmdQuit:
		return "quit"
	case CmdPutFont:
		return "put_font"
	case CmdPutImage:
		return "put_image"
	case CmdCrash:
		return "crash"
	default:
		return fmt.Sprintf("Command(0x%02x)", uint32(c))
	}
}

// Msg is the type tag of an outbound message.
type Msg uint32

const (
	MsgClose       Msg = 0x00
	MsgStats       Msg = 0x01
	MsgPuts        Msg = 0x02
	MsgWrite       Msg = 0x03
	MsgInspect     Msg = 0x04
	MsgReshape     Msg = 0x05
	MsgReady       Msg = 0x06
	MsgDrawReady   Msg = 0x07
	MsgKey         Msg = 0x0A
	MsgCodepoint   Msg = 0x0B
	MsgCursorPos   Msg = 0x0C
	MsgMouseButton Msg = 0x0D
	MsgScroll      Msg = 0x0E
	MsgCursorEnter Msg = 0x0F
	MsgDropPaths   Msg = 0x10

	MsgStaticTexMiss Msg = 0x20
	MsgDynTexMiss    Msg = 0x21
	MsgFontMiss      Msg = 0x22
	MsgImgMiss       Msg = 0x23

	MsgNewTxID   Msg = 0x31
	MsgNewFontID Msg = 0x32

	MsgInfo  Msg = 0xA0
	MsgWarn  Msg = 0xA1
	MsgError Msg = 0xA2
	MsgDebug Msg = 0xA3
)

// Well-known script ids.
const (
	RootScript   = "_root_"
	CursorScript = "_cursor_"
)

// StreamPrefix routes a put_image id to the stream table.
const StreamPrefix = "stream:"

var (
	// ErrQuit is returned by Dispatch when the host asked the driver to stop.
	ErrQuit = errors.New("quit requested")
	// ErrCrash is returned by Dispatch for the crash test hook.
	ErrCrash = errors.New("crash requested")
	// ErrTruncated marks an inbound frame or command that ended early.
	ErrTruncated = errors.New("truncated message")
	// ErrTransport wraps failures of the host pipe that end Run.
	ErrTransport = errors.New("transport")
	// ErrFrameTooLarge is returned for a length prefix above MaxFrameSize.
	ErrFrameTooLarge = errors.New("frame too large")
)
