package driver

import (
	"encoding/binary"

	"github.com/opd-ai/go-scenic/internal/render"
	"github.com/opd-ai/go-scenic/internal/store"
	"github.com/opd-ai/go-scenic/internal/wire"
)

// Commands builds a stream of framed host commands, the inverse of
// Dispatch. The demo scene and tests drive a Driver with it.
type Commands struct {
	buf []byte
	w   *wire.Writer
}

// NewCommands returns an empty command stream.
func NewCommands() *Commands {
	return &Commands{w: wire.NewWriter(64)}
}

func (c *Commands) add(cmd Command, body func(w *wire.Writer)) *Commands {
	c.w.Reset()
	c.w.U32(uint32(cmd))
	if body != nil {
		body(c.w)
	}
	c.buf = binary.BigEndian.AppendUint32(c.buf, uint32(c.w.Len()))
	c.buf = append(c.buf, c.w.Bytes()...)
	return c
}

func putID(w *wire.Writer, id string) {
	w.U32(uint32(len(id))).Raw([]byte(id))
}

func putMatrix(w *wire.Writer, m render.Matrix) {
	for _, v := range m.Wire() {
		w.F32(float32(v))
	}
}

// PutScript stores body under id.
func (c *Commands) PutScript(id string, body []byte) *Commands {
	return c.add(CmdPutScript, func(w *wire.Writer) { putID(w, id); w.Raw(body) })
}

// DelScript removes the script id.
func (c *Commands) DelScript(id string) *Commands {
	return c.add(CmdDelScript, func(w *wire.Writer) { putID(w, id) })
}

// Reset clears all scripts.
func (c *Commands) Reset() *Commands { return c.add(CmdReset, nil) }

// GlobalTx sets the transform applied to the whole frame.
func (c *Commands) GlobalTx(m render.Matrix) *Commands {
	return c.add(CmdGlobalTx, func(w *wire.Writer) { putMatrix(w, m) })
}

// CursorTx sets the transform applied to the cursor script.
func (c *Commands) CursorTx(m render.Matrix) *Commands {
	return c.add(CmdCursorTx, func(w *wire.Writer) { putMatrix(w, m) })
}

// Render draws a frame.
func (c *Commands) Render() *Commands { return c.add(CmdRender, nil) }

// UpdateCursor moves the cursor and sets whether it is drawn.
func (c *Commands) UpdateCursor(show bool, x, y float32) *Commands {
	return c.add(CmdUpdateCursor, func(w *wire.Writer) {
		var s uint32
		if show {
			s = 1
		}
		w.U32(s).F32(x).F32(y)
	})
}

// ClearColor sets the frame background.
func (c *Commands) ClearColor(col render.Color) *Commands {
	return c.add(CmdClearColor, func(w *wire.Writer) { w.U8(col.R).U8(col.G).U8(col.B).U8(col.A) })
}

// PutFont uploads font data under id.
func (c *Commands) PutFont(id string, data []byte) *Commands {
	return c.add(CmdPutFont, func(w *wire.Writer) { putID(w, id); w.Raw(data) })
}

// PutImage uploads pixels or an encoded file under id.
func (c *Commands) PutImage(id string, width, height uint32, format store.ImageFormat, blob []byte) *Commands {
	return c.add(CmdPutImage, func(w *wire.Writer) {
		w.U32(uint32(len(id))).U32(uint32(len(blob))).U32(width).U32(height).U32(uint32(format))
		w.Raw([]byte(id)).Raw(blob)
	})
}

// Quit asks the driver to stop.
func (c *Commands) Quit() *Commands { return c.add(CmdQuit, nil) }

// Crash asks the driver to fail.
func (c *Commands) Crash() *Commands { return c.add(CmdCrash, nil) }

// Bytes returns the framed stream.
func (c *Commands) Bytes() []byte { return c.buf }
