package driver

import (
	"fmt"
	"io"
	"sync"

	"github.com/opd-ai/go-scenic/internal/wire"
)

// Upstream writes framed messages to the host. Each message is a u32
// length covering everything after it, a u32 Msg tag, then the body.
// It is safe for concurrent use; messages are never interleaved.
type Upstream struct {
	mu  sync.Mutex
	w   io.Writer
	buf *wire.Writer
	err error
}

// NewUpstream returns an Upstream writing to w.
func NewUpstream(w io.Writer) *Upstream {
	return &Upstream{w: w, buf: wire.NewWriter(64)}
}

// Err returns the first write error. Once a write fails every later
// Send is dropped.
func (u *Upstream) Err() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.err
}

// Send frames one message. body may be nil.
func (u *Upstream) Send(msg Msg, body func(w *wire.Writer)) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return u.err
	}

	u.buf.Reset()
	u.buf.U32(0).U32(uint32(msg))
	if body != nil {
		body(u.buf)
	}
	out := u.buf.Bytes()
	n := uint32(len(out) - 4)
	out[0], out[1], out[2], out[3] = byte(n>>24), byte(n>>16), byte(n>>8), byte(n)

	if _, err := u.w.Write(out); err != nil {
		u.err = fmt.Errorf("write %#02x: %w", uint32(msg), err)
		return u.err
	}
	return nil
}

// Ready tells the host the driver can take the next frame.
func (u *Upstream) Ready() error { return u.Send(MsgReady, nil) }

// Reshape reports a new surface size.
func (u *Upstream) Reshape(width, height int) error {
	return u.Send(MsgReshape, func(w *wire.Writer) {
		w.U32(uint32(width)).U32(uint32(height))
	})
}

// Text sends a message whose body is raw text: puts, write and the log
// levels.
func (u *Upstream) Text(msg Msg, text string) error {
	return u.Send(msg, func(w *wire.Writer) { w.Raw([]byte(text)) })
}

// Close reports that the surface was closed for reason.
func (u *Upstream) Close(reason uint32) error {
	return u.Send(MsgClose, func(w *wire.Writer) { w.U32(reason) })
}
