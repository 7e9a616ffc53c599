// Package wire provides the big-endian byte codec shared by the script
// interpreter, the command dispatcher and the outbound message writer.
// Every multi-byte field on the wire is network byte order, and every
// string-like field is padded to a 4-byte boundary.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrShortBuffer is returned when a read would run past the end of the buffer.
var ErrShortBuffer = errors.New("wire: read past end of buffer")

// PaddedAdvance returns the number of bytes a field of size n occupies on the
// wire once padded to a 4-byte boundary.
func PaddedAdvance(n int) int {
	return n + (4-n%4)%4
}

// Reader is a cursor over an immutable byte slice. Reads never copy and
// never panic; a read that would cross the end of the buffer returns
// ErrShortBuffer and leaves the cursor untouched.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a Reader positioned at the start of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Pos returns the current cursor offset.
func (r *Reader) Pos() int { return r.pos }

// Len returns the total length of the underlying buffer.
func (r *Reader) Len() int { return len(r.buf) }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Done reports whether the cursor has reached the end of the buffer.
func (r *Reader) Done() bool { return r.pos >= len(r.buf) }

func (r *Reader) need(n int) error {
	if n < 0 || r.pos+n > len(r.buf) {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrShortBuffer, n, r.pos, len(r.buf)-r.pos)
	}
	return nil
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}

// U8 reads one byte.
func (r *Reader) U8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

// U16 reads a big-endian uint16.
func (r *Reader) U16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

// U32 reads a big-endian uint32.
func (r *Reader) U32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

// F32 reads a big-endian IEEE-754 float32.
func (r *Reader) F32() (float32, error) {
	v, err := r.U32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// F32s fills dst with consecutive floats. Either all values are read or
// none are and the cursor does not move.
func (r *Reader) F32s(dst []float32) error {
	if err := r.need(4 * len(dst)); err != nil {
		return err
	}
	for i := range dst {
		dst[i] = math.Float32frombits(binary.BigEndian.Uint32(r.buf[r.pos:]))
		r.pos += 4
	}
	return nil
}

// Bytes returns the next n bytes as a subslice of the buffer.
// The caller must copy the result if it outlives the buffer.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	v := r.buf[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return v, nil
}

// PaddedBytes returns the next n bytes and then skips the padding that
// aligns the cursor to the next 4-byte boundary.
func (r *Reader) PaddedBytes(n int) ([]byte, error) {
	if err := r.need(PaddedAdvance(n)); err != nil {
		return nil, err
	}
	v := r.buf[r.pos : r.pos+n : r.pos+n]
	r.pos += PaddedAdvance(n)
	return v, nil
}

// Rest returns every unread byte and moves the cursor to the end.
func (r *Reader) Rest() []byte {
	v := r.buf[r.pos:]
	r.pos = len(r.buf)
	return v
}
