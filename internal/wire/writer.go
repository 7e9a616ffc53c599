package wire

import (
	"encoding/binary"
	"math"
)

// Writer appends big-endian fields to a growing buffer.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with capacity for n bytes.
func NewWriter(n int) *Writer {
	return &Writer{buf: make([]byte, 0, n)}
}

// U8 appends one byte.
func (w *Writer) U8(v uint8) *Writer {
	w.buf = append(w.buf, v)
	return w
}

// U16 appends a big-endian uint16.
func (w *Writer) U16(v uint16) *Writer {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
	return w
}

// U32 appends a big-endian uint32.
func (w *Writer) U32(v uint32) *Writer {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
	return w
}

// F32 appends a big-endian float32.
func (w *Writer) F32(v float32) *Writer {
	return w.U32(math.Float32bits(v))
}

// Raw appends b unpadded.
func (w *Writer) Raw(b []byte) *Writer {
	w.buf = append(w.buf, b...)
	return w
}

// Padded appends b followed by zero bytes up to the next 4-byte boundary.
func (w *Writer) Padded(b []byte) *Writer {
	w.buf = append(w.buf, b...)
	for i := len(b); i < PaddedAdvance(len(b)); i++ {
		w.buf = append(w.buf, 0)
	}
	return w
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// Reset empties the buffer, keeping its capacity.
func (w *Writer) Reset() { w.buf = w.buf[:0] }

// Bytes returns the written bytes. The slice aliases the Writer's buffer.
func (w *Writer) Bytes() []byte { return w.buf }
