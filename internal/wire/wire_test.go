package wire

import (
	"errors"
	"math"
	"testing"
)

func TestPaddedAdvance(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 0},
		{1, 4},
		{2, 4},
		{3, 4},
		{4, 4},
		{5, 8},
		{6, 8},
		{7, 8},
		{8, 8},
		{13, 16},
	}
	for _, tt := range tests {
		if got := PaddedAdvance(tt.in); got != tt.want {
			t.Errorf("PaddedAdvance(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPaddedAdvanceRange(t *testing.T) {
	for n := 0; n <= 1000; n++ {
		p := PaddedAdvance(n)
		if p%4 != 0 {
			t.Fatalf("PaddedAdvance(%d) = %d, not 4-byte aligned", n, p)
		}
		if pad := p - n; pad < 0 || pad > 3 {
			t.Fatalf("PaddedAdvance(%d) = %d, padding %d out of [0,3]", n, p, pad)
		}
	}
}

func TestReader_Primitives(t *testing.T) {
	w := NewWriter(32)
	w.U8(0xAB).U8(0).U16(0x1234).U32(0xDEADBEEF).F32(1.5).F32(-2.25)

	r := NewReader(w.Bytes())
	if v, err := r.U8(); err != nil || v != 0xAB {
		t.Fatalf("U8 = %#x, %v", v, err)
	}
	if err := r.Skip(1); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if v, err := r.U16(); err != nil || v != 0x1234 {
		t.Fatalf("U16 = %#x, %v", v, err)
	}
	if v, err := r.U32(); err != nil || v != 0xDEADBEEF {
		t.Fatalf("U32 = %#x, %v", v, err)
	}
	fs := make([]float32, 2)
	if err := r.F32s(fs); err != nil {
		t.Fatalf("F32s: %v", err)
	}
	if fs[0] != 1.5 || fs[1] != -2.25 {
		t.Errorf("F32s = %v, want [1.5 -2.25]", fs)
	}
	if !r.Done() {
		t.Errorf("expected reader to be done, remaining %d", r.Remaining())
	}
}

func TestReader_BigEndianLayout(t *testing.T) {
	r := NewReader([]byte{0x3F, 0x80, 0x00, 0x00})
	v, err := r.F32()
	if err != nil {
		t.Fatal(err)
	}
	if v != 1.0 {
		t.Errorf("F32 = %v, want 1.0", v)
	}
}

func TestReader_ShortBuffer(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	if _, err := r.U32(); !errors.Is(err, ErrShortBuffer) {
		t.Fatalf("U32 on 3 bytes: err = %v, want ErrShortBuffer", err)
	}
	if r.Pos() != 0 {
		t.Errorf("failed read moved cursor to %d", r.Pos())
	}
	fs := make([]float32, 1)
	if err := r.F32s(fs); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("F32s: err = %v, want ErrShortBuffer", err)
	}
	if _, err := r.Bytes(-1); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("Bytes(-1): err = %v, want ErrShortBuffer", err)
	}
}

func TestReader_PaddedBytes(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{"empty", ""},
		{"one", "a"},
		{"three", "abc"},
		{"aligned", "abcd"},
		{"five", "_root"},
		{"cursor", "_cursor_"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriter(16)
			w.Padded([]byte(tt.id)).U32(0xCAFEF00D)
			if w.Len() != PaddedAdvance(len(tt.id))+4 {
				t.Fatalf("writer length %d, want %d", w.Len(), PaddedAdvance(len(tt.id))+4)
			}

			r := NewReader(w.Bytes())
			got, err := r.PaddedBytes(len(tt.id))
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tt.id {
				t.Errorf("PaddedBytes = %q, want %q", got, tt.id)
			}
			tail, err := r.U32()
			if err != nil || tail != 0xCAFEF00D {
				t.Errorf("cursor desynced after padding: %#x, %v", tail, err)
			}
		})
	}
}

func TestReader_PaddedBytesMissingPadding(t *testing.T) {
	r := NewReader([]byte("abc"))
	if _, err := r.PaddedBytes(3); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("err = %v, want ErrShortBuffer", err)
	}
}

func TestReader_Rest(t *testing.T) {
	r := NewReader([]byte{0, 0, 0, 1, 9, 8, 7})
	if _, err := r.U32(); err != nil {
		t.Fatal(err)
	}
	rest := r.Rest()
	if len(rest) != 3 || rest[0] != 9 {
		t.Errorf("Rest = %v", rest)
	}
	if !r.Done() {
		t.Error("reader not done after Rest")
	}
}

func TestWriter_F32Bits(t *testing.T) {
	w := NewWriter(4)
	w.F32(float32(math.Inf(1)))
	b := w.Bytes()
	if b[0] != 0x7F || b[1] != 0x80 || b[2] != 0 || b[3] != 0 {
		t.Errorf("F32(+Inf) = % x", b)
	}
	w.Reset()
	if w.Len() != 0 {
		t.Errorf("Len after Reset = %d", w.Len())
	}
}
