package driver

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

// MaxFrameSize bounds the length prefix of one inbound frame.
const MaxFrameSize = 256 << 20

// DefaultPollInterval is how long the loop waits for input before it polls
// the host surface.
const DefaultPollInterval = 32 * time.Millisecond

// ReadFrame reads one length-prefixed frame. A clean end of stream before
// the prefix returns io.EOF; a stream that ends inside a frame returns
// ErrTruncated.
func ReadFrame(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: length prefix", ErrTruncated)
		}
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}
	buf := make([]byte, n)
	if got, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: got %d of %d bytes", ErrTruncated, got, n)
		}
		return nil, err
	}
	return buf, nil
}

// readFrames feeds frames from r into out until r fails or ctx ends.
// The returned error is never nil.
func readFrames(ctx context.Context, r io.Reader, out chan<- []byte) error {
	for {
		frame, err := ReadFrame(r)
		if err != nil {
			return err
		}
		select {
		case out <- frame:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
