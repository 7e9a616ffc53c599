//go:build linux

package host

import (
	"bytes"
	"testing"

	"github.com/jezek/xgb/xproto"

	"github.com/opd-ai/go-scenic/internal/driver"
)

func TestToBGRX(t *testing.T) {
	// 2x1 image with a padded source stride.
	src := []byte{
		1, 2, 3, 4, 5, 6, 7, 8, 0xee, 0xee, 0xee, 0xee,
	}
	dst := make([]byte, 8)
	toBGRX(dst, src, 12, 2, 1)
	if want := []byte{3, 2, 1, 0xff, 7, 6, 5, 0xff}; !bytes.Equal(dst, want) {
		t.Errorf("got % x, want % x", dst, want)
	}
}

func TestX11Button(t *testing.T) {
	tests := []struct {
		in   xproto.Button
		want uint32
	}{
		{1, 0},
		{2, 2},
		{3, 1},
		{8, 7},
	}
	for _, tt := range tests {
		if got := x11Button(tt.in); got != tt.want {
			t.Errorf("x11Button(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestX11Mods(t *testing.T) {
	state := uint16(xproto.ModMaskShift | xproto.ModMask1 | xproto.ModMask4)
	if got, want := x11Mods(state), driver.ModShift|driver.ModAlt|driver.ModSuper; got != want {
		t.Errorf("x11Mods = %#x, want %#x", got, want)
	}
}

func TestX11_HandleEvents(t *testing.T) {
	x := &X11{events: make(chan driver.Event, 8), protocols: 10, delete: 11, width: 1, height: 1}
	x.handle(xproto.ConfigureNotifyEvent{Width: 300, Height: 200})
	x.handle(xproto.ButtonPressEvent{Detail: 5, EventX: 3, EventY: 4})
	x.handle(xproto.ButtonReleaseEvent{Detail: 5, EventX: 3, EventY: 4})
	x.handle(xproto.ButtonPressEvent{Detail: 1, EventX: 3, EventY: 4, State: xproto.ModMaskControl})
	x.handle(xproto.ClientMessageEvent{Format: 32, Type: 10,
		Data: xproto.ClientMessageDataUnionData32New([]uint32{11, 0, 0, 0, 0})})

	if x.width != 300 || x.height != 200 {
		t.Errorf("size = %dx%d, want 300x200", x.width, x.height)
	}
	want := []driver.Event{
		{Kind: driver.EventScroll, DY: -1, X: 3, Y: 4},
		{Kind: driver.EventMouseButton, Button: 0, Action: driver.ActionPress, Mods: driver.ModControl, X: 3, Y: 4},
		{Kind: driver.EventClose},
	}
	for i, w := range want {
		select {
		case got := <-x.events:
			if got != w {
				t.Errorf("event %d = %+v, want %+v", i, got, w)
			}
		default:
			t.Fatalf("missing event %d", i)
		}
	}
	if len(x.events) != 0 {
		t.Errorf("%d extra events", len(x.events))
	}
}

func TestX11_EmitDropsWhenFull(t *testing.T) {
	x := &X11{events: make(chan driver.Event, 1)}
	x.emit(driver.Event{Kind: driver.EventClose})
	x.emit(driver.Event{Kind: driver.EventClose})
	if len(x.events) != 1 {
		t.Errorf("queued %d, want 1", len(x.events))
	}
}
