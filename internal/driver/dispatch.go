package driver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/opd-ai/go-scenic/internal/render"
	"github.com/opd-ai/go-scenic/internal/store"
	"github.com/opd-ai/go-scenic/internal/wire"
)

// Dispatch executes one inbound frame. Malformed commands are logged and
// dropped; bytes a handler leaves unread are discarded with an error log.
// The only errors returned are ErrQuit, ErrCrash and upstream write
// failures from render.
func (d *Driver) Dispatch(msg []byte) error {
	r := wire.NewReader(msg)
	raw, err := r.U32()
	if err != nil {
		d.log.Error("command without opcode", "bytes", len(msg))
		return nil
	}
	cmd := Command(raw)
	if d.settings.Debug {
		d.log.Info("command", "cmd", cmd.String(), "bytes", len(msg))
	}

	var result error
	switch cmd {
	case CmdPutScript:
		err = d.putScript(r)
	case CmdDelScript:
		err = d.delScript(r)
	case CmdReset:
		d.scripts.Reset()
	case CmdGlobalTx:
		d.globalTx, err = readMatrix(r)
	case CmdCursorTx:
		d.cursorTx, err = readMatrix(r)
	case CmdRender:
		result = d.RenderFrame()
	case CmdUpdateCursor:
		err = d.updateCursor(r)
	case CmdClearColor:
		err = d.clearColor(r)
	case CmdQuit:
		result = ErrQuit
	case CmdPutFont:
		err = d.putFont(r)
	case CmdPutImage:
		err = d.putImage(r)
	case CmdCrash:
		d.log.Error("crash requested by host")
		return ErrCrash
	default:
		d.log.Error("unknown command", "cmd", cmd.String())
	}

	switch {
	case errors.Is(err, wire.ErrShortBuffer):
		d.log.Error("truncated command", "cmd", cmd.String(), "error", fmt.Errorf("%w: %w", ErrTruncated, err))
		return result
	case err != nil:
		d.log.Error("command failed", "cmd", cmd.String(), "error", err)
	}

	if n := r.Remaining(); n > 0 {
		d.log.Error("excess message bytes", "cmd", cmd.String(), "bytes", n)
		r.Rest()
	}
	return result
}

func readMatrix(r *wire.Reader) (render.Matrix, error) {
	var v [6]float32
	if err := r.F32s(v[:]); err != nil {
		return render.Matrix{}, err
	}
	return render.MatrixFromWire(float64(v[0]), float64(v[1]), float64(v[2]),
		float64(v[3]), float64(v[4]), float64(v[5])), nil
}

// readID reads a u32 length followed by that many unpadded bytes.
func readID(r *wire.Reader) ([]byte, error) {
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	if int64(n) > int64(r.Remaining()) {
		return nil, fmt.Errorf("%w: id of %d bytes", wire.ErrShortBuffer, n)
	}
	return r.Bytes(int(n))
}

func (d *Driver) putScript(r *wire.Reader) error {
	id, err := readID(r)
	if err != nil {
		return err
	}
	d.scripts.Put(id, r.Rest())
	return nil
}

func (d *Driver) delScript(r *wire.Reader) error {
	id, err := readID(r)
	if err != nil {
		return err
	}
	d.scripts.Delete(string(id))
	return nil
}

func (d *Driver) updateCursor(r *wire.Reader) error {
	show, err := r.U32()
	if err != nil {
		return err
	}
	var pos [2]float32
	if err := r.F32s(pos[:]); err != nil {
		return err
	}
	d.showCursor = show != 0
	d.cursorX, d.cursorY = float64(pos[0]), float64(pos[1])
	return nil
}

func (d *Driver) clearColor(r *wire.Reader) error {
	b, err := r.Bytes(4)
	if err != nil {
		return err
	}
	d.clear = render.Color{R: b[0], G: b[1], B: b[2], A: b[3]}
	return nil
}

func (d *Driver) putFont(r *wire.Reader) error {
	id, err := readID(r)
	if err != nil {
		return err
	}
	_, err = d.assets.Fonts.Put(id, r.Rest())
	return err
}

func (d *Driver) putImage(r *wire.Reader) error {
	var hdr [5]uint32
	for i := range hdr {
		v, err := r.U32()
		if err != nil {
			return err
		}
		hdr[i] = v
	}
	idLen, blobLen, width, height, format := hdr[0], hdr[1], hdr[2], hdr[3], hdr[4]
	if width > store.MaxImageEdge || height > store.MaxImageEdge {
		return fmt.Errorf("%w: %dx%d", store.ErrImageTooLarge, width, height)
	}
	if int64(idLen)+int64(blobLen) > int64(r.Remaining()) {
		return fmt.Errorf("%w: image id %d and blob %d bytes, have %d",
			wire.ErrShortBuffer, idLen, blobLen, r.Remaining())
	}
	id, err := r.Bytes(int(idLen))
	if err != nil {
		return err
	}
	blob, err := r.Bytes(int(blobLen))
	if err != nil {
		return err
	}

	images := d.assets.Images
	if rest, ok := strings.CutPrefix(string(id), StreamPrefix); ok {
		images = d.assets.Streams
		id = []byte(rest)
	}
	_, err = images.Put(id, int(width), int(height), store.ImageFormat(format), blob)
	return err
}
