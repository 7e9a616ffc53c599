// Package host provides the surfaces a driver presents frames on: an ebiten
// window around the GPU backend, and X11 and headless presenters for the
// software backend.
package host

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/opd-ai/go-scenic/internal/render"
)

// Imager is implemented by backends that render into host memory.
type Imager interface {
	Image() *image.RGBA
}

// Headless is a fixed-size presenter with no display. When Dir is set every
// presented frame is written there as frame-NNNNNN.png.
type Headless struct {
	mu     sync.Mutex
	width  int
	height int
	dir    string
	frames int
	last   *image.RGBA
}

// NewHeadless returns a presenter of the given size. dir may be empty.
func NewHeadless(width, height int, dir string) (*Headless, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("host: invalid surface size %dx%d", width, height)
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("host: snapshot dir: %w", err)
		}
	}
	return &Headless{width: width, height: height, dir: dir}, nil
}

// Size returns the configured surface size.
func (h *Headless) Size() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.width, h.height
}

// Resize changes the size reported from the next poll on.
func (h *Headless) Resize(width, height int) {
	h.mu.Lock()
	h.width, h.height = width, height
	h.mu.Unlock()
}

// Frames returns how many frames were presented.
func (h *Headless) Frames() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frames
}

// Last returns the host copy of the last presented frame, or nil. It is
// overwritten by the next Present.
func (h *Headless) Last() *image.RGBA {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

// Present records the frame and writes a snapshot when a directory is set.
// Backends without host memory are counted but not captured.
func (h *Headless) Present(b render.Backend) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frames++

	im, ok := b.(Imager)
	if !ok || im.Image() == nil {
		return nil
	}
	src := im.Image()
	if h.last == nil || h.last.Bounds() != src.Bounds() {
		h.last = image.NewRGBA(src.Bounds())
	}
	copy(h.last.Pix, src.Pix)

	if h.dir == "" {
		return nil
	}
	path := filepath.Join(h.dir, fmt.Sprintf("frame-%06d.png", h.frames))
	if err := imaging.Save(h.last, path); err != nil {
		return fmt.Errorf("host: snapshot %s: %w", path, err)
	}
	return nil
}
