package render

import (
	"bytes"
	"fmt"
	"sync"

	etext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"

	"github.com/opd-ai/go-scenic/internal/store"
)

// defaultOutlines is the face used when a script draws text before
// selecting a font.
var defaultOutlines = sync.OnceValue(func() *sfnt.Font {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		// This should never fail with the embedded font
		panic("failed to load embedded font: " + err.Error())
	}
	return f
})

var defaultSource = sync.OnceValue(func() *etext.GoTextFaceSource {
	src, err := etext.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		panic("failed to load embedded font: " + err.Error())
	}
	return src
})

func parseSource(data []byte) (*etext.GoTextFaceSource, error) {
	return etext.NewGoTextFaceSource(bytes.NewReader(data))
}

type faceEntry[T any] struct {
	gen  uint64
	face T
}

// faceCache holds one parsed face per font id. An entry is re-parsed when
// the stored font's generation moves on. It is only used from the render
// goroutine.
type faceCache[T any] struct {
	parse    func([]byte) (T, error)
	fallback func() T
	entries  map[string]faceEntry[T]
}

func newFaceCache[T any](parse func([]byte) (T, error), fallback func() T) faceCache[T] {
	return faceCache[T]{parse: parse, fallback: fallback, entries: make(map[string]faceEntry[T])}
}

// face returns the parsed face for f, or the fallback face when f is nil.
func (c *faceCache[T]) face(f *store.Font) (T, error) {
	if f == nil {
		return c.fallback(), nil
	}
	if e, ok := c.entries[f.ID]; ok && e.gen == f.Generation {
		return e.face, nil
	}
	v, err := c.parse(f.Data)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("font %q: %w", f.ID, err)
	}
	c.entries[f.ID] = faceEntry[T]{gen: f.Generation, face: v}
	return v, nil
}

// prune drops cached faces whose id is no longer in fonts.
func (c *faceCache[T]) prune(fonts *store.FontStore) {
	for id := range c.entries {
		if _, ok := fonts.Get(id); !ok {
			delete(c.entries, id)
		}
	}
}

func (c *faceCache[T]) len() int {
	return len(c.entries)
}
