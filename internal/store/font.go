package store

import (
	"errors"
	"fmt"

	"golang.org/x/image/font/opentype"
)

// ErrBadFont is returned for data that does not parse as a font.
var ErrBadFont = errors.New("store: invalid font data")

// Font is raw TrueType/OpenType data. Backends parse and cache their own
// faces keyed by identifier and generation.
type Font struct {
	ID         string
	Data       []byte
	Generation uint64
}

// FontStore maps identifiers to font data.
type FontStore struct {
	*Store[Font]
}

// NewFontStore returns an empty FontStore.
func NewFontStore() *FontStore {
	return &FontStore{Store: New[Font]()}
}

// Put validates data as a TrueType/OpenType font and stores a copy
// under id. Replacing an existing font bumps its generation.
func (s *FontStore) Put(id, data []byte) (*Font, error) {
	key := string(id)
	if _, err := opentype.Parse(data); err != nil {
		return nil, fmt.Errorf("font %q: %w: %w", key, ErrBadFont, err)
	}
	owned := append([]byte(nil), data...)
	return s.swap(key, func(old *Font) (*Font, error) {
		f := &Font{ID: key, Data: owned}
		if old != nil {
			f.Generation = old.Generation + 1
		}
		return f, nil
	})
}

// Assets bundles the stores a backend resolves identifiers against.
type Assets struct {
	Images  *ImageStore
	Streams *ImageStore
	Fonts   *FontStore
}

// NewAssets returns empty image, stream and font stores.
func NewAssets() *Assets {
	return &Assets{
		Images:  NewImageStore(),
		Streams: NewImageStore(),
		Fonts:   NewFontStore(),
	}
}

// Reset drops every image, stream and font.
func (a *Assets) Reset() {
	a.Images.Reset()
	a.Streams.Reset()
	a.Fonts.Reset()
}
