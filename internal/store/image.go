package store

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // file-format image decoder
	_ "image/jpeg" // file-format image decoder
	_ "image/png"  // file-format image decoder

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // file-format image decoder
	_ "golang.org/x/image/tiff" // file-format image decoder
	_ "golang.org/x/image/webp" // file-format image decoder
)

// ImageFormat identifies the pixel layout of an uploaded blob.
type ImageFormat uint32

const (
	// FormatFile is a compressed image file (PNG, JPEG, GIF, BMP, TIFF, WebP).
	FormatFile ImageFormat = 0
	// FormatGray is one byte of luminance per pixel.
	FormatGray ImageFormat = 1
	// FormatGrayAlpha is luminance plus alpha, two bytes per pixel.
	FormatGrayAlpha ImageFormat = 2
	// FormatRGB is three bytes per pixel.
	FormatRGB ImageFormat = 3
	// FormatRGBA is four bytes per pixel, non-premultiplied.
	FormatRGBA ImageFormat = 4
)

// String returns the format name.
func (f ImageFormat) String() string {
	switch f {
	case FormatFile:
		return "file"
	case FormatGray:
		return "gray"
	case FormatGrayAlpha:
		return "gray_alpha"
	case FormatRGB:
		return "rgb"
	case FormatRGBA:
		return "rgba"
	default:
		return fmt.Sprintf("ImageFormat(%d)", uint32(f))
	}
}

// channels returns bytes per pixel for the raw formats, 0 for FormatFile.
func (f ImageFormat) channels() int {
	switch f {
	case FormatGray:
		return 1
	case FormatGrayAlpha:
		return 2
	case FormatRGB:
		return 3
	case FormatRGBA:
		return 4
	default:
		return 0
	}
}

var (
	// ErrSizeMismatch is returned when an upload would change the
	// dimensions of an existing image, or a decoded file disagrees with
	// the declared dimensions.
	ErrSizeMismatch = errors.New("store: image size mismatch")
	// ErrBlobSize is returned when a raw pixel blob is shorter than
	// width*height*channels.
	ErrBlobSize = errors.New("store: pixel blob too short")
	// ErrUnknownFormat is returned for an unrecognized format tag.
	ErrUnknownFormat = errors.New("store: unknown image format")
	// ErrEmptyImage is returned for zero-sized images.
	ErrEmptyImage = errors.New("store: empty image")
	// ErrImageTooLarge is returned when either edge exceeds MaxImageEdge or
	// the pixel count exceeds MaxImagePixels.
	ErrImageTooLarge = errors.New("store: image too large")
)

const (
	// MaxImageEdge is the largest accepted width or height.
	MaxImageEdge = 1 << 15
	// MaxImagePixels caps width*height, 256 MiB of NRGBA.
	MaxImagePixels = 1 << 26
)

// checkSize validates declared dimensions before anything is allocated.
func checkSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrEmptyImage, width, height)
	}
	if width > MaxImageEdge || height > MaxImageEdge ||
		uint64(width)*uint64(height) > MaxImagePixels {
		return fmt.Errorf("%w: %dx%d", ErrImageTooLarge, width, height)
	}
	return nil
}

// Image is a decoded image, always held as non-premultiplied RGBA.
// Generation increases every time the pixels under the same identifier
// are replaced, so backends can invalidate cached textures.
type Image struct {
	ID         string
	Width      int
	Height     int
	Format     ImageFormat
	Pixels     *image.NRGBA
	Generation uint64
}

// ImageStore maps identifiers to decoded images.
type ImageStore struct {
	*Store[Image]
}

// NewImageStore returns an empty ImageStore.
func NewImageStore() *ImageStore {
	return &ImageStore{Store: New[Image]()}
}

// Put decodes blob and stores it under id. If id already exists with the
// same dimensions the pixels are replaced and the generation is bumped;
// differing dimensions are rejected with ErrSizeMismatch.
func (s *ImageStore) Put(id []byte, width, height int, format ImageFormat, blob []byte) (*Image, error) {
	if err := checkSize(width, height); err != nil {
		return nil, fmt.Errorf("image %q: %w", id, err)
	}
	key := string(id)

	// Decode outside the lock; conversion can be slow for large files.
	pixels, err := DecodePixels(width, height, format, blob)
	if err != nil {
		return nil, fmt.Errorf("image %q: %w", key, err)
	}

	return s.swap(key, func(old *Image) (*Image, error) {
		img := &Image{
			ID:     key,
			Width:  width,
			Height: height,
			Format: format,
			Pixels: pixels,
		}
		if old != nil {
			if old.Width != width || old.Height != height {
				return nil, fmt.Errorf("image %q: %w: have %dx%d, got %dx%d",
					key, ErrSizeMismatch, old.Width, old.Height, width, height)
			}
			img.Generation = old.Generation + 1
		}
		return img, nil
	})
}

// DecodePixels converts a wire blob into an NRGBA image of the given size.
func DecodePixels(width, height int, format ImageFormat, blob []byte) (*image.NRGBA, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	if format == FormatFile {
		return decodeFile(width, height, blob)
	}

	ch := format.channels()
	if ch == 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, uint32(format))
	}
	n := width * height
	if len(blob) < n*ch {
		return nil, fmt.Errorf("%w: %s %dx%d needs %d bytes, got %d",
			ErrBlobSize, format, width, height, n*ch, len(blob))
	}

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	pix := dst.Pix
	switch format {
	case FormatGray:
		for i := 0; i < n; i++ {
			g := blob[i]
			pix[i*4], pix[i*4+1], pix[i*4+2], pix[i*4+3] = g, g, g, 0xff
		}
	case FormatGrayAlpha:
		for i := 0; i < n; i++ {
			g, a := blob[i*2], blob[i*2+1]
			pix[i*4], pix[i*4+1], pix[i*4+2], pix[i*4+3] = g, g, g, a
		}
	case FormatRGB:
		for i := 0; i < n; i++ {
			pix[i*4], pix[i*4+1], pix[i*4+2], pix[i*4+3] = blob[i*3], blob[i*3+1], blob[i*3+2], 0xff
		}
	case FormatRGBA:
		copy(pix, blob[:n*4])
	}
	return dst, nil
}

func decodeFile(width, height int, blob []byte) (*image.NRGBA, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("decode file image: %w", err)
	}
	if uint64(cfg.Width)*uint64(cfg.Height) > MaxImagePixels {
		return nil, fmt.Errorf("%w: file is %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	img, err := imaging.Decode(bytes.NewReader(blob), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode file image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		return nil, fmt.Errorf("%w: declared %dx%d, decoded %dx%d",
			ErrSizeMismatch, width, height, b.Dx(), b.Dy())
	}
	return imaging.Clone(img), nil
}
