package render

import (
	"image"
	"image/color"
	"math"

	"github.com/opd-ai/go-scenic/internal/store"
)

// PaintKind selects how a Paint produces colour.
type PaintKind int

const (
	PaintSolid PaintKind = iota
	PaintLinear
	PaintRadial
	PaintImage
)

// Paint is a fill or stroke source. Gradients and image patterns are locked
// to the user space in effect when they were selected: Space maps pattern
// coordinates to device coordinates.
type Paint struct {
	Kind  PaintKind
	Color Color

	// Linear: (X0,Y0) to (X1,Y1). Radial: centre (X0,Y0), radii R0 and R1.
	X0, Y0, X1, Y1 float64
	R0, R1         float64
	C0, C1         Color

	// Image patterns cover (0,0,w,h) in pattern space and repeat. Stream
	// marks an image from the stream table.
	Image  *store.Image
	Stream bool

	Space Matrix
}

// SolidPaint returns a uniform paint.
func SolidPaint(c Color) Paint {
	return Paint{Kind: PaintSolid, Color: c, Space: Identity()}
}

// transparent reports whether the paint is a fully transparent solid,
// which draws nothing.
func (p *Paint) transparent() bool {
	return p.Kind == PaintSolid && p.Color.A == 0
}

// At returns the paint colour at a device-space point. inv must be the
// inverse of p.Space.
func (p *Paint) At(inv Matrix, x, y float64) Color {
	if p.Kind == PaintSolid {
		return p.Color
	}
	px, py := inv.Apply(x, y)
	switch p.Kind {
	case PaintLinear:
		return lerpColor(p.C0, p.C1, linearT(p.X0, p.Y0, p.X1, p.Y1, px, py))
	case PaintRadial:
		return lerpColor(p.C0, p.C1, radialT(p.X0, p.Y0, p.R0, p.R1, px, py))
	case PaintImage:
		if p.Image == nil {
			return Color{}
		}
		return sampleRepeat(p.Image.Pixels, px, py)
	}
	return p.Color
}

// linearT projects (x,y) onto the gradient axis. Cairo's default PAD extend
// clamps outside the axis.
func linearT(x0, y0, x1, y1, x, y float64) float64 {
	dx, dy := x1-x0, y1-y0
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return 0
	}
	return ((x-x0)*dx + (y-y0)*dy) / l2
}

// radialT returns the position between two concentric circles.
func radialT(cx, cy, r0, r1, x, y float64) float64 {
	d := math.Hypot(x-cx, y-cy)
	if r1 == r0 {
		if d <= r0 {
			return 0
		}
		return 1
	}
	return (d - r0) / (r1 - r0)
}

func sampleRepeat(img *image.NRGBA, x, y float64) Color {
	if img == nil {
		return Color{}
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return Color{}
	}
	ix := int(math.Floor(x)) % w
	iy := int(math.Floor(y)) % h
	if ix < 0 {
		ix += w
	}
	if iy < 0 {
		iy += h
	}
	c := img.NRGBAAt(b.Min.X+ix, b.Min.Y+iy)
	return Color{R: c.R, G: c.G, B: c.B, A: c.A}
}

// paintSource adapts a Paint to image.Image so it can be used directly as
// the source of a draw.Drawer; each pixel is sampled at its centre.
type paintSource struct {
	p   *Paint
	inv Matrix
}

func newPaintSource(p *Paint) image.Image {
	if p.Kind == PaintSolid {
		return image.NewUniform(p.Color)
	}
	inv, ok := p.Space.Invert()
	if !ok {
		return image.Transparent
	}
	return &paintSource{p: p, inv: inv}
}

func (s *paintSource) ColorModel() color.Model { return color.NRGBAModel }

func (s *paintSource) Bounds() image.Rectangle {
	return image.Rect(-1e9, -1e9, 1e9, 1e9)
}

func (s *paintSource) At(x, y int) color.Color {
	return s.p.At(s.inv, float64(x)+0.5, float64(y)+0.5)
}
