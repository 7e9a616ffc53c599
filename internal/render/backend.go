// Package render defines the drawing backend contract that scene scripts are
// replayed against, and two realizations of it: GPU draws through ebiten's
// triangle pipeline into an offscreen image, Software rasterises into an
// *image.RGBA with golang.org/x/image/vector.
//
// Coordinates passed to a backend are in user space. Each backend keeps one
// State bundle (transform, paints, stroke style, text style, scissor) and a
// stack of saved copies.
package render

import (
	"fmt"
	"image/color"
)

// Backend is the set of primitives the script interpreter drives.
//
// Shape methods lay the shape out at the user-space origin and begin a fresh
// path. When fill and stroke are both set the shape is filled first and the
// same path is then stroked.
type Backend interface {
	BeginFrame(width, height int, clear Color) error
	EndFrame() error
	// Err returns the first error raised since BeginFrame.
	Err() error

	DrawLine(x0, y0, x1, y1 float64, stroke bool)
	DrawTriangle(x0, y0, x1, y1, x2, y2 float64, fill, stroke bool)
	DrawQuad(x0, y0, x1, y1, x2, y2, x3, y3 float64, fill, stroke bool)
	DrawRect(w, h float64, fill, stroke bool)
	DrawRRect(w, h, r float64, fill, stroke bool)
	DrawRRectV(w, h, ul, ur, lr, ll float64, fill, stroke bool)
	DrawArc(radius, radians float64, fill, stroke bool)
	DrawSector(radius, radians float64, fill, stroke bool)
	DrawCircle(radius float64, fill, stroke bool)
	DrawEllipse(rx, ry float64, fill, stroke bool)
	DrawText(text []byte)
	DrawSprites(imageID string, sprites []Sprite)

	BeginPath()
	ClosePath()
	FillPath()
	StrokePath()
	MoveTo(x, y float64)
	LineTo(x, y float64)
	ArcTo(x1, y1, x2, y2, radius float64)
	BezierTo(c1x, c1y, c2x, c2y, x, y float64)
	QuadraticTo(cx, cy, x, y float64)
	Arc(cx, cy, r, a0, a1 float64, dir Winding)

	PushState()
	PopState()
	Depth() int
	Scissor(w, h float64)

	Transform(m Matrix)
	Scale(x, y float64)
	Rotate(radians float64)
	Translate(x, y float64)

	FillColor(c Color)
	FillLinear(sx, sy, ex, ey float64, c0, c1 Color)
	FillRadial(cx, cy, inner, outer float64, c0, c1 Color)
	FillImage(id string)
	FillStream(id string)
	StrokeColor(c Color)
	StrokeLinear(sx, sy, ex, ey float64, c0, c1 Color)
	StrokeRadial(cx, cy, inner, outer float64, c0, c1 Color)
	StrokeImage(id string)
	StrokeStream(id string)

	StrokeWidth(w float64)
	LineCap(c LineCap)
	LineJoin(j LineJoin)
	MiterLimit(limit float64)
	Font(id string)
	FontSize(size float64)
	TextAlign(a TextAlign)
	TextBase(b TextBase)
}

// Antialiaser is implemented by backends whose edge antialiasing can be
// toggled at runtime.
type Antialiaser interface {
	SetAntialias(enabled bool)
}

// Color is a non-premultiplied RGBA colour.
type Color struct {
	R, G, B, A uint8
}

// Black is the default fill and stroke colour.
var Black = Color{A: 0xff}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}.RGBA()
}

// floats returns the straight-alpha components in [0,1].
func (c Color) floats() (r, g, b, a float32) {
	return float32(c.R) / 0xff, float32(c.G) / 0xff, float32(c.B) / 0xff, float32(c.A) / 0xff
}

// lerpColor interpolates two colours in non-premultiplied space.
func lerpColor(c0, c1 Color, t float64) Color {
	if t <= 0 {
		return c0
	}
	if t >= 1 {
		return c1
	}
	mix := func(a, b uint8) uint8 {
		return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
	}
	return Color{R: mix(c0.R, c1.R), G: mix(c0.G, c1.G), B: mix(c0.B, c1.B), A: mix(c0.A, c1.A)}
}

// LineCap is the style of stroke end points.
type LineCap uint16

const (
	CapButt LineCap = iota
	CapRound
	CapSquare
)

func (c LineCap) String() string {
	switch c {
	case CapButt:
		return "butt"
	case CapRound:
		return "round"
	case CapSquare:
		return "square"
	default:
		return fmt.Sprintf("LineCap(%d)", uint16(c))
	}
}

// LineJoin is the style of stroke corners.
type LineJoin uint16

const (
	JoinBevel LineJoin = iota
	JoinRound
	JoinMiter
)

func (j LineJoin) String() string {
	switch j {
	case JoinBevel:
		return "bevel"
	case JoinRound:
		return "round"
	case JoinMiter:
		return "miter"
	default:
		return fmt.Sprintf("LineJoin(%d)", uint16(j))
	}
}

// TextAlign is the horizontal anchor of drawn text.
type TextAlign uint16

const (
	AlignLeft TextAlign = iota
	AlignCenter
	AlignRight
)

// TextBase is the vertical anchor of drawn text.
type TextBase uint16

const (
	BaseTop TextBase = iota
	BaseMiddle
	BaseAlphabetic
	BaseBottom
)

// Winding is the sweep direction of a path arc.
type Winding uint32

const (
	// CCW sweeps with decreasing angle.
	CCW Winding = 1
	// CW sweeps with increasing angle.
	CW Winding = 2
)

// Sprite copies the source rectangle (SX, SY, SW, SH) of an image into the
// destination rectangle (DX, DY, DW, DH) in user space.
type Sprite struct {
	SX, SY, SW, SH float64
	DX, DY, DW, DH float64
}

// MissKind classifies an asset lookup failure.
type MissKind int

const (
	MissImage MissKind = iota
	MissStream
	MissFont
)

func (k MissKind) String() string {
	switch k {
	case MissImage:
		return "image"
	case MissStream:
		return "stream"
	case MissFont:
		return "font"
	default:
		return fmt.Sprintf("MissKind(%d)", int(k))
	}
}

// MissFunc is called when a script references an asset that is not loaded.
type MissFunc func(kind MissKind, id string)
