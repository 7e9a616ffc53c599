package script

import (
	"github.com/opd-ai/go-scenic/internal/render"
	"github.com/opd-ai/go-scenic/internal/wire"
)

// Builder encodes opcodes into a script body. Methods chain:
//
//	body := script.NewBuilder().
//		FillColor(render.Color{R: 255, A: 255}).
//		DrawRect(100, 50, script.FlagFill).
//		Bytes()
type Builder struct {
	w *wire.Writer
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{w: wire.NewWriter(256)}
}

// Bytes returns the encoded script. The slice aliases the builder's buffer.
func (b *Builder) Bytes() []byte { return b.w.Bytes() }

// Len returns the encoded size in bytes.
func (b *Builder) Len() int { return b.w.Len() }

// Reset discards everything encoded so far.
func (b *Builder) Reset() *Builder {
	b.w.Reset()
	return b
}

// Op writes a bare opcode header. It is exported so callers can emit tags
// the Builder has no helper for.
func (b *Builder) Op(op Op, param uint16) *Builder {
	b.w.U16(uint16(op)).U16(param)
	return b
}

func (b *Builder) floats(v ...float64) *Builder {
	for _, f := range v {
		b.w.F32(float32(f))
	}
	return b
}

func (b *Builder) color(c render.Color) *Builder {
	b.w.U8(c.R).U8(c.G).U8(c.B).U8(c.A)
	return b
}

func (b *Builder) named(op Op, id string) *Builder {
	b.Op(op, uint16(len(id)))
	b.w.Padded([]byte(id))
	return b
}

// Shapes

func (b *Builder) DrawLine(x0, y0, x1, y1 float64, flags uint16) *Builder {
	return b.Op(OpDrawLine, flags).floats(x0, y0, x1, y1)
}

func (b *Builder) DrawTriangle(x0, y0, x1, y1, x2, y2 float64, flags uint16) *Builder {
	return b.Op(OpDrawTriangle, flags).floats(x0, y0, x1, y1, x2, y2)
}

func (b *Builder) DrawQuad(x0, y0, x1, y1, x2, y2, x3, y3 float64, flags uint16) *Builder {
	return b.Op(OpDrawQuad, flags).floats(x0, y0, x1, y1, x2, y2, x3, y3)
}

func (b *Builder) DrawRect(w, h float64, flags uint16) *Builder {
	return b.Op(OpDrawRect, flags).floats(w, h)
}

func (b *Builder) DrawRRect(w, h, r float64, flags uint16) *Builder {
	return b.Op(OpDrawRRect, flags).floats(w, h, r)
}

func (b *Builder) DrawRRectV(w, h, ul, ur, lr, ll float64, flags uint16) *Builder {
	return b.Op(OpDrawRRectV, flags).floats(w, h, ul, ur, lr, ll)
}

func (b *Builder) DrawArc(radius, radians float64, flags uint16) *Builder {
	return b.Op(OpDrawArc, flags).floats(radius, radians)
}

func (b *Builder) DrawSector(radius, radians float64, flags uint16) *Builder {
	return b.Op(OpDrawSector, flags).floats(radius, radians)
}

func (b *Builder) DrawCircle(radius float64, flags uint16) *Builder {
	return b.Op(OpDrawCircle, flags).floats(radius)
}

func (b *Builder) DrawEllipse(rx, ry float64, flags uint16) *Builder {
	return b.Op(OpDrawEllipse, flags).floats(rx, ry)
}

func (b *Builder) DrawText(text string) *Builder {
	return b.named(OpDrawText, text)
}

// DrawSprites writes a sprite batch drawn from the image id.
func (b *Builder) DrawSprites(id string, sprites ...render.Sprite) *Builder {
	b.Op(OpDrawSprites, uint16(len(id)))
	b.w.U32(uint32(len(sprites)))
	b.w.Padded([]byte(id))
	for _, s := range sprites {
		b.floats(s.SX, s.SY, s.SW, s.SH, s.DX, s.DY, s.DW, s.DH)
	}
	return b
}

// DrawScript renders the script stored under id at the current state.
func (b *Builder) DrawScript(id string) *Builder {
	return b.named(OpDrawScript, id)
}

// Paths

func (b *Builder) BeginPath() *Builder  { return b.Op(OpBeginPath, 0) }
func (b *Builder) ClosePath() *Builder  { return b.Op(OpClosePath, 0) }
func (b *Builder) FillPath() *Builder   { return b.Op(OpFillPath, 0) }
func (b *Builder) StrokePath() *Builder { return b.Op(OpStrokePath, 0) }

func (b *Builder) MoveTo(x, y float64) *Builder {
	return b.Op(OpMoveTo, 0).floats(x, y)
}

func (b *Builder) LineTo(x, y float64) *Builder {
	return b.Op(OpLineTo, 0).floats(x, y)
}

func (b *Builder) ArcTo(x1, y1, x2, y2, radius float64) *Builder {
	return b.Op(OpArcTo, 0).floats(x1, y1, x2, y2, radius)
}

func (b *Builder) BezierTo(c1x, c1y, c2x, c2y, x, y float64) *Builder {
	return b.Op(OpBezierTo, 0).floats(c1x, c1y, c2x, c2y, x, y)
}

func (b *Builder) QuadraticTo(cx, cy, x, y float64) *Builder {
	return b.Op(OpQuadraticTo, 0).floats(cx, cy, x, y)
}

func (b *Builder) Arc(cx, cy, r, a0, a1 float64, dir render.Winding) *Builder {
	b.Op(OpArc, 0).floats(cx, cy, r, a0, a1)
	b.w.U32(uint32(dir))
	return b
}

// State and transform

func (b *Builder) PushState() *Builder    { return b.Op(OpPushState, 0) }
func (b *Builder) PopState() *Builder     { return b.Op(OpPopState, 0) }
func (b *Builder) PopPushState() *Builder { return b.Op(OpPopPushState, 0) }

func (b *Builder) Scissor(w, h float64) *Builder {
	return b.Op(OpScissor, 0).floats(w, h)
}

func (b *Builder) Transform(m render.Matrix) *Builder {
	v := m.Wire()
	return b.Op(OpTransform, 0).floats(v[:]...)
}

func (b *Builder) Scale(x, y float64) *Builder {
	return b.Op(OpScale, 0).floats(x, y)
}

func (b *Builder) Rotate(radians float64) *Builder {
	return b.Op(OpRotate, 0).floats(radians)
}

func (b *Builder) Translate(x, y float64) *Builder {
	return b.Op(OpTranslate, 0).floats(x, y)
}

// Paint

func (b *Builder) FillColor(c render.Color) *Builder {
	return b.Op(OpFillColor, 0).color(c)
}

func (b *Builder) FillLinear(sx, sy, ex, ey float64, c0, c1 render.Color) *Builder {
	return b.Op(OpFillLinear, 0).floats(sx, sy, ex, ey).color(c0).color(c1)
}

func (b *Builder) FillRadial(cx, cy, inner, outer float64, c0, c1 render.Color) *Builder {
	return b.Op(OpFillRadial, 0).floats(cx, cy, inner, outer).color(c0).color(c1)
}

func (b *Builder) FillImage(id string) *Builder  { return b.named(OpFillImage, id) }
func (b *Builder) FillStream(id string) *Builder { return b.named(OpFillStream, id) }

func (b *Builder) StrokeColor(c render.Color) *Builder {
	return b.Op(OpStrokeColor, 0).color(c)
}

func (b *Builder) StrokeLinear(sx, sy, ex, ey float64, c0, c1 render.Color) *Builder {
	return b.Op(OpStrokeLinear, 0).floats(sx, sy, ex, ey).color(c0).color(c1)
}

func (b *Builder) StrokeRadial(cx, cy, inner, outer float64, c0, c1 render.Color) *Builder {
	return b.Op(OpStrokeRadial, 0).floats(cx, cy, inner, outer).color(c0).color(c1)
}

func (b *Builder) StrokeImage(id string) *Builder  { return b.named(OpStrokeImage, id) }
func (b *Builder) StrokeStream(id string) *Builder { return b.named(OpStrokeStream, id) }

// Style. Width and font size travel in quarter units in the inline parameter.

func (b *Builder) StrokeWidth(w float64) *Builder {
	return b.Op(OpStrokeWidth, quarters(w))
}

func (b *Builder) LineCap(c render.LineCap) *Builder     { return b.Op(OpLineCap, uint16(c)) }
func (b *Builder) LineJoin(j render.LineJoin) *Builder   { return b.Op(OpLineJoin, uint16(j)) }
func (b *Builder) MiterLimit(limit uint16) *Builder      { return b.Op(OpMiterLimit, limit) }
func (b *Builder) Font(id string) *Builder               { return b.named(OpFont, id) }
func (b *Builder) FontSize(size float64) *Builder        { return b.Op(OpFontSize, quarters(size)) }
func (b *Builder) TextAlign(a render.TextAlign) *Builder { return b.Op(OpTextAlign, uint16(a)) }
func (b *Builder) TextBase(t render.TextBase) *Builder   { return b.Op(OpTextBase, uint16(t)) }

func quarters(v float64) uint16 {
	q := v*4 + 0.5
	switch {
	case q <= 0:
		return 0
	case q >= 0xffff:
		return 0xffff
	}
	return uint16(q)
}
