package render

import (
	"bytes"
	"sync"

	"github.com/opd-ai/go-scenic/internal/store"
)

// device is the part of a backend that touches pixels. Everything else in
// the Backend contract is shared through canvas.
type device interface {
	fill(path *Path, paint *Paint, st *State)
	stroke(path *Path, paint *Paint, st *State)
	// text draws each line with its first baseline at the user-space origin
	// and the anchors in st applied. font is nil for the default face.
	text(font *store.Font, lines [][]byte, st *State)
}

// Options configures a backend.
type Options struct {
	Assets    *store.Assets
	Antialias bool
	// OnMiss, if set, is called for every unknown image, stream or font id.
	OnMiss MissFunc
}

// canvas implements the state, path and paint half of Backend on top of a
// device.
type canvas struct {
	assets *store.Assets
	onMiss MissFunc
	dev    device

	stack  stateStack
	path   Path
	sprite Path
	lines  [][]byte

	errMu sync.Mutex
	err   error
}

func (c *canvas) init(opts Options, dev device) {
	c.assets = opts.Assets
	if c.assets == nil {
		c.assets = store.NewAssets()
	}
	c.onMiss = opts.OnMiss
	c.dev = dev
	c.stack.reset(Identity())
}

func (c *canvas) begin() {
	c.stack.reset(Identity())
	c.path.Reset()
	c.errMu.Lock()
	c.err = nil
	c.errMu.Unlock()
}

// fail records err if it is the first error of the frame.
func (c *canvas) fail(err error) {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	if c.err == nil {
		c.err = err
	}
}

// Err returns the first error raised since BeginFrame.
func (c *canvas) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

func (c *canvas) miss(kind MissKind, id string) {
	if c.onMiss != nil {
		c.onMiss(kind, id)
	}
}

// State returns a copy of the current state bundle.
func (c *canvas) State() State {
	return c.stack.cur
}

func (c *canvas) builder() pathBuilder {
	return pathBuilder{p: &c.path, m: c.stack.cur.Matrix}
}

func (c *canvas) shape() pathBuilder {
	c.path.Reset()
	return c.builder()
}

func (c *canvas) finish(fill, stroke bool) {
	st := &c.stack.cur
	if fill {
		c.dev.fill(&c.path, &st.Fill, st)
	}
	if stroke {
		c.dev.stroke(&c.path, &st.Stroke, st)
	}
}

func (c *canvas) DrawLine(x0, y0, x1, y1 float64, stroke bool) {
	b := c.shape()
	b.moveTo(x0, y0)
	b.lineTo(x1, y1)
	c.finish(false, stroke)
}

func (c *canvas) DrawTriangle(x0, y0, x1, y1, x2, y2 float64, fill, stroke bool) {
	b := c.shape()
	b.moveTo(x0, y0)
	b.lineTo(x1, y1)
	b.lineTo(x2, y2)
	c.path.Close()
	c.finish(fill, stroke)
}

func (c *canvas) DrawQuad(x0, y0, x1, y1, x2, y2, x3, y3 float64, fill, stroke bool) {
	b := c.shape()
	b.moveTo(x0, y0)
	b.lineTo(x1, y1)
	b.lineTo(x2, y2)
	b.lineTo(x3, y3)
	c.path.Close()
	c.finish(fill, stroke)
}

func (c *canvas) DrawRect(w, h float64, fill, stroke bool) {
	c.shape().rect(w, h)
	c.finish(fill, stroke)
}

func (c *canvas) DrawRRect(w, h, r float64, fill, stroke bool) {
	c.shape().rrect(w, h, r, r, r, r)
	c.finish(fill, stroke)
}

func (c *canvas) DrawRRectV(w, h, ul, ur, lr, ll float64, fill, stroke bool) {
	c.shape().rrect(w, h, ul, ur, lr, ll)
	c.finish(fill, stroke)
}

func (c *canvas) DrawArc(radius, radians float64, fill, stroke bool) {
	c.shape().shapeArc(radius, radians)
	c.finish(fill, stroke)
}

func (c *canvas) DrawSector(radius, radians float64, fill, stroke bool) {
	c.shape().sector(radius, radians)
	c.finish(fill, stroke)
}

func (c *canvas) DrawCircle(radius float64, fill, stroke bool) {
	c.shape().ellipse(radius, radius)
	c.finish(fill, stroke)
}

func (c *canvas) DrawEllipse(rx, ry float64, fill, stroke bool) {
	c.shape().ellipse(rx, ry)
	c.finish(fill, stroke)
}

// DrawText draws text with the fill paint. Align and baseline reset to
// left and alphabetic afterwards, whether or not anything was drawn.
func (c *canvas) DrawText(text []byte) {
	st := &c.stack.cur
	defer func() {
		st.Align, st.Base = AlignLeft, BaseAlphabetic
	}()

	var font *store.Font
	if st.Font != "" {
		f, ok := c.assets.Fonts.Get(st.Font)
		if !ok {
			c.miss(MissFont, st.Font)
			return
		}
		font = f
	}
	if len(text) == 0 {
		return
	}
	c.lines = splitLines(c.lines[:0], text)
	c.dev.text(font, c.lines, st)
}

func splitLines(dst [][]byte, text []byte) [][]byte {
	for {
		i := bytes.IndexByte(text, '\n')
		if i < 0 {
			return append(dst, bytes.TrimSuffix(text, []byte{'\r'}))
		}
		dst = append(dst, bytes.TrimSuffix(text[:i], []byte{'\r'}))
		text = text[i+1:]
	}
}

// DrawSprites fills one destination rectangle per sprite with an image
// pattern scaled so the source rectangle lands on it. An unknown image
// skips the whole batch.
func (c *canvas) DrawSprites(imageID string, sprites []Sprite) {
	img, ok := c.assets.Images.Get(imageID)
	if !ok {
		c.miss(MissImage, imageID)
		return
	}
	st := &c.stack.cur
	for _, s := range sprites {
		if s.SW == 0 || s.SH == 0 {
			continue
		}
		ax, ay := s.DW/s.SW, s.DH/s.SH
		paint := Paint{
			Kind:  PaintImage,
			Image: img,
			Space: st.Matrix.Translated(s.DX-s.SX*ax, s.DY-s.SY*ay).Scaled(ax, ay),
		}
		c.sprite.Reset()
		b := pathBuilder{p: &c.sprite, m: st.Matrix}
		b.moveTo(s.DX, s.DY)
		b.lineTo(s.DX+s.DW, s.DY)
		b.lineTo(s.DX+s.DW, s.DY+s.DH)
		b.lineTo(s.DX, s.DY+s.DH)
		c.sprite.Close()
		c.dev.fill(&c.sprite, &paint, st)
	}
}

// BeginPath discards the current path.
func (c *canvas) BeginPath() { c.path.Reset() }

func (c *canvas) ClosePath() { c.path.Close() }

// FillPath fills the current path. The path is kept, so a following
// StrokePath outlines the same geometry.
func (c *canvas) FillPath() {
	st := &c.stack.cur
	c.dev.fill(&c.path, &st.Fill, st)
}

// StrokePath strokes the current path and keeps it.
func (c *canvas) StrokePath() {
	st := &c.stack.cur
	c.dev.stroke(&c.path, &st.Stroke, st)
}

func (c *canvas) MoveTo(x, y float64) { c.builder().moveTo(x, y) }
func (c *canvas) LineTo(x, y float64) { c.builder().lineTo(x, y) }

func (c *canvas) ArcTo(x1, y1, x2, y2, radius float64) {
	c.builder().arcTo(x1, y1, x2, y2, radius)
}

func (c *canvas) BezierTo(c1x, c1y, c2x, c2y, x, y float64) {
	c.builder().cubicTo(c1x, c1y, c2x, c2y, x, y)
}

func (c *canvas) QuadraticTo(cx, cy, x, y float64) {
	c.builder().quadTo(cx, cy, x, y)
}

func (c *canvas) Arc(cx, cy, r, a0, a1 float64, dir Winding) {
	c.builder().windingArc(cx, cy, r, a0, a1, dir)
}

func (c *canvas) PushState() { c.stack.push() }

// PopState restores the last pushed state; it does nothing when nothing
// was pushed.
func (c *canvas) PopState() { c.stack.pop() }

func (c *canvas) Depth() int { return c.stack.depth() }

// Scissor intersects the clip with the device bounds of (0,0,w,h).
func (c *canvas) Scissor(w, h float64) {
	st := &c.stack.cur
	r := boundsOf(st.Matrix, w, h)
	if st.HasScissor {
		r = r.Intersect(st.Scissor)
	}
	st.Scissor, st.HasScissor = r, true
}

func (c *canvas) Transform(m Matrix) {
	st := &c.stack.cur
	st.Matrix = st.Matrix.Mul(m)
}

func (c *canvas) Scale(x, y float64) {
	st := &c.stack.cur
	st.Matrix = st.Matrix.Scaled(x, y)
}

func (c *canvas) Rotate(radians float64) {
	st := &c.stack.cur
	st.Matrix = st.Matrix.Rotated(radians)
}

func (c *canvas) Translate(x, y float64) {
	st := &c.stack.cur
	st.Matrix = st.Matrix.Translated(x, y)
}

func (c *canvas) linear(sx, sy, ex, ey float64, c0, c1 Color) Paint {
	return Paint{Kind: PaintLinear, X0: sx, Y0: sy, X1: ex, Y1: ey, C0: c0, C1: c1, Space: c.stack.cur.Matrix}
}

func (c *canvas) radial(cx, cy, inner, outer float64, c0, c1 Color) Paint {
	return Paint{Kind: PaintRadial, X0: cx, Y0: cy, R0: inner, R1: outer, C0: c0, C1: c1, Space: c.stack.cur.Matrix}
}

// pattern looks up an image or stream pattern; ok is false on a miss.
func (c *canvas) pattern(id string, stream bool) (Paint, bool) {
	table, kind := c.assets.Images, MissImage
	if stream {
		table, kind = c.assets.Streams, MissStream
	}
	img, ok := table.Get(id)
	if !ok {
		c.miss(kind, id)
		return Paint{}, false
	}
	return Paint{Kind: PaintImage, Image: img, Stream: stream, Space: c.stack.cur.Matrix}, true
}

func (c *canvas) FillColor(col Color) { c.stack.cur.Fill = SolidPaint(col) }

func (c *canvas) FillLinear(sx, sy, ex, ey float64, c0, c1 Color) {
	c.stack.cur.Fill = c.linear(sx, sy, ex, ey, c0, c1)
}

func (c *canvas) FillRadial(cx, cy, inner, outer float64, c0, c1 Color) {
	c.stack.cur.Fill = c.radial(cx, cy, inner, outer, c0, c1)
}

func (c *canvas) FillImage(id string) {
	if p, ok := c.pattern(id, false); ok {
		c.stack.cur.Fill = p
	}
}

func (c *canvas) FillStream(id string) {
	if p, ok := c.pattern(id, true); ok {
		c.stack.cur.Fill = p
	}
}

func (c *canvas) StrokeColor(col Color) { c.stack.cur.Stroke = SolidPaint(col) }

func (c *canvas) StrokeLinear(sx, sy, ex, ey float64, c0, c1 Color) {
	c.stack.cur.Stroke = c.linear(sx, sy, ex, ey, c0, c1)
}

func (c *canvas) StrokeRadial(cx, cy, inner, outer float64, c0, c1 Color) {
	c.stack.cur.Stroke = c.radial(cx, cy, inner, outer, c0, c1)
}

func (c *canvas) StrokeImage(id string) {
	if p, ok := c.pattern(id, false); ok {
		c.stack.cur.Stroke = p
	}
}

func (c *canvas) StrokeStream(id string) {
	if p, ok := c.pattern(id, true); ok {
		c.stack.cur.Stroke = p
	}
}

func (c *canvas) StrokeWidth(w float64)    { c.stack.cur.LineWidth = w }
func (c *canvas) LineCap(cp LineCap)       { c.stack.cur.Cap = cp }
func (c *canvas) LineJoin(j LineJoin)      { c.stack.cur.Join = j }
func (c *canvas) MiterLimit(limit float64) { c.stack.cur.MiterLimit = limit }
func (c *canvas) FontSize(size float64)    { c.stack.cur.FontSize = size }
func (c *canvas) TextAlign(a TextAlign)    { c.stack.cur.Align = a }
func (c *canvas) TextBase(b TextBase)      { c.stack.cur.Base = b }

// Font selects a loaded font. An unknown id leaves the current font in
// place.
func (c *canvas) Font(id string) {
	if _, ok := c.assets.Fonts.Get(id); !ok {
		c.miss(MissFont, id)
		return
	}
	c.stack.cur.Font = id
}

// textOffset returns the displacement of a line's origin for the given
// anchors. descent is positive below the baseline.
func textOffset(align TextAlign, base TextBase, width, ascent, descent float64) (dx, dy float64) {
	switch align {
	case AlignCenter:
		dx = -width / 2
	case AlignRight:
		dx = -width
	}
	switch base {
	case BaseTop:
		dy = ascent
	case BaseMiddle:
		dy = (ascent - descent) / 2
	case BaseBottom:
		dy = -descent
	}
	return dx, dy
}
