package script

import (
	"fmt"
	"strings"

	"github.com/opd-ai/go-scenic/internal/render"
)

// recorder is a render.Backend that logs every call as a short string.
type recorder struct {
	calls []string
	depth int
	fill  render.Color
}

var _ render.Backend = (*recorder)(nil)

func (r *recorder) add(format string, args ...any) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recorder) String() string { return strings.Join(r.calls, " ") }

func (r *recorder) BeginFrame(w, h int, clear render.Color) error {
	r.add("begin %dx%d", w, h)
	return nil
}
func (r *recorder) EndFrame() error { r.add("end"); return nil }
func (r *recorder) Err() error      { return nil }

func (r *recorder) DrawLine(x0, y0, x1, y1 float64, stroke bool) {
	r.add("line(%g,%g,%g,%g,%t)", x0, y0, x1, y1, stroke)
}
func (r *recorder) DrawTriangle(x0, y0, x1, y1, x2, y2 float64, fill, stroke bool) {
	r.add("triangle(%g,%g,%g,%g,%g,%g,%t,%t)", x0, y0, x1, y1, x2, y2, fill, stroke)
}
func (r *recorder) DrawQuad(x0, y0, x1, y1, x2, y2, x3, y3 float64, fill, stroke bool) {
	r.add("quad(%g,%g,%g,%g,%g,%g,%g,%g,%t,%t)", x0, y0, x1, y1, x2, y2, x3, y3, fill, stroke)
}
func (r *recorder) DrawRect(w, h float64, fill, stroke bool) {
	r.add("rect(%g,%g,%t,%t)#%02x%02x%02x", w, h, fill, stroke, r.fill.R, r.fill.G, r.fill.B)
}
func (r *recorder) DrawRRect(w, h, rad float64, fill, stroke bool) {
	r.add("rrect(%g,%g,%g,%t,%t)", w, h, rad, fill, stroke)
}
func (r *recorder) DrawRRectV(w, h, ul, ur, lr, ll float64, fill, stroke bool) {
	r.add("rrectv(%g,%g,%g,%g,%g,%g,%t,%t)", w, h, ul, ur, lr, ll, fill, stroke)
}
func (r *recorder) DrawArc(radius, radians float64, fill, stroke bool) {
	r.add("arc(%g,%g,%t,%t)", radius, radians, fill, stroke)
}
func (r *recorder) DrawSector(radius, radians float64, fill, stroke bool) {
	r.add("sector(%g,%g,%t,%t)", radius, radians, fill, stroke)
}
func (r *recorder) DrawCircle(radius float64, fill, stroke bool) {
	r.add("circle(%g,%t,%t)#%02x%02x%02x", radius, fill, stroke, r.fill.R, r.fill.G, r.fill.B)
}
func (r *recorder) DrawEllipse(rx, ry float64, fill, stroke bool) {
	r.add("ellipse(%g,%g,%t,%t)", rx, ry, fill, stroke)
}
func (r *recorder) DrawText(text []byte) { r.add("text(%q)", text) }
func (r *recorder) DrawSprites(id string, sprites []render.Sprite) {
	var b strings.Builder
	for _, s := range sprites {
		fmt.Fprintf(&b, "[%g,%g,%g,%g>%g,%g,%g,%g]", s.SX, s.SY, s.SW, s.SH, s.DX, s.DY, s.DW, s.DH)
	}
	r.add("sprites(%s,%d)%s", id, len(sprites), b.String())
}

func (r *recorder) BeginPath()          { r.add("begin_path") }
func (r *recorder) ClosePath()          { r.add("close_path") }
func (r *recorder) FillPath()           { r.add("fill_path") }
func (r *recorder) StrokePath()         { r.add("stroke_path") }
func (r *recorder) MoveTo(x, y float64) { r.add("move(%g,%g)", x, y) }
func (r *recorder) LineTo(x, y float64) { r.add("lineto(%g,%g)", x, y) }
func (r *recorder) ArcTo(x1, y1, x2, y2, radius float64) {
	r.add("arcto(%g,%g,%g,%g,%g)", x1, y1, x2, y2, radius)
}
func (r *recorder) BezierTo(c1x, c1y, c2x, c2y, x, y float64) {
	r.add("bezier(%g,%g,%g,%g,%g,%g)", c1x, c1y, c2x, c2y, x, y)
}
func (r *recorder) QuadraticTo(cx, cy, x, y float64) { r.add("quadto(%g,%g,%g,%g)", cx, cy, x, y) }
func (r *recorder) Arc(cx, cy, rad, a0, a1 float64, dir render.Winding) {
	r.add("patharc(%g,%g,%g,%g,%g,%d)", cx, cy, rad, a0, a1, dir)
}

func (r *recorder) PushState() { r.depth++; r.add("push") }
func (r *recorder) PopState() {
	if r.depth > 0 {
		r.depth--
	}
	r.add("pop")
}
func (r *recorder) Depth() int           { return r.depth }
func (r *recorder) Scissor(w, h float64) { r.add("scissor(%g,%g)", w, h) }
func (r *recorder) Transform(m render.Matrix) {
	v := m.Wire()
	r.add("transform(%g,%g,%g,%g,%g,%g)", v[0], v[1], v[2], v[3], v[4], v[5])
}
func (r *recorder) Scale(x, y float64)     { r.add("scale(%g,%g)", x, y) }
func (r *recorder) Rotate(radians float64) { r.add("rotate(%g)", radians) }
func (r *recorder) Translate(x, y float64) { r.add("translate(%g,%g)", x, y) }

func (r *recorder) FillColor(c render.Color) {
	r.fill = c
	r.add("fill_color(%d,%d,%d,%d)", c.R, c.G, c.B, c.A)
}
func (r *recorder) FillLinear(sx, sy, ex, ey float64, c0, c1 render.Color) {
	r.add("fill_linear(%g,%g,%g,%g,%v,%v)", sx, sy, ex, ey, c0, c1)
}
func (r *recorder) FillRadial(cx, cy, inner, outer float64, c0, c1 render.Color) {
	r.add("fill_radial(%g,%g,%g,%g,%v,%v)", cx, cy, inner, outer, c0, c1)
}
func (r *recorder) FillImage(id string)  { r.add("fill_image(%s)", id) }
func (r *recorder) FillStream(id string) { r.add("fill_stream(%s)", id) }
func (r *recorder) StrokeColor(c render.Color) {
	r.add("stroke_color(%d,%d,%d,%d)", c.R, c.G, c.B, c.A)
}
func (r *recorder) StrokeLinear(sx, sy, ex, ey float64, c0, c1 render.Color) {
	r.add("stroke_linear(%g,%g,%g,%g,%v,%v)", sx, sy, ex, ey, c0, c1)
}
func (r *recorder) StrokeRadial(cx, cy, inner, outer float64, c0, c1 render.Color) {
	r.add("stroke_radial(%g,%g,%g,%g,%v,%v)", cx, cy, inner, outer, c0, c1)
}
func (r *recorder) StrokeImage(id string)  { r.add("stroke_image(%s)", id) }
func (r *recorder) StrokeStream(id string) { r.add("stroke_stream(%s)", id) }

func (r *recorder) StrokeWidth(w float64)        { r.add("width(%g)", w) }
func (r *recorder) LineCap(c render.LineCap)     { r.add("cap(%s)", c) }
func (r *recorder) LineJoin(j render.LineJoin)   { r.add("join(%s)", j) }
func (r *recorder) MiterLimit(limit float64)     { r.add("miter(%g)", limit) }
func (r *recorder) Font(id string)               { r.add("font(%s)", id) }
func (r *recorder) FontSize(size float64)        { r.add("font_size(%g)", size) }
func (r *recorder) TextAlign(a render.TextAlign) { r.add("align(%d)", a) }
func (r *recorder) TextBase(b render.TextBase)   { r.add("base(%d)", b) }

// logRecorder collects interpreter log messages.
type logRecorder struct {
	debug, warn, errs []string
}

func (l *logRecorder) Debug(msg string, args ...any) { l.debug = append(l.debug, msg) }
func (l *logRecorder) Warn(msg string, args ...any)  { l.warn = append(l.warn, msg) }
func (l *logRecorder) Error(msg string, args ...any) { l.errs = append(l.errs, msg) }
