package render

import (
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

// raster accumulates path coverage on the CPU with x/image/vector. The
// Software backend draws every path through it; the GPU backend uses it for
// paths too large for one indexed triangle batch.
type raster struct {
	ras  vector.Rasterizer
	clip clipper
	strk stroker
	off  image.Point
	size image.Point
}

// pixelRegion returns the pixels of bounds a draw with device extent b may
// touch. Extents are clamped before the integer conversion.
func pixelRegion(b Rect, bounds image.Rectangle) (image.Rectangle, bool) {
	if !(b.MinX <= b.MaxX && b.MinY <= b.MaxY) {
		return image.Rectangle{}, false
	}
	x0, x1 := float64(bounds.Min.X-1), float64(bounds.Max.X+1)
	y0, y1 := float64(bounds.Min.Y-1), float64(bounds.Max.Y+1)
	r := image.Rect(
		int(math.Floor(clamp(b.MinX, x0, x1))), int(math.Floor(clamp(b.MinY, y0, y1))),
		int(math.Ceil(clamp(b.MaxX, x0, x1))), int(math.Ceil(clamp(b.MaxY, y0, y1))),
	).Intersect(bounds)
	return r, !r.Empty()
}

// strokeExtent returns the device half width of a stroke and how far its
// outline may reach past the path bounds.
func strokeExtent(st *State) (hw, pad float64, ok bool) {
	hw = st.LineWidth * st.Matrix.ScaleFactor() / 2
	if !(hw > 0) || math.IsInf(hw, 0) {
		return 0, 0, false
	}
	return hw, hw * math.Max(math.Sqrt2, st.MiterLimit), true
}

func padded(b Rect, pad float64) Rect {
	return Rect{MinX: b.MinX - pad, MinY: b.MinY - pad, MaxX: b.MaxX + pad, MaxY: b.MaxY + pad}
}

func (r *raster) reset(region image.Rectangle) {
	r.off, r.size = region.Min, region.Size()
	r.ras.Reset(r.size.X, r.size.Y)
}

// polygon adds one closed contour. It is first cut to the rasteriser's area
// plus a pixel, since x/image/vector cannot take coordinates far outside it.
func (r *raster) polygon(pts []Point) {
	ox, oy := float64(r.off.X), float64(r.off.Y)
	pts = r.clip.clip(pts, Rect{MinX: ox - 1, MinY: oy - 1, MaxX: ox + float64(r.size.X) + 1, MaxY: oy + float64(r.size.Y) + 1})
	if len(pts) < 2 {
		return
	}
	r.ras.MoveTo(float32(pts[0].X-ox), float32(pts[0].Y-oy))
	for _, p := range pts[1:] {
		r.ras.LineTo(float32(p.X-ox), float32(p.Y-oy))
	}
	r.ras.ClosePath()
}

func (r *raster) fillPath(p *Path) {
	for _, sp := range p.Subpaths() {
		r.polygon(sp.Points)
	}
}

func (r *raster) strokePath(p *Path, hw float64, st *State) {
	if r.strk.emit == nil {
		r.strk.emit = r.polygon
	}
	r.strk.hw = hw
	r.strk.cap = st.Cap
	r.strk.join = st.Join
	r.strk.miter = st.MiterLimit
	r.strk.stroke(p)
}

// draw composites src through the accumulated coverage onto dst at the
// region last passed to reset.
func (r *raster) draw(dst draw.Image, src image.Image) {
	r.ras.DrawOp = draw.Over
	r.ras.Draw(dst, image.Rectangle{Min: r.off, Max: r.off.Add(r.size)}, src, r.off)
}

// cover renders p with paint into a new image covering only the touched
// part of bounds, or returns nil when nothing would be drawn.
func (r *raster) cover(p *Path, paint *Paint, st *State, stroke bool, bounds image.Rectangle) *image.RGBA {
	if paint.transparent() || len(p.Subpaths()) == 0 {
		return nil
	}
	b := p.Bounds()
	var hw float64
	if stroke {
		var pad float64
		var ok bool
		if hw, pad, ok = strokeExtent(st); !ok {
			return nil
		}
		b = padded(b, pad)
	}
	region, ok := pixelRegion(b, bounds)
	if !ok {
		return nil
	}
	r.reset(region)
	if stroke {
		r.strokePath(p, hw, st)
	} else {
		r.fillPath(p)
	}
	out := image.NewRGBA(region)
	r.draw(out, newPaintSource(paint))
	return out
}
