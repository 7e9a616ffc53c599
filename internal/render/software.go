package render

import (
	"fmt"
	"image"
	"image/draw"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/opd-ai/go-scenic/internal/store"
)

// Software is a Backend that rasterises into an *image.RGBA on the CPU.
// Edges are always antialiased.
type Software struct {
	canvas

	img    *image.RGBA
	rast   raster
	glyphs Path
	sbuf   sfnt.Buffer
	fonts  faceCache[*sfnt.Font]
	stats  DrawStats
}

var _ Backend = (*Software)(nil)

// NewSoftware returns a Software backend. The surface is allocated by the
// first BeginFrame.
func NewSoftware(opts Options) *Software {
	s := &Software{fonts: newFaceCache(opentype.Parse, defaultOutlines)}
	s.canvas.init(opts, s)
	return s
}

// BeginFrame resizes the surface if needed, clears it and resets the
// drawing state.
func (s *Software) BeginFrame(width, height int, clear Color) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("render: invalid surface size %dx%d", width, height)
	}
	if s.img == nil || s.img.Bounds().Dx() != width || s.img.Bounds().Dy() != height {
		s.img = image.NewRGBA(image.Rect(0, 0, width, height))
	}
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(clear), image.Point{}, draw.Src)
	s.fonts.prune(s.assets.Fonts)
	s.stats = DrawStats{}
	s.begin()
	return nil
}

// EndFrame returns the first error raised during the frame.
func (s *Software) EndFrame() error {
	return s.Err()
}

// DrawStats returns the counters of the current or last frame.
func (s *Software) DrawStats() DrawStats {
	return s.stats
}

// Image returns the surface. It is overwritten by the next frame.
func (s *Software) Image() *image.RGBA {
	return s.img
}

// region returns the pixels a draw with device bounds b may touch.
func (s *Software) region(b Rect, st *State) (image.Rectangle, bool) {
	if s.img == nil {
		return image.Rectangle{}, false
	}
	r, ok := pixelRegion(b, s.img.Bounds())
	if ok && st.HasScissor {
		r = r.Intersect(st.Scissor.Pixels())
	}
	return r, !r.Empty()
}

func (s *Software) paint(paint *Paint) {
	s.rast.draw(s.img, newPaintSource(paint))
	s.stats.DrawCalls++
}

func (s *Software) fill(p *Path, paint *Paint, st *State) {
	if paint.transparent() || p.Empty() {
		return
	}
	r, ok := s.region(p.Bounds(), st)
	if !ok {
		return
	}
	s.stats.Fills++
	s.rast.reset(r)
	s.rast.fillPath(p)
	s.paint(paint)
}

func (s *Software) stroke(p *Path, paint *Paint, st *State) {
	if paint.transparent() || len(p.Subpaths()) == 0 {
		return
	}
	hw, pad, ok := strokeExtent(st)
	if !ok {
		return
	}
	r, ok := s.region(padded(p.Bounds(), pad), st)
	if !ok {
		return
	}
	s.stats.Strokes++
	s.rast.reset(r)
	s.rast.strokePath(p, hw, st)
	s.paint(paint)
}

// text lays every glyph outline into one path and fills it with the fill
// paint, so text follows the full transform.
func (s *Software) text(f *store.Font, lines [][]byte, st *State) {
	if st.Fill.transparent() || st.FontSize <= 0 {
		return
	}
	sf, err := s.fonts.face(f)
	if err != nil {
		s.fail(err)
		return
	}
	upem := sf.UnitsPerEm()
	ppem := fixed.Int26_6(upem) << 6
	m, err := sf.Metrics(&s.sbuf, ppem, font.HintingNone)
	if err != nil {
		s.fail(fmt.Errorf("font metrics: %w", err))
		return
	}
	scale := st.FontSize / float64(upem) / 64
	ascent := float64(m.Ascent) * scale
	descent := float64(m.Descent) * scale
	lineHeight := float64(m.Height) * scale

	s.stats.Texts++
	s.glyphs.Reset()
	b := pathBuilder{p: &s.glyphs, m: st.Matrix}
	for i, line := range lines {
		w := s.walk(sf, line, ppem, nil) * scale
		dx, dy := textOffset(st.Align, st.Base, w, ascent, descent)
		dy += float64(i) * lineHeight
		s.walk(sf, line, ppem, func(gi sfnt.GlyphIndex, pen fixed.Int26_6) {
			s.outline(b, sf, gi, ppem, dx+float64(pen)*scale, dy, scale)
		})
	}
	s.fill(&s.glyphs, &st.Fill, st)
}

// walk steps through the glyphs of line, applying kerning, and returns the
// total advance in 26.6 font units. fn, if set, is called with each glyph
// and its pen position.
func (s *Software) walk(sf *sfnt.Font, line []byte, ppem fixed.Int26_6, fn func(sfnt.GlyphIndex, fixed.Int26_6)) float64 {
	var (
		pen  fixed.Int26_6
		prev sfnt.GlyphIndex
	)
	for i := 0; len(line) > 0; i++ {
		r, n := utf8.DecodeRune(line)
		line = line[n:]
		gi, err := sf.GlyphIndex(&s.sbuf, r)
		if err != nil {
			continue
		}
		if i > 0 {
			if k, err := sf.Kern(&s.sbuf, prev, gi, ppem, font.HintingNone); err == nil {
				pen += k
			}
		}
		if fn != nil {
			fn(gi, pen)
		}
		if adv, err := sf.GlyphAdvance(&s.sbuf, gi, ppem, font.HintingNone); err == nil {
			pen += adv
		}
		prev = gi
	}
	return float64(pen)
}

func (s *Software) outline(b pathBuilder, sf *sfnt.Font, gi sfnt.GlyphIndex, ppem fixed.Int26_6, ox, oy, scale float64) {
	segs, err := sf.LoadGlyph(&s.sbuf, gi, ppem, nil)
	if err != nil {
		return
	}
	pt := func(p fixed.Point26_6) (float64, float64) {
		return ox + float64(p.X)*scale, oy + float64(p.Y)*scale
	}
	for _, seg := range segs {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			b.moveTo(pt(seg.Args[0]))
		case sfnt.SegmentOpLineTo:
			b.lineTo(pt(seg.Args[0]))
		case sfnt.SegmentOpQuadTo:
			cx, cy := pt(seg.Args[0])
			x, y := pt(seg.Args[1])
			b.quadTo(cx, cy, x, y)
		case sfnt.SegmentOpCubeTo:
			c1x, c1y := pt(seg.Args[0])
			c2x, c2y := pt(seg.Args[1])
			x, y := pt(seg.Args[2])
			b.cubicTo(c1x, c1y, c2x, c2y, x, y)
		}
	}
}
