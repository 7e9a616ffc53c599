package render

import (
	"image"
	"image/draw"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	etext "github.com/hajimehoshi/ebiten/v2/text/v2"

	"github.com/opd-ai/go-scenic/internal/store"
)

// geoM converts m to an ebiten.GeoM.
func geoM(m Matrix) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m.XX)
	g.SetElement(0, 1, m.XY)
	g.SetElement(0, 2, m.X0)
	g.SetElement(1, 0, m.YX)
	g.SetElement(1, 1, m.YY)
	g.SetElement(1, 2, m.Y0)
	return g
}

// text draws each line with ebiten's text renderer. Solid fills tint the
// glyphs directly; other paints are drawn through a glyph mask.
func (g *GPU) text(f *store.Font, lines [][]byte, st *State) {
	if st.Fill.transparent() || st.FontSize <= 0 {
		return
	}
	dst := g.target(st)
	if dst == nil {
		return
	}
	src, err := g.faces.face(f)
	if err != nil {
		g.fail(err)
		return
	}
	face := &etext.GoTextFace{Source: src, Size: st.FontSize}
	m := face.Metrics()
	lineHeight := m.HAscent + m.HDescent + m.HLineGap
	tm := geoM(st.Matrix)

	to := dst
	solid := st.Fill.Kind == PaintSolid
	ink := Rect{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	if !solid {
		to = g.textMask(dst)
	}

	g.stats.Texts++
	for i, line := range lines {
		if len(line) == 0 {
			continue
		}
		s := string(line)
		dx, dy := textOffset(st.Align, st.Base, etext.Advance(s, face), m.HAscent, m.HDescent)
		dy += float64(i) * lineHeight
		if !solid {
			ink = ink.union(boxBounds(st.Matrix, dx, dy-m.HAscent, dx+etext.Advance(s, face), dy+m.HDescent))
		}

		op := &etext.DrawOptions{}
		// text/v2 positions the top of the line box at the origin.
		op.GeoM.Translate(dx, dy-m.HAscent)
		op.GeoM.Concat(tm)
		op.Filter = ebiten.FilterLinear
		if solid {
			op.ColorScale.ScaleWithColor(st.Fill.Color)
		}

		etext.Draw(to, s, face, op)
		g.stats.DrawCalls++
	}

	if solid {
		return
	}
	r, ok := pixelRegion(padded(ink, st.FontSize*st.Matrix.ScaleFactor()/4), dst.Bounds())
	if !ok {
		return
	}
	mask := to.SubImage(r).(*ebiten.Image)
	g.paintMask(mask, &st.Fill)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(r.Min.X), float64(r.Min.Y))
	dst.DrawImage(mask, op)
	g.stats.DrawCalls++
}

// textMask returns a cleared scratch region matching dst's bounds.
func (g *GPU) textMask(dst *ebiten.Image) *ebiten.Image {
	size := g.surface.Bounds().Size()
	if g.mask == nil || g.mask.Bounds().Size() != size {
		if g.mask != nil {
			g.mask.Deallocate()
		}
		g.mask = ebiten.NewImage(size.X, size.Y)
	}
	sub := g.mask.SubImage(dst.Bounds()).(*ebiten.Image)
	sub.Clear()
	return sub
}

// paintMask replaces the colour of every covered mask pixel with paint,
// keeping the glyph coverage as alpha. The paint is evaluated on the CPU so
// gradients and patterns match the Software backend.
func (g *GPU) paintMask(mask *ebiten.Image, paint *Paint) {
	r := mask.Bounds()
	img := image.NewRGBA(r)
	draw.Draw(img, r, newPaintSource(paint), r.Min, draw.Src)
	op := &ebiten.DrawImageOptions{Blend: ebiten.BlendSourceIn}
	op.GeoM.Translate(float64(r.Min.X), float64(r.Min.Y))
	mask.DrawImage(ebiten.NewImageFromImage(img), op)
}
