package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	etext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/opd-ai/go-scenic/internal/store"
)

// whiteImage is the source for untextured triangles; vertex colours carry
// the paint.
var whiteImage = sync.OnceValue(func() *ebiten.Image {
	img := ebiten.NewImage(1, 1)
	img.Fill(color.White)
	return img
})

type textureKey struct {
	id     string
	stream bool
}

type texture struct {
	src *store.Image
	img *ebiten.Image
}

// GPU is a Backend that draws through ebiten's triangle pipeline into an
// offscreen surface. A window host composites the surface with Composite.
//
// BeginFrame takes the surface lock and EndFrame releases it, so a
// composite never observes a half-drawn frame.
type GPU struct {
	canvas

	mu        sync.Mutex
	surface   *ebiten.Image
	inFrame   bool
	antialias atomic.Bool

	vpath    vector.Path
	vs       []ebiten.Vertex
	is       []uint16
	cpu      raster
	mask     *ebiten.Image
	textures map[textureKey]*texture
	faces    faceCache[*etext.GoTextFaceSource]
	stats    DrawStats
}

var (
	_ Backend     = (*GPU)(nil)
	_ Antialiaser = (*GPU)(nil)
)

// NewGPU returns a GPU backend. The surface is allocated by the first
// BeginFrame.
func NewGPU(opts Options) *GPU {
	g := &GPU{
		textures: make(map[textureKey]*texture),
		faces:    newFaceCache(parseSource, defaultSource),
	}
	g.antialias.Store(opts.Antialias)
	g.canvas.init(opts, g)
	return g
}

// SetAntialias turns edge antialiasing on or off from the next draw.
func (g *GPU) SetAntialias(enabled bool) {
	g.antialias.Store(enabled)
}

// BeginFrame locks the surface, resizes it if needed, clears it and
// resets the drawing state.
func (g *GPU) BeginFrame(width, height int, clear Color) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("render: invalid surface size %dx%d", width, height)
	}
	g.mu.Lock()
	g.inFrame = true
	if g.surface == nil || g.surface.Bounds().Dx() != width || g.surface.Bounds().Dy() != height {
		if g.surface != nil {
			g.surface.Deallocate()
		}
		g.surface = ebiten.NewImage(width, height)
	}
	g.surface.Fill(clear)
	g.pruneTextures()
	g.faces.prune(g.assets.Fonts)
	g.stats = DrawStats{}
	g.begin()
	return nil
}

// EndFrame unlocks the surface and returns the first error raised during
// the frame.
func (g *GPU) EndFrame() error {
	if g.inFrame {
		g.inFrame = false
		g.mu.Unlock()
	}
	return g.Err()
}

// DrawStats returns the counters of the current or last frame.
func (g *GPU) DrawStats() DrawStats {
	return g.stats
}

// Composite draws the last finished frame onto dst. It waits for a frame
// in progress to end.
func (g *GPU) Composite(dst *ebiten.Image, op *ebiten.DrawImageOptions) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.surface == nil {
		return
	}
	dst.DrawImage(g.surface, op)
}

// Size returns the surface size, or zero before the first frame.
func (g *GPU) Size() (width, height int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.surface == nil {
		return 0, 0
	}
	b := g.surface.Bounds()
	return b.Dx(), b.Dy()
}

// target returns the surface clipped to the scissor, or nil when the
// scissor is empty. Sub-images keep the surface's coordinates.
func (g *GPU) target(st *State) *ebiten.Image {
	if g.surface == nil {
		return nil
	}
	if !st.HasScissor {
		return g.surface
	}
	r := st.Scissor.Pixels().Intersect(g.surface.Bounds())
	if r.Empty() {
		return nil
	}
	return g.surface.SubImage(r).(*ebiten.Image)
}

// load copies a flattened path into the ebiten path builder.
func (g *GPU) load(p *Path) {
	g.vpath = vector.Path{}
	for _, sp := range p.Subpaths() {
		pts := sp.Points
		g.vpath.MoveTo(float32(pts[0].X), float32(pts[0].Y))
		for _, q := range pts[1:] {
			g.vpath.LineTo(float32(q.X), float32(q.Y))
		}
		if sp.Closed {
			g.vpath.Close()
		}
	}
}

func (g *GPU) fill(p *Path, paint *Paint, st *State) {
	if paint.transparent() || p.Empty() {
		return
	}
	dst := g.target(st)
	if dst == nil {
		return
	}
	g.load(p)
	g.vs, g.is = g.vpath.AppendVerticesAndIndicesForFilling(g.vs[:0], g.is[:0])
	g.stats.Fills++
	if len(g.vs) > maxBatchVertices {
		g.rasterize(dst, p, paint, st, false)
		return
	}
	g.drawUnlocked(dst, paint, ebiten.FillRuleNonZero)
}

func (g *GPU) stroke(p *Path, paint *Paint, st *State) {
	if paint.transparent() || p.Empty() {
		return
	}
	w := st.LineWidth * st.Matrix.ScaleFactor()
	if !(w > 0) {
		return
	}
	dst := g.target(st)
	if dst == nil {
		return
	}
	g.load(p)
	g.vs, g.is = g.vpath.AppendVerticesAndIndicesForStroke(g.vs[:0], g.is[:0], strokeOptions(st, w))
	g.stats.Strokes++
	if len(g.vs) > maxBatchVertices {
		g.rasterize(dst, p, paint, st, true)
		return
	}
	g.drawUnlocked(dst, paint, ebiten.FillRuleFillAll)
}

func strokeOptions(st *State, width float64) *vector.StrokeOptions {
	opts := &vector.StrokeOptions{
		Width:      float32(width),
		MiterLimit: float32(st.MiterLimit),
	}
	switch st.Cap {
	case CapRound:
		opts.LineCap = vector.LineCapRound
	case CapSquare:
		opts.LineCap = vector.LineCapSquare
	default:
		opts.LineCap = vector.LineCapButt
	}
	switch st.Join {
	case JoinRound:
		opts.LineJoin = vector.LineJoinRound
	case JoinBevel:
		opts.LineJoin = vector.LineJoinBevel
	default:
		opts.LineJoin = vector.LineJoinMiter
	}
	return opts
}

// drawUnlocked submits g.vs and g.is with the paint applied. The caller
// holds g.mu through BeginFrame.
func (g *GPU) drawUnlocked(dst *ebiten.Image, paint *Paint, rule ebiten.FillRule) {
	if len(g.is) == 0 {
		return
	}
	src := whiteImage()
	op := &ebiten.DrawTrianglesOptions{
		AntiAlias: g.antialias.Load(),
		FillRule:  rule,
	}

	switch paint.Kind {
	case PaintSolid:
		g.setVertexColors(func(float64, float64) Color { return paint.Color })
	case PaintLinear, PaintRadial:
		inv, ok := paint.Space.Invert()
		if !ok {
			return
		}
		g.setVertexColors(func(x, y float64) Color { return paint.At(inv, x, y) })
	case PaintImage:
		inv, ok := paint.Space.Invert()
		if !ok || paint.Image == nil {
			return
		}
		src = g.texture(paint.Image, paint.Stream)
		for i := range g.vs {
			v := &g.vs[i]
			sx, sy := inv.Apply(float64(v.DstX), float64(v.DstY))
			v.SrcX, v.SrcY = float32(sx), float32(sy)
			v.ColorR, v.ColorG, v.ColorB, v.ColorA = 1, 1, 1, 1
		}
		op.Address = ebiten.AddressRepeat
		op.Filter = ebiten.FilterLinear
	}

	dst.DrawTriangles(g.vs, g.is, src, op)
	g.stats.DrawCalls++
	g.stats.Vertices += len(g.vs)
}

// maxBatchVertices is the most vertices uint16 indices can address. The
// vector package wraps its indices past this, so larger paths are drawn
// from CPU coverage instead.
const maxBatchVertices = math.MaxUint16 + 1

// rasterize draws p through the CPU rasteriser and blits the covered
// region onto dst.
func (g *GPU) rasterize(dst *ebiten.Image, p *Path, paint *Paint, st *State, stroke bool) {
	img := g.cpu.cover(p, paint, st, stroke, dst.Bounds())
	if img == nil {
		return
	}
	tex := ebiten.NewImageFromImage(img)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(img.Rect.Min.X), float64(img.Rect.Min.Y))
	dst.DrawImage(tex, op)
	g.stats.DrawCalls++
	g.stats.Vertices += len(g.vs)
}

// setVertexColors paints each vertex with the colour at its device
// position and points it at the white source pixel.
func (g *GPU) setVertexColors(at func(x, y float64) Color) {
	for i := range g.vs {
		v := &g.vs[i]
		r, gr, b, a := at(float64(v.DstX), float64(v.DstY)).floats()
		v.SrcX, v.SrcY = 0.5, 0.5
		v.ColorR, v.ColorG, v.ColorB, v.ColorA = r, gr, b, a
	}
}

// texture returns the cached texture for img, uploading it when the
// stored pixels changed since the last upload.
func (g *GPU) texture(img *store.Image, stream bool) *ebiten.Image {
	key := textureKey{id: img.ID, stream: stream}
	t, ok := g.textures[key]
	if ok && t.src == img {
		return t.img
	}
	if ok && t.img.Bounds().Size() == img.Pixels.Bounds().Size() {
		t.img.WritePixels(premultiply(img.Pixels))
		t.src = img
		return t.img
	}
	if ok {
		t.img.Deallocate()
	}
	t = &texture{src: img, img: ebiten.NewImageFromImage(img.Pixels)}
	g.textures[key] = t
	return t.img
}

// pruneTextures frees textures whose image was deleted from its store.
func (g *GPU) pruneTextures() {
	for key, t := range g.textures {
		table := g.assets.Images
		if key.stream {
			table = g.assets.Streams
		}
		if _, ok := table.Get(key.id); !ok {
			t.img.Deallocate()
			delete(g.textures, key)
		}
	}
}

// premultiply converts non-premultiplied pixels to the premultiplied RGBA
// bytes WritePixels expects.
func premultiply(src *image.NRGBA) []byte {
	b := src.Bounds()
	out := make([]byte, 4*b.Dx()*b.Dy())
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := src.Pix[src.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			p := row[4*x : 4*x+4]
			a := uint32(p[3])
			out[i+0] = uint8((uint32(p[0])*a + 127) / 255)
			out[i+1] = uint8((uint32(p[1])*a + 127) / 255)
			out[i+2] = uint8((uint32(p[2])*a + 127) / 255)
			out[i+3] = p[3]
			i += 4
		}
	}
	return out
}
