package render

import (
	"image/color"
	"math"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/opd-ai/go-scenic/internal/store"
)

var (
	white = Color{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	red   = Color{R: 0xff, A: 0xff}
	blue  = Color{B: 0xff, A: 0xff}
)

type missRecord struct {
	kind MissKind
	id   string
}

func newTestSoftware(t *testing.T, w, h int) (*Software, *[]missRecord) {
	t.Helper()
	var misses []missRecord
	s := NewSoftware(Options{
		Assets: store.NewAssets(),
		OnMiss: func(kind MissKind, id string) { misses = append(misses, missRecord{kind, id}) },
	})
	if err := s.BeginFrame(w, h, white); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	return s, &misses
}

func pixel(s *Software, x, y int) Color {
	c := s.Image().RGBAAt(x, y)
	return Color{R: c.R, G: c.G, B: c.B, A: c.A}
}

func checkPixels(t *testing.T, s *Software, want map[[2]int]Color) {
	t.Helper()
	for p, c := range want {
		if got := pixel(s, p[0], p[1]); got != c {
			t.Errorf("pixel %v = %+v, want %+v", p, got, c)
		}
	}
}

func TestSoftware_SolidRect(t *testing.T) {
	s, _ := newTestSoftware(t, 40, 40)
	s.Translate(10, 10)
	s.FillColor(red)
	s.DrawRect(20, 20, true, false)
	if err := s.EndFrame(); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
	checkPixels(t, s, map[[2]int]Color{
		{5, 5}:   white,
		{10, 10}: red,
		{20, 20}: red,
		{29, 29}: red,
		{30, 30}: white,
		{35, 20}: white,
	})
}

func TestSoftware_FillThenStroke(t *testing.T) {
	s, _ := newTestSoftware(t, 40, 40)
	s.Translate(10, 10)
	s.FillColor(red)
	s.StrokeColor(blue)
	s.StrokeWidth(4)
	s.DrawRect(20, 20, true, true)

	checkPixels(t, s, map[[2]int]Color{
		{20, 20}: red,
		{9, 20}:  blue,
		{11, 20}: blue, // stroke drawn over the fill
		{20, 31}: blue,
		{5, 20}:  white,
	})
	if st := s.DrawStats(); st.Fills != 1 || st.Strokes != 1 {
		t.Errorf("DrawStats = %+v", st)
	}
}

func TestSoftware_StrokeOnly(t *testing.T) {
	s, _ := newTestSoftware(t, 40, 40)
	s.FillColor(red)
	s.StrokeColor(blue)
	s.StrokeWidth(4)
	s.DrawLine(5, 20, 35, 20, true)

	checkPixels(t, s, map[[2]int]Color{
		{20, 19}: blue,
		{20, 20}: blue,
		{20, 25}: white,
		{2, 20}:  white, // butt caps end at the endpoints
	})

	s.DrawLine(5, 30, 35, 30, false)
	if got := pixel(s, 20, 30); got != white {
		t.Errorf("unflagged line drew %+v", got)
	}
}

func TestSoftware_PushPop(t *testing.T) {
	s, _ := newTestSoftware(t, 40, 40)

	s.PopState() // nothing pushed
	if d := s.Depth(); d != 0 {
		t.Fatalf("Depth after stray pop = %d", d)
	}

	s.PushState()
	s.FillColor(red)
	s.Translate(20, 20)
	if d := s.Depth(); d != 1 {
		t.Errorf("Depth = %d, want 1", d)
	}
	s.PopState()

	st := s.State()
	if st.Fill.Color != Black || st.Matrix != Identity() {
		t.Errorf("state after pop = %+v", st)
	}
	s.DrawRect(10, 10, true, false)
	checkPixels(t, s, map[[2]int]Color{
		{5, 5}:   Black,
		{25, 25}: white,
	})
}

func TestSoftware_Scissor(t *testing.T) {
	t.Run("single", func(t *testing.T) {
		s, _ := newTestSoftware(t, 40, 40)
		s.Scissor(10, 10)
		s.FillColor(red)
		s.DrawRect(40, 40, true, false)
		checkPixels(t, s, map[[2]int]Color{
			{5, 5}:   red,
			{15, 15}: white,
		})
	})
	t.Run("nested intersects", func(t *testing.T) {
		s, _ := newTestSoftware(t, 40, 40)
		s.Scissor(20, 20)
		s.Translate(10, 10)
		s.Scissor(20, 20)
		s.Translate(-10, -10)
		s.FillColor(red)
		s.DrawRect(40, 40, true, false)
		checkPixels(t, s, map[[2]int]Color{
			{5, 5}:   white,
			{15, 15}: red,
			{25, 25}: white,
		})
	})
	t.Run("restored by pop", func(t *testing.T) {
		s, _ := newTestSoftware(t, 40, 40)
		s.PushState()
		s.Scissor(10, 10)
		s.PopState()
		s.FillColor(red)
		s.DrawRect(40, 40, true, false)
		if got := pixel(s, 30, 30); got != red {
			t.Errorf("pixel after pop = %+v, want red", got)
		}
	})
}

func TestSoftware_UnknownIDs(t *testing.T) {
	s, misses := newTestSoftware(t, 20, 20)
	s.FillColor(red)
	s.FillImage("nope")
	s.StrokeStream("gone")
	s.Font("nofont")
	s.DrawSprites("atlas", []Sprite{{SW: 1, SH: 1, DW: 10, DH: 10}})

	if st := s.State(); st.Fill.Kind != PaintSolid || st.Fill.Color != red || st.Font != "" {
		t.Errorf("state changed by unknown ids: %+v", st)
	}
	want := []missRecord{
		{MissImage, "nope"},
		{MissStream, "gone"},
		{MissFont, "nofont"},
		{MissImage, "atlas"},
	}
	if len(*misses) != len(want) {
		t.Fatalf("misses = %v, want %v", *misses, want)
	}
	for i := range want {
		if (*misses)[i] != want[i] {
			t.Errorf("miss %d = %v, want %v", i, (*misses)[i], want[i])
		}
	}
	if got := pixel(s, 5, 5); got != white {
		t.Errorf("unknown sprite image drew %+v", got)
	}

	s.DrawRect(10, 10, true, false)
	if got := pixel(s, 5, 5); got != red {
		t.Errorf("fill after unknown image = %+v, want red", got)
	}
}

func putAtlas(t *testing.T, assets *store.Assets) {
	t.Helper()
	// 2x2: red, blue / white, black
	blob := []byte{
		0xff, 0, 0, 0xff, 0, 0, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0, 0, 0, 0xff,
	}
	if _, err := assets.Images.Put([]byte("atlas"), 2, 2, store.FormatRGBA, blob); err != nil {
		t.Fatalf("Put: %v", err)
	}
}

func TestSoftware_Sprites(t *testing.T) {
	assets := store.NewAssets()
	putAtlas(t, assets)
	s := NewSoftware(Options{Assets: assets})
	if err := s.BeginFrame(40, 40, white); err != nil {
		t.Fatal(err)
	}
	s.DrawSprites("atlas", []Sprite{
		{SX: 1, SY: 0, SW: 1, SH: 1, DX: 0, DY: 0, DW: 10, DH: 10},
		{SX: 0, SY: 1, SW: 0, SH: 1, DX: 20, DY: 20, DW: 10, DH: 10}, // zero source width
		{SX: 0, SY: 0, SW: 2, SH: 2, DX: 20, DY: 0, DW: 20, DH: 20},
	})
	checkPixels(t, s, map[[2]int]Color{
		{1, 1}:   blue,
		{9, 9}:   blue,
		{12, 5}:  white,
		{25, 25}: white,
		{22, 2}:  red,
		{38, 2}:  blue,
		{22, 18}: white,
		{38, 18}: Black,
	})
}

func TestSoftware_ImageFillRepeats(t *testing.T) {
	assets := store.NewAssets()
	putAtlas(t, assets)
	s := NewSoftware(Options{Assets: assets})
	if err := s.BeginFrame(8, 8, white); err != nil {
		t.Fatal(err)
	}
	s.FillImage("atlas")
	s.DrawRect(8, 8, true, false)
	checkPixels(t, s, map[[2]int]Color{
		{0, 0}: red,
		{1, 0}: blue,
		{2, 0}: red,
		{5, 7}: Black,
	})
}

func TestSoftware_LinearGradient(t *testing.T) {
	s, _ := newTestSoftware(t, 40, 10)
	s.FillLinear(0, 0, 40, 0, Black, white)
	s.DrawRect(40, 10, true, false)
	left, right := pixel(s, 0, 5), pixel(s, 39, 5)
	if left.R >= right.R {
		t.Errorf("gradient not increasing: left %+v, right %+v", left, right)
	}
	if left.R > 0x10 || right.R < 0xf0 {
		t.Errorf("gradient ends = %+v, %+v", left, right)
	}
}

func TestSoftware_TransparentPaintDrawsNothing(t *testing.T) {
	s, _ := newTestSoftware(t, 10, 10)
	s.FillColor(Color{R: 0xff})
	s.DrawRect(10, 10, true, false)
	if got := pixel(s, 5, 5); got != white {
		t.Errorf("pixel = %+v", got)
	}
	if st := s.DrawStats(); st.DrawCalls != 0 {
		t.Errorf("DrawCalls = %d", st.DrawCalls)
	}
}

func TestSoftware_Text(t *testing.T) {
	s, _ := newTestSoftware(t, 60, 40)
	s.Translate(2, 2)
	s.FontSize(20)
	s.TextBase(BaseTop)
	s.TextAlign(AlignLeft)
	s.DrawText([]byte("Hi"))

	st := s.State()
	if st.Align != AlignLeft || st.Base != BaseAlphabetic {
		t.Errorf("text anchors not reset: align %v base %v", st.Align, st.Base)
	}

	var inked, above int
	b := s.Image().Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if s.Image().RGBAAt(x, y) != (color.RGBA{0xff, 0xff, 0xff, 0xff}) {
				inked++
				if y < 2 {
					above++
				}
			}
		}
	}
	if inked == 0 {
		t.Error("text drew nothing")
	}
	if above != 0 {
		t.Errorf("top-anchored text drew %d pixels above the origin", above)
	}
}

func TestSoftware_TextResetsWithoutDrawing(t *testing.T) {
	s, _ := newTestSoftware(t, 10, 10)
	s.TextAlign(AlignRight)
	s.TextBase(BaseBottom)
	s.DrawText(nil)
	if st := s.State(); st.Align != AlignLeft || st.Base != BaseAlphabetic {
		t.Errorf("anchors = %v, %v", st.Align, st.Base)
	}
}

func TestSoftware_TextWithLoadedFont(t *testing.T) {
	assets := store.NewAssets()
	if _, err := assets.Fonts.Put([]byte("sans"), goregular.TTF); err != nil {
		t.Fatal(err)
	}
	s := NewSoftware(Options{Assets: assets})
	if err := s.BeginFrame(40, 40, white); err != nil {
		t.Fatal(err)
	}
	s.Font("sans")
	s.FontSize(24)
	s.Translate(4, 30)
	s.DrawText([]byte("M"))
	if err := s.EndFrame(); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
	if s.DrawStats().Texts != 1 {
		t.Errorf("Texts = %d", s.DrawStats().Texts)
	}
	inked := false
	for x := 4; x < 20; x++ {
		if pixel(s, x, 20) != white {
			inked = true
		}
	}
	if !inked {
		t.Error("no ink across the glyph at half height")
	}
}

func TestSoftware_BeginFrame(t *testing.T) {
	s := NewSoftware(Options{})
	if err := s.BeginFrame(0, 10, white); err == nil {
		t.Error("BeginFrame accepted zero width")
	}
	if err := s.BeginFrame(10, 10, red); err != nil {
		t.Fatal(err)
	}
	if err := s.BeginFrame(20, 5, blue); err != nil {
		t.Fatal(err)
	}
	if b := s.Image().Bounds(); b.Dx() != 20 || b.Dy() != 5 {
		t.Errorf("surface = %v", b)
	}
	if got := pixel(s, 19, 4); got != blue {
		t.Errorf("clear colour = %+v", got)
	}
}

func TestSoftware_HugeCoordinates(t *testing.T) {
	t.Run("stroke to far point", func(t *testing.T) {
		s, _ := newTestSoftware(t, 40, 30)
		s.StrokeColor(blue)
		s.StrokeWidth(4)
		s.DrawLine(0, 0, -1e30, 10, true)
		s.DrawLine(20, 15, 1e30, 15, true)
		checkPixels(t, s, map[[2]int]Color{
			{30, 15}: blue,
			{30, 5}:  white,
		})
	})

	t.Run("fill covering everything", func(t *testing.T) {
		s, _ := newTestSoftware(t, 20, 20)
		s.FillColor(red)
		s.BeginPath()
		s.MoveTo(-1e30, -1e30)
		s.LineTo(1e30, -1e30)
		s.LineTo(1e30, 1e30)
		s.LineTo(-1e30, 1e30)
		s.ClosePath()
		s.FillPath()
		checkPixels(t, s, map[[2]int]Color{
			{0, 0}:   red,
			{10, 10}: red,
			{19, 19}: red,
		})
	})

	t.Run("non-finite points", func(t *testing.T) {
		s, _ := newTestSoftware(t, 20, 20)
		s.StrokeColor(blue)
		s.StrokeWidth(2)
		s.DrawLine(0, 0, math.NaN(), 10, true)
		s.DrawLine(math.Inf(-1), 5, 10, 5, true)
		s.FillColor(red)
		s.DrawTriangle(0, 0, math.Inf(1), 0, 0, math.NaN(), true, false)
		if got := pixel(s, 10, 15); got != white {
			t.Errorf("pixel = %+v, want untouched", got)
		}
	})
}
