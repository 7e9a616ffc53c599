package render

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestPixelRegion(t *testing.T) {
	bounds := image.Rect(0, 0, 20, 10)
	tests := []struct {
		name string
		b    Rect
		want image.Rectangle
		ok   bool
	}{
		{"inside", Rect{2.5, 1, 5.2, 3}, image.Rect(2, 1, 6, 3), true},
		{"huge", Rect{-1e30, -1e30, 1e30, 1e30}, bounds, true},
		{"outside", Rect{30, 30, 40, 40}, image.Rectangle{}, false},
		{"nan", Rect{math.NaN(), 0, 5, 5}, image.Rectangle{}, false},
		{"inverted", Rect{5, 5, 1, 1}, image.Rectangle{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := pixelRegion(tt.b, bounds)
			if ok != tt.ok || (ok && got != tt.want) {
				t.Errorf("pixelRegion = %v, %v, want %v, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

// A path past one uint16 triangle batch still covers exactly its shape.
func TestRaster_CoverManyVertices(t *testing.T) {
	var p Path
	p.MoveTo(Point{10, 10})
	for i := 1; i <= maxBatchVertices; i++ {
		p.LineTo(Point{10 + 20*float64(i)/maxBatchVertices, 10})
	}
	p.LineTo(Point{30, 30})
	p.LineTo(Point{10, 30})
	p.Close()

	st := DefaultState()
	paint := SolidPaint(Color{R: 0xff, A: 0xff})
	var r raster

	t.Run("fill", func(t *testing.T) {
		img := r.cover(&p, &paint, &st, false, image.Rect(0, 0, 40, 40))
		if img == nil {
			t.Fatal("cover returned nil")
		}
		if img.Rect != image.Rect(10, 10, 30, 30) {
			t.Errorf("region = %v", img.Rect)
		}
		if got := img.RGBAAt(20, 20); got != (color.RGBA{R: 0xff, A: 0xff}) {
			t.Errorf("inside = %v", got)
		}
	})

	t.Run("stroke", func(t *testing.T) {
		st := st
		st.LineWidth = 2
		img := r.cover(&p, &paint, &st, true, image.Rect(0, 0, 40, 40))
		if img == nil {
			t.Fatal("cover returned nil")
		}
		if got := img.RGBAAt(20, 10); got.A == 0 {
			t.Error("edge not stroked")
		}
		if got := img.RGBAAt(20, 20); got.A != 0 {
			t.Errorf("stroke filled the interior: %v", got)
		}
	})

	t.Run("clipped to bounds", func(t *testing.T) {
		img := r.cover(&p, &paint, &st, false, image.Rect(25, 25, 40, 40))
		if img == nil || img.Rect != image.Rect(25, 25, 30, 30) {
			t.Fatalf("cover = %v", img)
		}
	})

	t.Run("transparent", func(t *testing.T) {
		clear := SolidPaint(Color{})
		if img := r.cover(&p, &clear, &st, false, image.Rect(0, 0, 40, 40)); img != nil {
			t.Error("transparent paint produced an image")
		}
	})
}

func TestBoxBounds(t *testing.T) {
	m := Identity().Translated(10, 5)
	got := boxBounds(m, 1, 2, 4, 6)
	if want := (Rect{11, 7, 14, 11}); got != want {
		t.Errorf("boxBounds = %+v, want %+v", got, want)
	}
	if got := boundsOf(m, 3, 4); got != (Rect{10, 5, 13, 9}) {
		t.Errorf("boundsOf = %+v", got)
	}

	empty := Rect{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	u := empty.union(Rect{1, 2, 3, 4}).union(Rect{-1, 3, 2, 8})
	if u != (Rect{-1, 2, 3, 8}) {
		t.Errorf("union = %+v", u)
	}
}
