package render

import (
	"math"
	"testing"
)

func TestClipper(t *testing.T) {
	box := Rect{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	tests := []struct {
		name string
		pts  []Point
		area float64
		n    int
	}{
		{"inside", []Point{{1, 1}, {9, 1}, {9, 9}, {1, 9}}, 64, 4},
		{"covers box", []Point{{-1e30, -1e30}, {1e30, -1e30}, {1e30, 1e30}, {-1e30, 1e30}}, 100, 4},
		{"half out", []Point{{5, 0}, {20, 0}, {20, 10}, {5, 10}}, 50, 4},
		{"reversed keeps sign", []Point{{5, 10}, {20, 10}, {20, 0}, {5, 0}}, -50, 4},
		{"outside", []Point{{20, 20}, {30, 20}, {30, 30}}, 0, 0},
		{"nan", []Point{{1, 1}, {math.NaN(), 1}, {1, 5}}, 0, 0},
		{"inf", []Point{{1, 1}, {math.Inf(1), 1}, {1, 5}}, 0, 0},
	}
	var c clipper
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.clip(tt.pts, box)
			if len(got) != tt.n {
				t.Fatalf("clip = %v, want %d points", got, tt.n)
			}
			if a := signedArea(got); math.Abs(a-tt.area) > 1e-9 {
				t.Errorf("area = %v, want %v", a, tt.area)
			}
			for _, p := range got {
				if p.X < box.MinX || p.X > box.MaxX || p.Y < box.MinY || p.Y > box.MaxY {
					t.Errorf("point %v outside box", p)
				}
			}
		})
	}
}

func TestRectPixels_Huge(t *testing.T) {
	r := Rect{MinX: -1e30, MinY: 2, MaxX: 1e30, MaxY: 4}.Pixels()
	if r.Empty() || r.Min.Y != 2 || r.Max.Y != 4 || r.Min.X >= 0 || r.Max.X <= 0 {
		t.Errorf("Pixels = %v", r)
	}
}
