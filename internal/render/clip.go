package render

import "math"

// clipper cuts closed contours to a box with Sutherland-Hodgman. Winding
// inside the box is unchanged, so nonzero fills rasterise the same pixels
// while the rasteriser never sees coordinates far outside its area.
type clipper struct {
	buf [2][]Point
}

// clip returns pts cut to box, or pts itself when it already fits. A
// contour with a NaN or infinite point is dropped.
func (c *clipper) clip(pts []Point, box Rect) []Point {
	fits := true
	for _, p := range pts {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return nil
		}
		if p.X < box.MinX || p.X > box.MaxX || p.Y < box.MinY || p.Y > box.MaxY {
			fits = false
		}
	}
	if fits {
		return pts
	}

	in := pts
	for edge := range 4 {
		if len(in) == 0 {
			return nil
		}
		out := c.buf[edge%2][:0]
		prev := in[len(in)-1]
		prevIn := inside(prev, edge, box)
		for _, cur := range in {
			curIn := inside(cur, edge, box)
			if curIn != prevIn {
				out = append(out, crossing(prev, cur, edge, box))
			}
			if curIn {
				out = append(out, cur)
			}
			prev, prevIn = cur, curIn
		}
		c.buf[edge%2] = out
		in = out
	}
	return in
}

func inside(p Point, edge int, box Rect) bool {
	switch edge {
	case 0:
		return p.X >= box.MinX
	case 1:
		return p.X <= box.MaxX
	case 2:
		return p.Y >= box.MinY
	default:
		return p.Y <= box.MaxY
	}
}

// crossing is where segment a-b meets the edge line. a and b lie on
// opposite sides, so the denominator is never zero.
func crossing(a, b Point, edge int, box Rect) Point {
	switch edge {
	case 0, 1:
		x := box.MinX
		if edge == 1 {
			x = box.MaxX
		}
		t := (x - a.X) / (b.X - a.X)
		return Point{x, a.Y + t*(b.Y-a.Y)}
	default:
		y := box.MinY
		if edge == 3 {
			y = box.MaxY
		}
		t := (y - a.Y) / (b.Y - a.Y)
		return Point{a.X + t*(b.X-a.X), y}
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
