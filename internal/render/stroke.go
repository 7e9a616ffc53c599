package render

import "math"

// stroker expands device-space subpaths into polygons that together cover
// the stroke outline. Every polygon is emitted with positive signed area;
// the rasteriser clamps accumulated coverage, so overlapping pieces union
// cleanly as long as their orientations agree.
type stroker struct {
	hw    float64
	cap   LineCap
	join  LineJoin
	miter float64
	emit  func(poly []Point)
	poly  []Point
}

func (s *stroker) stroke(p *Path) {
	for _, sp := range p.Subpaths() {
		s.subpath(sp)
	}
}

func (s *stroker) subpath(sp Subpath) {
	pts := sp.Points
	n := len(pts)
	if n == 0 {
		return
	}
	if n > 1 && pts[n-1] == pts[0] {
		n--
		pts = pts[:n]
	}
	if n == 1 {
		s.dot(pts[0])
		return
	}

	closed := sp.Closed && n > 2
	for i := 0; i+1 < n; i++ {
		s.segment(pts[i], pts[i+1])
	}
	for i := 1; i+1 < n; i++ {
		s.joint(pts[i-1], pts[i], pts[i+1])
	}

	if closed {
		s.segment(pts[n-1], pts[0])
		s.joint(pts[n-2], pts[n-1], pts[0])
		s.joint(pts[n-1], pts[0], pts[1])
		return
	}
	s.capAt(pts[0], pts[0].sub(pts[1]).unit())
	s.capAt(pts[n-1], pts[n-1].sub(pts[n-2]).unit())
}

func (s *stroker) segment(a, b Point) {
	d := b.sub(a).unit()
	if d == (Point{}) {
		return
	}
	o := d.perp().mul(s.hw)
	s.polygon(a.add(o), b.add(o), b.sub(o), a.sub(o))
}

// capAt closes an open end at p; d points outward.
func (s *stroker) capAt(p, d Point) {
	switch s.cap {
	case CapRound:
		s.circle(p)
	case CapSquare:
		o := d.perp().mul(s.hw)
		e := d.mul(s.hw)
		s.polygon(p.add(o), p.add(o).add(e), p.sub(o).add(e), p.sub(o))
	}
}

// dot draws a zero-length subpath: round and square caps still mark it.
func (s *stroker) dot(p Point) {
	switch s.cap {
	case CapRound:
		s.circle(p)
	case CapSquare:
		h := s.hw
		s.polygon(Point{p.X - h, p.Y - h}, Point{p.X + h, p.Y - h}, Point{p.X + h, p.Y + h}, Point{p.X - h, p.Y + h})
	}
}

func (s *stroker) joint(a, b, c Point) {
	d0 := b.sub(a).unit()
	d1 := c.sub(b).unit()
	if d0 == (Point{}) || d1 == (Point{}) {
		return
	}
	cross := d0.cross(d1)
	cos := d0.dot(d1)
	if math.Abs(cross) < 1e-9 && cos > 0 {
		return
	}
	if s.join == JoinRound {
		s.circle(b)
		return
	}

	sign := 1.0
	if cross > 0 {
		sign = -1
	}
	o0 := d0.perp().mul(s.hw * sign)
	o1 := d1.perp().mul(s.hw * sign)

	if s.join == JoinMiter && 1+cos > 1e-9 {
		ratio := math.Sqrt(2 / (1 + cos))
		if ratio <= s.miter {
			tip := b.add(o0.add(o1).unit().mul(s.hw * ratio))
			s.polygon(b, b.add(o0), tip, b.add(o1))
			return
		}
	}
	s.polygon(b, b.add(o0), b.add(o1))
}

func (s *stroker) circle(c Point) {
	n := 8
	if s.hw > flatness {
		step := 2 * math.Acos(1-flatness/s.hw)
		n = int(math.Ceil(2 * math.Pi / step))
	}
	n = max(8, min(n, maxCurveSegments))
	s.poly = s.poly[:0]
	for i := 0; i < n; i++ {
		sin, cos := math.Sincos(2 * math.Pi * float64(i) / float64(n))
		s.poly = append(s.poly, Point{c.X + s.hw*cos, c.Y + s.hw*sin})
	}
	s.flush()
}

func (s *stroker) polygon(pts ...Point) {
	s.poly = append(s.poly[:0], pts...)
	s.flush()
}

func (s *stroker) flush() {
	if signedArea(s.poly) < 0 {
		for i, j := 0, len(s.poly)-1; i < j; i, j = i+1, j-1 {
			s.poly[i], s.poly[j] = s.poly[j], s.poly[i]
		}
	}
	s.emit(s.poly)
}

func signedArea(pts []Point) float64 {
	var a float64
	for i := range pts {
		j := (i + 1) % len(pts)
		a += pts[i].cross(pts[j])
	}
	return a / 2
}
