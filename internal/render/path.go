package render

import "math"

// Point is a device-space position.
type Point struct {
	X, Y float64
}

func (p Point) add(q Point) Point     { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) sub(q Point) Point     { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) mul(s float64) Point   { return Point{p.X * s, p.Y * s} }
func (p Point) dot(q Point) float64   { return p.X*q.X + p.Y*q.Y }
func (p Point) cross(q Point) float64 { return p.X*q.Y - p.Y*q.X }
func (p Point) length() float64       { return math.Hypot(p.X, p.Y) }
func (p Point) perp() Point           { return Point{-p.Y, p.X} }
func (p Point) near(q Point, eps float64) bool {
	return math.Abs(p.X-q.X) <= eps && math.Abs(p.Y-q.Y) <= eps
}

func (p Point) unit() Point {
	l := p.length()
	if l == 0 {
		return Point{}
	}
	return Point{p.X / l, p.Y / l}
}

// flatness is the maximum distance, in device pixels, between a curve and
// the polyline that replaces it.
const flatness = 0.1

const maxCurveSegments = 256

// Subpath is one connected run of points.
type Subpath struct {
	Points []Point
	Closed bool
}

// Path is a flattened path in device space. Curves are converted to line
// segments as they are added. Buffers are kept across Reset.
type Path struct {
	subs   []Subpath
	start  Point
	cur    Point
	hasCur bool
	// reopen is set after Close: the next segment starts a new subpath at
	// the closed subpath's start point.
	reopen bool
}

// Reset empties the path, keeping its allocations.
func (p *Path) Reset() {
	p.subs = p.subs[:0]
	p.hasCur = false
	p.reopen = false
}

// Subpaths returns the flattened subpaths. The slice is only valid until
// the path is next modified.
func (p *Path) Subpaths() []Subpath {
	return p.subs
}

// Empty reports whether the path has no segments.
func (p *Path) Empty() bool {
	for i := range p.subs {
		if len(p.subs[i].Points) > 1 {
			return false
		}
	}
	return true
}

// Current returns the current point.
func (p *Path) Current() (Point, bool) {
	return p.cur, p.hasCur
}

// Bounds returns the bounding box of every point in the path.
func (p *Path) Bounds() Rect {
	r := Rect{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for i := range p.subs {
		for _, q := range p.subs[i].Points {
			r.MinX = math.Min(r.MinX, q.X)
			r.MinY = math.Min(r.MinY, q.Y)
			r.MaxX = math.Max(r.MaxX, q.X)
			r.MaxY = math.Max(r.MaxY, q.Y)
		}
	}
	return r
}

func (p *Path) newSubpath(pt Point) {
	if n := len(p.subs); n < cap(p.subs) {
		p.subs = p.subs[:n+1]
		s := &p.subs[n]
		s.Points = append(s.Points[:0], pt)
		s.Closed = false
		return
	}
	p.subs = append(p.subs, Subpath{Points: []Point{pt}})
}

// MoveTo starts a new subpath.
func (p *Path) MoveTo(pt Point) {
	n := len(p.subs)
	if n > 0 && !p.reopen && len(p.subs[n-1].Points) == 1 {
		p.subs[n-1].Points[0] = pt
	} else {
		p.newSubpath(pt)
	}
	p.start, p.cur, p.hasCur, p.reopen = pt, pt, true, false
}

// LineTo adds a straight segment. Without a current point it behaves like
// MoveTo.
func (p *Path) LineTo(pt Point) {
	if !p.hasCur {
		p.MoveTo(pt)
		return
	}
	if p.reopen {
		p.newSubpath(p.start)
		p.reopen = false
	}
	s := &p.subs[len(p.subs)-1]
	if last := s.Points[len(s.Points)-1]; last != pt {
		s.Points = append(s.Points, pt)
	}
	p.cur = pt
}

// CubicTo adds a cubic Bézier from the current point.
func (p *Path) CubicTo(c1, c2, pt Point) {
	if !p.hasCur {
		p.MoveTo(c1)
	}
	p0 := p.cur
	d1 := p0.sub(c1.mul(2)).add(c2)
	d2 := c1.sub(c2.mul(2)).add(pt)
	n := curveSegments(math.Sqrt(3 * math.Max(d1.length(), d2.length()) / (4 * flatness)))
	for i := 1; i < n; i++ {
		t := float64(i) / float64(n)
		mt := 1 - t
		q := p0.mul(mt * mt * mt).
			add(c1.mul(3 * mt * mt * t)).
			add(c2.mul(3 * mt * t * t)).
			add(pt.mul(t * t * t))
		p.LineTo(q)
	}
	p.LineTo(pt)
}

// QuadTo adds a quadratic Bézier from the current point.
func (p *Path) QuadTo(c, pt Point) {
	if !p.hasCur {
		p.MoveTo(c)
	}
	p0 := p.cur
	e := p0.sub(c.mul(2)).add(pt).mul(0.25)
	n := curveSegments(math.Sqrt(e.length() / flatness))
	for i := 1; i < n; i++ {
		t := float64(i) / float64(n)
		mt := 1 - t
		p.LineTo(p0.mul(mt * mt).add(c.mul(2 * mt * t)).add(pt.mul(t * t)))
	}
	p.LineTo(pt)
}

// Close closes the current subpath. The current point returns to the
// subpath's start.
func (p *Path) Close() {
	if !p.hasCur || p.reopen || len(p.subs) == 0 {
		return
	}
	p.subs[len(p.subs)-1].Closed = true
	p.cur = p.start
	p.reopen = true
}

func curveSegments(f float64) int {
	if math.IsNaN(f) || f <= 1 {
		return 1
	}
	if f > maxCurveSegments {
		return maxCurveSegments
	}
	return int(math.Ceil(f))
}
