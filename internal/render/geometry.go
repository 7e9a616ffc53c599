package render

import "math"

// pathBuilder appends user-space geometry to a device-space Path through
// the current transform.
type pathBuilder struct {
	p *Path
	m Matrix
}

func (b pathBuilder) pt(x, y float64) Point {
	dx, dy := b.m.Apply(x, y)
	return Point{dx, dy}
}

func (b pathBuilder) moveTo(x, y float64) { b.p.MoveTo(b.pt(x, y)) }
func (b pathBuilder) lineTo(x, y float64) { b.p.LineTo(b.pt(x, y)) }

func (b pathBuilder) cubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	b.p.CubicTo(b.pt(c1x, c1y), b.pt(c2x, c2y), b.pt(x, y))
}

func (b pathBuilder) quadTo(cx, cy, x, y float64) {
	b.p.QuadTo(b.pt(cx, cy), b.pt(x, y))
}

// userCurrent returns the current point in user space.
func (b pathBuilder) userCurrent() (x, y float64, ok bool) {
	cur, ok := b.p.Current()
	if !ok {
		return 0, 0, false
	}
	inv, ok := b.m.Invert()
	if !ok {
		return 0, 0, false
	}
	x, y = inv.Apply(cur.X, cur.Y)
	return x, y, true
}

// ellipticArc sweeps from a0 by da radians around (cx, cy) with radii rx
// and ry. It joins the start point to the current point with a line, or
// starts a new subpath when there is none. Pieces are at most a quarter
// turn, each approximated by one cubic.
func (b pathBuilder) ellipticArc(cx, cy, rx, ry, a0, da float64) {
	if rx == 0 && ry == 0 {
		b.lineTo(cx, cy)
		return
	}
	sin0, cos0 := math.Sincos(a0)
	b.lineTo(cx+rx*cos0, cy+ry*sin0)
	if da == 0 || math.IsNaN(da) || math.IsInf(da, 0) {
		return
	}

	n := int(math.Ceil(math.Abs(da)/(math.Pi/2) - 1e-9))
	if n < 1 {
		n = 1
	}
	step := da / float64(n)
	k := 4.0 / 3.0 * math.Tan(step/4)

	a := a0
	for i := 0; i < n; i++ {
		s0, c0 := math.Sincos(a)
		a1 := a0 + step*float64(i+1)
		s1, c1 := math.Sincos(a1)
		b.cubicTo(
			cx+rx*(c0-k*s0), cy+ry*(s0+k*c0),
			cx+rx*(c1+k*s1), cy+ry*(s1-k*c1),
			cx+rx*c1, cy+ry*s1,
		)
		a = a1
	}
}

// arc follows cairo_arc and cairo_arc_negative: the end angle is moved by
// whole turns until it lies on the requested side of the start angle, and
// sweeps beyond two turns are reduced.
func (b pathBuilder) arc(cx, cy, r, a0, a1 float64, negative bool) {
	da := a1 - a0
	if !negative {
		if da < 0 {
			if da = math.Mod(da, 2*math.Pi); da < 0 {
				da += 2 * math.Pi
			}
		} else if da > 4*math.Pi {
			da = math.Mod(da, 2*math.Pi) + 2*math.Pi
		}
	} else {
		if da > 0 {
			if da = math.Mod(da, 2*math.Pi); da > 0 {
				da -= 2 * math.Pi
			}
		} else if da < -4*math.Pi {
			da = math.Mod(da, 2*math.Pi) - 2*math.Pi
		}
	}
	b.ellipticArc(cx, cy, r, r, a0, da)
}

// windingArc follows nvgArc: the sweep is clamped to one full turn in the
// direction dir.
func (b pathBuilder) windingArc(cx, cy, r, a0, a1 float64, dir Winding) {
	da := a1 - a0
	if dir == CW {
		if math.Abs(da) >= 2*math.Pi {
			da = 2 * math.Pi
		} else {
			for da < 0 {
				da += 2 * math.Pi
			}
		}
	} else {
		if math.Abs(da) >= 2*math.Pi {
			da = -2 * math.Pi
		} else {
			for da > 0 {
				da -= 2 * math.Pi
			}
		}
	}
	b.ellipticArc(cx, cy, r, r, a0, da)
}

// arcTo adds a tangent arc at the corner formed by the current point,
// (x1,y1) and (x2,y2). Degenerate corners become a line to (x1,y1).
func (b pathBuilder) arcTo(x1, y1, x2, y2, radius float64) {
	const tol = 0.01
	x0, y0, ok := b.userCurrent()
	if !ok {
		return
	}
	p0, p1, p2 := Point{x0, y0}, Point{x1, y1}, Point{x2, y2}
	if p0.near(p1, tol) || p1.near(p2, tol) || distPtSeg(p1, p0, p2) < tol*tol || radius < tol {
		b.lineTo(x1, y1)
		return
	}

	d0 := p0.sub(p1).unit()
	d1 := p2.sub(p1).unit()
	a := math.Acos(math.Max(-1, math.Min(1, d0.dot(d1))))
	d := radius / math.Tan(a/2)
	if d > 10000 {
		b.lineTo(x1, y1)
		return
	}

	var cx, cy, a0, a1 float64
	var dir Winding
	if d1.X*d0.Y-d0.X*d1.Y > 0 {
		cx = x1 + d0.X*d + d0.Y*radius
		cy = y1 + d0.Y*d - d0.X*radius
		a0 = math.Atan2(d0.X, -d0.Y)
		a1 = math.Atan2(-d1.X, d1.Y)
		dir = CW
	} else {
		cx = x1 + d0.X*d - d0.Y*radius
		cy = y1 + d0.Y*d + d0.X*radius
		a0 = math.Atan2(-d0.X, d0.Y)
		a1 = math.Atan2(d1.X, -d1.Y)
		dir = CCW
	}
	b.windingArc(cx, cy, radius, a0, a1, dir)
}

// distPtSeg returns the squared distance from p to the segment (a, b).
func distPtSeg(p, a, b Point) float64 {
	ab := b.sub(a)
	d := ab.dot(ab)
	t := p.sub(a).dot(ab)
	if d > 0 {
		t /= d
	}
	t = math.Max(0, math.Min(1, t))
	q := a.add(ab.mul(t)).sub(p)
	return q.dot(q)
}

func (b pathBuilder) rect(w, h float64) {
	b.moveTo(0, 0)
	b.lineTo(w, 0)
	b.lineTo(w, h)
	b.lineTo(0, h)
	b.p.Close()
}

// clampRadius limits a corner radius to half the shorter side.
func clampRadius(r, w, h float64) float64 {
	limit := math.Min(math.Abs(w), math.Abs(h)) / 2
	if r > limit {
		return limit
	}
	if r < 0 {
		return 0
	}
	return r
}

func (b pathBuilder) rrect(w, h, ul, ur, lr, ll float64) {
	ul = clampRadius(ul, w, h)
	ur = clampRadius(ur, w, h)
	lr = clampRadius(lr, w, h)
	ll = clampRadius(ll, w, h)
	const q = math.Pi / 2
	b.arc(ul, ul, ul, 2*q, 3*q, false)
	b.arc(w-ur, ur, ur, 3*q, 4*q, false)
	b.arc(w-lr, h-lr, lr, 0, q, false)
	b.arc(ll, h-ll, ll, q, 2*q, false)
	b.p.Close()
}

// shapeArc is the open arc shape: it starts at angle 0 and sweeps by
// radians, in the negative direction when radians is negative.
func (b pathBuilder) shapeArc(radius, radians float64) {
	b.arc(0, 0, radius, 0, radians, radians < 0)
}

func (b pathBuilder) sector(radius, radians float64) {
	b.moveTo(0, 0)
	b.lineTo(radius, 0)
	b.arc(0, 0, radius, 0, radians, radians < 0)
	b.p.Close()
}

func (b pathBuilder) ellipse(rx, ry float64) {
	b.ellipticArc(0, 0, rx, ry, 0, 2*math.Pi)
	b.p.Close()
}
