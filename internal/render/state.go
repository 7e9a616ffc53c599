package render

import (
	"image"
	"math"
)

// Rect is an axis-aligned rectangle in device space.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.MaxX <= r.MinX || r.MaxY <= r.MinY
}

// Intersect returns the largest rectangle contained by both r and o.
func (r Rect) Intersect(o Rect) Rect {
	r.MinX = math.Max(r.MinX, o.MinX)
	r.MinY = math.Max(r.MinY, o.MinY)
	r.MaxX = math.Min(r.MaxX, o.MaxX)
	r.MaxY = math.Min(r.MaxY, o.MaxY)
	if r.Empty() {
		return Rect{}
	}
	return r
}

// Pixels returns the integer pixel rectangle covering r.
func (r Rect) Pixels() image.Rectangle {
	if r.Empty() {
		return image.Rectangle{}
	}
	const lim = 1 << 30
	return image.Rect(
		int(math.Floor(clamp(r.MinX, -lim, lim))), int(math.Floor(clamp(r.MinY, -lim, lim))),
		int(math.Ceil(clamp(r.MaxX, -lim, lim))), int(math.Ceil(clamp(r.MaxY, -lim, lim))),
	)
}

// boundsOf returns the device-space bounding box of the user-space
// rectangle (0,0,w,h) under m.
func boundsOf(m Matrix, w, h float64) Rect {
	return boxBounds(m, 0, 0, w, h)
}

// boxBounds returns the device-space bounding box of the user-space
// rectangle (x0,y0,x1,y1) under m.
func boxBounds(m Matrix, x0, y0, x1, y1 float64) Rect {
	r := Rect{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, p := range [4][2]float64{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}} {
		x, y := m.Apply(p[0], p[1])
		r.MinX = math.Min(r.MinX, x)
		r.MinY = math.Min(r.MinY, y)
		r.MaxX = math.Max(r.MaxX, x)
		r.MaxY = math.Max(r.MaxY, y)
	}
	return r
}

// union returns the smallest Rect containing r and o.
func (r Rect) union(o Rect) Rect {
	return Rect{
		MinX: math.Min(r.MinX, o.MinX), MinY: math.Min(r.MinY, o.MinY),
		MaxX: math.Max(r.MaxX, o.MaxX), MaxY: math.Max(r.MaxY, o.MaxY),
	}
}

// State is the drawing state that PushState saves and PopState restores
// as one unit.
type State struct {
	Matrix Matrix
	Fill   Paint
	Stroke Paint

	LineWidth  float64
	Cap        LineCap
	Join       LineJoin
	MiterLimit float64

	Font     string
	FontSize float64
	Align    TextAlign
	Base     TextBase

	Scissor    Rect
	HasScissor bool
}

// DefaultState returns the state every frame starts from.
func DefaultState() State {
	return State{
		Matrix:     Identity(),
		Fill:       SolidPaint(Black),
		Stroke:     SolidPaint(Black),
		LineWidth:  1,
		Cap:        CapButt,
		Join:       JoinMiter,
		MiterLimit: 10,
		FontSize:   10,
		Align:      AlignLeft,
		Base:       BaseAlphabetic,
	}
}

// stateStack holds the current state and the saved copies beneath it.
type stateStack struct {
	cur   State
	saved []State
}

func (s *stateStack) reset(base Matrix) {
	s.cur = DefaultState()
	s.cur.Matrix = base
	s.saved = s.saved[:0]
}

func (s *stateStack) push() {
	s.saved = append(s.saved, s.cur)
}

// pop restores the most recent copy; it does nothing on an empty stack.
func (s *stateStack) pop() {
	n := len(s.saved)
	if n == 0 {
		return
	}
	s.cur = s.saved[n-1]
	s.saved[n-1] = State{}
	s.saved = s.saved[:n-1]
}

func (s *stateStack) depth() int {
	return len(s.saved)
}
