package script

import (
	"errors"
	"fmt"

	"github.com/opd-ai/go-scenic/internal/render"
	"github.com/opd-ai/go-scenic/internal/store"
	"github.com/opd-ai/go-scenic/internal/wire"
)

// DefaultMaxDepth bounds draw_script nesting when Interpreter.MaxDepth is 0.
const DefaultMaxDepth = 64

// DefaultMaxOps bounds the opcodes one Render may execute when
// Interpreter.MaxOps is 0. Depth alone does not bound work: a script that
// draws itself twice doubles at every level.
const DefaultMaxOps = 1 << 20

// ErrUnknownOp is returned for a tag outside the opcode table. The payload
// length of such an op cannot be known, so the rest of its script is dropped.
var ErrUnknownOp = errors.New("unknown opcode")

// Logger receives interpreter diagnostics. It is satisfied by the public
// scenic.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Stats summarises one Render call.
type Stats struct {
	// Ops counts opcodes executed across every nested script.
	Ops int
	// Scripts counts script bodies entered, the root included.
	Scripts int
	// Aborted is set when any script stopped early on a decode error.
	Aborted bool
	// MaxDepth is the deepest draw_script nesting reached.
	MaxDepth int
	// OverBudget is set when the op budget ran out and the remaining
	// scripts were skipped.
	OverBudget bool
}

// Interpreter replays stored scripts against a backend. It keeps scratch
// buffers between calls and must not be shared between goroutines.
type Interpreter struct {
	Scripts  *store.ScriptStore
	Log      Logger
	MaxDepth int
	MaxOps   int

	sprites []render.Sprite
}

// New returns an Interpreter reading from scripts.
func New(scripts *store.ScriptStore, log Logger) *Interpreter {
	return &Interpreter{Scripts: scripts, Log: log, MaxDepth: DefaultMaxDepth, MaxOps: DefaultMaxOps}
}

// Render executes the script stored under id. A missing script is a no-op.
// Decode failures abort only the script they occur in; every push left open
// by a script is popped before it returns, so the backend's state depth is
// the same after Render as before it.
func (in *Interpreter) Render(b render.Backend, id string) Stats {
	var st Stats
	in.run(b, id, 0, &st)
	return st
}

func (in *Interpreter) logger() Logger {
	if in.Log == nil {
		return nopLogger{}
	}
	return in.Log
}

func (in *Interpreter) maxDepth() int {
	if in.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return in.MaxDepth
}

func (in *Interpreter) maxOps() int {
	if in.MaxOps <= 0 {
		return DefaultMaxOps
	}
	return in.MaxOps
}

// spent reports whether the op budget is used up, warning the first time.
func (in *Interpreter) spent(st *Stats, id string) bool {
	if st.OverBudget {
		return true
	}
	if st.Ops < in.maxOps() {
		return false
	}
	st.OverBudget = true
	st.Aborted = true
	in.logger().Warn("render op budget exhausted", "script", id, "ops", st.Ops, "scripts", st.Scripts)
	return true
}

// frame is the per-invocation decode state.
type frame struct {
	b      render.Backend
	r      *wire.Reader
	id     string
	depth  int
	pushes int
	f      [8]float32
	v      [8]float64
}

func (in *Interpreter) run(b render.Backend, id string, depth int, st *Stats) {
	if in.Scripts == nil || in.spent(st, id) {
		return
	}
	body, ok := in.Scripts.Body(id)
	if !ok {
		in.logger().Debug("script not found", "script", id)
		return
	}
	st.Scripts++
	if depth > st.MaxDepth {
		st.MaxDepth = depth
	}

	fr := &frame{b: b, r: wire.NewReader(body), id: id, depth: depth}
	for !fr.r.Done() {
		if in.spent(st, id) {
			break
		}
		pos := fr.r.Pos()
		op, param, err := fr.header()
		if err == nil {
			err = in.exec(fr, op, param, st)
		}
		if err != nil {
			in.logger().Error("aborting script", "script", id, "op", op.String(), "offset", pos, "error", err)
			st.Aborted = true
			break
		}
		st.Ops++
	}
	for ; fr.pushes > 0; fr.pushes-- {
		b.PopState()
	}
}

func (fr *frame) header() (Op, uint16, error) {
	op, err := fr.r.U16()
	if err != nil {
		return 0, 0, err
	}
	param, err := fr.r.U16()
	if err != nil {
		return Op(op), 0, err
	}
	return Op(op), param, nil
}

// floats reads n big-endian f32 values into the scratch array.
func (fr *frame) floats(n int) ([]float64, error) {
	if err := fr.r.F32s(fr.f[:n]); err != nil {
		return nil, err
	}
	for i, v := range fr.f[:n] {
		fr.v[i] = float64(v)
	}
	return fr.v[:n], nil
}

func (fr *frame) readID(n uint16) (string, error) {
	b, err := fr.r.PaddedBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (fr *frame) color() (render.Color, error) {
	b, err := fr.r.Bytes(4)
	if err != nil {
		return render.Color{}, err
	}
	return render.Color{R: b[0], G: b[1], B: b[2], A: b[3]}, nil
}

// gradient reads four floats followed by two colours.
func (fr *frame) gradient() ([]float64, render.Color, render.Color, error) {
	v, err := fr.floats(4)
	if err != nil {
		return nil, render.Color{}, render.Color{}, err
	}
	c0, err := fr.color()
	if err != nil {
		return nil, render.Color{}, render.Color{}, err
	}
	c1, err := fr.color()
	if err != nil {
		return nil, render.Color{}, render.Color{}, err
	}
	return v, c0, c1, nil
}

func flags(param uint16) (fill, stroke bool) {
	return param&FlagFill != 0, param&FlagStroke != 0
}

func (in *Interpreter) exec(fr *frame, op Op, param uint16, st *Stats) error {
	b := fr.b
	fill, stroke := flags(param)

	switch op {
	case OpDrawLine:
		v, err := fr.floats(4)
		if err != nil {
			return err
		}
		b.DrawLine(v[0], v[1], v[2], v[3], stroke)
	case OpDrawTriangle:
		v, err := fr.floats(6)
		if err != nil {
			return err
		}
		b.DrawTriangle(v[0], v[1], v[2], v[3], v[4], v[5], fill, stroke)
	case OpDrawQuad:
		v, err := fr.floats(8)
		if err != nil {
			return err
		}
		b.DrawQuad(v[0], v[1], v[2], v[3], v[4], v[5], v[6], v[7], fill, stroke)
	case OpDrawRect:
		v, err := fr.floats(2)
		if err != nil {
			return err
		}
		b.DrawRect(v[0], v[1], fill, stroke)
	case OpDrawRRect:
		v, err := fr.floats(3)
		if err != nil {
			return err
		}
		b.DrawRRect(v[0], v[1], v[2], fill, stroke)
	case OpDrawRRectV:
		v, err := fr.floats(6)
		if err != nil {
			return err
		}
		b.DrawRRectV(v[0], v[1], v[2], v[3], v[4], v[5], fill, stroke)
	case OpDrawArc:
		v, err := fr.floats(2)
		if err != nil {
			return err
		}
		b.DrawArc(v[0], v[1], fill, stroke)
	case OpDrawSector:
		v, err := fr.floats(2)
		if err != nil {
			return err
		}
		b.DrawSector(v[0], v[1], fill, stroke)
	case OpDrawCircle:
		v, err := fr.floats(1)
		if err != nil {
			return err
		}
		b.DrawCircle(v[0], fill, stroke)
	case OpDrawEllipse:
		v, err := fr.floats(2)
		if err != nil {
			return err
		}
		b.DrawEllipse(v[0], v[1], fill, stroke)
	case OpDrawText:
		text, err := fr.r.PaddedBytes(int(param))
		if err != nil {
			return err
		}
		b.DrawText(text)
	case OpDrawSprites:
		return in.drawSprites(fr, param)
	case OpDrawScript:
		id, err := fr.readID(param)
		if err != nil {
			return err
		}
		if fr.depth+1 > in.maxDepth() {
			in.logger().Warn("script nesting too deep", "script", id, "parent", fr.id, "depth", fr.depth+1)
			return nil
		}
		b.PushState()
		in.run(b, id, fr.depth+1, st)
		b.PopState()

	case OpBeginPath:
		b.BeginPath()
	case OpClosePath:
		b.ClosePath()
	case OpFillPath:
		b.FillPath()
	case OpStrokePath:
		b.StrokePath()
	case OpMoveTo:
		v, err := fr.floats(2)
		if err != nil {
			return err
		}
		b.MoveTo(v[0], v[1])
	case OpLineTo:
		v, err := fr.floats(2)
		if err != nil {
			return err
		}
		b.LineTo(v[0], v[1])
	case OpArcTo:
		v, err := fr.floats(5)
		if err != nil {
			return err
		}
		b.ArcTo(v[0], v[1], v[2], v[3], v[4])
	case OpBezierTo:
		v, err := fr.floats(6)
		if err != nil {
			return err
		}
		b.BezierTo(v[0], v[1], v[2], v[3], v[4], v[5])
	case OpQuadraticTo:
		v, err := fr.floats(4)
		if err != nil {
			return err
		}
		b.QuadraticTo(v[0], v[1], v[2], v[3])
	case OpArc:
		v, err := fr.floats(5)
		if err != nil {
			return err
		}
		dir, err := fr.r.U32()
		if err != nil {
			return err
		}
		b.Arc(v[0], v[1], v[2], v[3], v[4], render.Winding(dir))

	case OpPushState:
		b.PushState()
		fr.pushes++
	case OpPopState:
		if fr.pushes > 0 {
			b.PopState()
			fr.pushes--
		}
	case OpPopPushState:
		if fr.pushes > 0 {
			b.PopState()
			fr.pushes--
		}
		b.PushState()
		fr.pushes++
	case OpScissor:
		v, err := fr.floats(2)
		if err != nil {
			return err
		}
		b.Scissor(v[0], v[1])

	case OpTransform:
		v, err := fr.floats(6)
		if err != nil {
			return err
		}
		b.Transform(render.MatrixFromWire(v[0], v[1], v[2], v[3], v[4], v[5]))
	case OpScale:
		v, err := fr.floats(2)
		if err != nil {
			return err
		}
		b.Scale(v[0], v[1])
	case OpRotate:
		v, err := fr.floats(1)
		if err != nil {
			return err
		}
		b.Rotate(v[0])
	case OpTranslate:
		v, err := fr.floats(2)
		if err != nil {
			return err
		}
		b.Translate(v[0], v[1])

	case OpFillColor, OpStrokeColor:
		c, err := fr.color()
		if err != nil {
			return err
		}
		if op == OpFillColor {
			b.FillColor(c)
		} else {
			b.StrokeColor(c)
		}
	case OpFillLinear, OpStrokeLinear:
		v, c0, c1, err := fr.gradient()
		if err != nil {
			return err
		}
		if op == OpFillLinear {
			b.FillLinear(v[0], v[1], v[2], v[3], c0, c1)
		} else {
			b.StrokeLinear(v[0], v[1], v[2], v[3], c0, c1)
		}
	case OpFillRadial, OpStrokeRadial:
		v, c0, c1, err := fr.gradient()
		if err != nil {
			return err
		}
		if op == OpFillRadial {
			b.FillRadial(v[0], v[1], v[2], v[3], c0, c1)
		} else {
			b.StrokeRadial(v[0], v[1], v[2], v[3], c0, c1)
		}
	case OpFillImage, OpFillStream, OpStrokeImage, OpStrokeStream:
		id, err := fr.readID(param)
		if err != nil {
			return err
		}
		switch op {
		case OpFillImage:
			b.FillImage(id)
		case OpFillStream:
			b.FillStream(id)
		case OpStrokeImage:
			b.StrokeImage(id)
		default:
			b.StrokeStream(id)
		}

	case OpStrokeWidth:
		b.StrokeWidth(float64(param) / 4)
	case OpLineCap:
		b.LineCap(render.LineCap(param))
	case OpLineJoin:
		b.LineJoin(render.LineJoin(param))
	case OpMiterLimit:
		b.MiterLimit(float64(param))
	case OpFont:
		id, err := fr.readID(param)
		if err != nil {
			return err
		}
		b.Font(id)
	case OpFontSize:
		b.FontSize(float64(param) / 4)
	case OpTextAlign:
		b.TextAlign(render.TextAlign(param))
	case OpTextBase:
		b.TextBase(render.TextBase(param))

	default:
		return fmt.Errorf("%w 0x%02x", ErrUnknownOp, uint16(op))
	}
	return nil
}

const spriteSize = 8 * 4

func (in *Interpreter) drawSprites(fr *frame, param uint16) error {
	count, err := fr.r.U32()
	if err != nil {
		return err
	}
	id, err := fr.readID(param)
	if err != nil {
		return err
	}
	if uint64(count)*spriteSize > uint64(fr.r.Remaining()) {
		return fmt.Errorf("%w: %d sprites at offset %d", wire.ErrShortBuffer, count, fr.r.Pos())
	}

	in.sprites = in.sprites[:0]
	for i := uint32(0); i < count; i++ {
		if err := fr.r.F32s(fr.f[:]); err != nil {
			return err
		}
		f := fr.f
		in.sprites = append(in.sprites, render.Sprite{
			SX: float64(f[0]), SY: float64(f[1]), SW: float64(f[2]), SH: float64(f[3]),
			DX: float64(f[4]), DY: float64(f[5]), DW: float64(f[6]), DH: float64(f[7]),
		})
	}
	fr.b.DrawSprites(id, in.sprites)
	return nil
}
