// Package script decodes and replays scene scripts against a render.Backend.
//
// A script is a flat sequence of opcodes. Each opcode is a 4-byte header
// (u16 tag, u16 inline parameter, both big-endian) followed by a payload
// whose size is implied by the tag. The Builder in this package produces the
// same encoding.
package script

import "fmt"

// Op is an opcode tag.
type Op uint16

// Shape opcodes. Their inline parameter carries FlagFill and FlagStroke.
const (
	OpDrawLine     Op = 0x01
	OpDrawTriangle Op = 0x02
	OpDrawQuad     Op = 0x03
	OpDrawRect     Op = 0x04
	OpDrawRRect    Op = 0x05
	OpDrawArc      Op = 0x06
	OpDrawSector   Op = 0x07
	OpDrawCircle   Op = 0x08
	OpDrawEllipse  Op = 0x09
	OpDrawText     Op = 0x0A
	OpDrawSprites  Op = 0x0B
	OpDrawRRectV   Op = 0x0C
	OpDrawScript   Op = 0x0F
)

// Path opcodes.
const (
	OpBeginPath   Op = 0x20
	OpClosePath   Op = 0x21
	OpFillPath    Op = 0x22
	OpStrokePath  Op = 0x23
	OpMoveTo      Op = 0x26
	OpLineTo      Op = 0x27
	OpArcTo       Op = 0x28
	OpBezierTo    Op = 0x29
	OpQuadraticTo Op = 0x2A
	OpArc         Op = 0x32
)

// State and transform opcodes.
const (
	OpPushState    Op = 0x40
	OpPopState     Op = 0x41
	OpPopPushState Op = 0x42
	OpScissor      Op = 0x44

	OpTransform Op = 0x50
	OpScale     Op = 0x51
	OpRotate    Op = 0x52
	OpTranslate Op = 0x53
)

// Paint and style opcodes.
const (
	OpFillColor  Op = 0x60
	OpFillLinear Op = 0x61
	OpFillRadial Op = 0x62
	OpFillImage  Op = 0x63
	OpFillStream Op = 0x64

	OpStrokeWidth  Op = 0x70
	OpStrokeColor  Op = 0x71
	OpStrokeLinear Op = 0x72
	OpStrokeRadial Op = 0x73
	OpStrokeImage  Op = 0x74
	OpStrokeStream Op = 0x75

	OpLineCap    Op = 0x80
	OpLineJoin   Op = 0x81
	OpMiterLimit Op = 0x82

	OpFont      Op = 0x90
	OpFontSize  Op = 0x91
	OpTextAlign Op = 0x92
	OpTextBase  Op = 0x93
)

// Shape flags packed into the inline parameter.
const (
	FlagFill   uint16 = 0x01
	FlagStroke uint16 = 0x02
)

var opNames = map[Op]string{
	OpDrawLine:     "draw_line",
	OpDrawTriangle: "draw_triangle",
	OpDrawQuad:     "draw_quad",
	OpDrawRect:     "draw_rect",
	OpDrawRRect:    "draw_rrect",
	OpDrawArc:      "draw_arc",
	OpDrawSector:   "draw_sector",
	OpDrawCircle:   "draw_circle",
	OpDrawEllipse:  "draw_ellipse",
	OpDrawText:     "draw_text",
	OpDrawSprites:  "draw_sprites",
	OpDrawRRectV:   "draw_rrectv",
	OpDrawScript:   "draw_script",

	OpBeginPath:   "begin_path",
	OpClosePath:   "close_path",
	OpFillPath:    "fill_path",
	OpStrokePath:  "stroke_path",
	OpMoveTo:      "move_to",
	OpLineTo:      "line_to",
	OpArcTo:       "arc_to",
	OpBezierTo:    "bezier_to",
	OpQuadraticTo: "quadratic_to",
	OpArc:         "arc",

	OpPushState:    "push_state",
	OpPopState:     "pop_state",
	OpPopPushState: "pop_push_state",
	OpScissor:      "scissor",
	OpTransform:    "transform",
	OpScale:        "scale",
	OpRotate:       "rotate",
	OpTranslate:    "translate",

	OpFillColor:    "fill_color",
	OpFillLinear:   "fill_linear",
	OpFillRadial:   "fill_radial",
	OpFillImage:    "fill_image",
	OpFillStream:   "fill_stream",
	OpStrokeWidth:  "stroke_width",
	OpStrokeColor:  "stroke_color",
	OpStrokeLinear: "stroke_linear",
	OpStrokeRadial: "stroke_radial",
	OpStrokeImage:  "stroke_image",
	OpStrokeStream: "stroke_stream",
	OpLineCap:      "line_cap",
	OpLineJoin:     "line_join",
	OpMiterLimit:   "miter_limit",
	OpFont:         "font",
	OpFontSize:     "font_size",
	OpTextAlign:    "text_align",
	OpTextBase:     "text_base",
}

// Known reports whether o is in the opcode table.
func (o Op) Known() bool {
	_, ok := opNames[o]
	return ok
}

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Op(0x%02x)", uint16(o))
}
