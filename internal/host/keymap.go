package host

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/opd-ai/go-scenic/internal/driver"
)

// keyCodes maps ebiten keys onto the key numbers the host protocol uses
// (printable keys are their ASCII code, named keys start at 256).
var keyCodes = map[ebiten.Key]uint32{
	ebiten.KeySpace:        32,
	ebiten.KeyQuote:        39,
	ebiten.KeyComma:        44,
	ebiten.KeyMinus:        45,
	ebiten.KeyPeriod:       46,
	ebiten.KeySlash:        47,
	ebiten.KeyDigit0:       48,
	ebiten.KeyDigit1:       49,
	ebiten.KeyDigit2:       50,
	ebiten.KeyDigit3:       51,
	ebiten.KeyDigit4:       52,
	ebiten.KeyDigit5:       53,
	ebiten.KeyDigit6:       54,
	ebiten.KeyDigit7:       55,
	ebiten.KeyDigit8:       56,
	ebiten.KeyDigit9:       57,
	ebiten.KeySemicolon:    59,
	ebiten.KeyEqual:        61,
	ebiten.KeyA:            65,
	ebiten.KeyB:            66,
	ebiten.KeyC:            67,
	ebiten.KeyD:            68,
	ebiten.KeyE:            69,
	ebiten.KeyF:            70,
	ebiten.KeyG:            71,
	ebiten.KeyH:            72,
	ebiten.KeyI:            73,
	ebiten.KeyJ:            74,
	ebiten.KeyK:            75,
	ebiten.KeyL:            76,
	ebiten.KeyM:            77,
	ebiten.KeyN:            78,
	ebiten.KeyO:            79,
	ebiten.KeyP:            80,
	ebiten.KeyQ:            81,
	ebiten.KeyR:            82,
	ebiten.KeyS:            83,
	ebiten.KeyT:            84,
	ebiten.KeyU:            85,
	ebiten.KeyV:            86,
	ebiten.KeyW:            87,
	ebiten.KeyX:            88,
	ebiten.KeyY:            89,
	ebiten.KeyZ:            90,
	ebiten.KeyBracketLeft:  91,
	ebiten.KeyBackslash:    92,
	ebiten.KeyBracketRight: 93,
	ebiten.KeyBackquote:    96,

	ebiten.KeyEscape:       256,
	ebiten.KeyEnter:        257,
	ebiten.KeyTab:          258,
	ebiten.KeyBackspace:    259,
	ebiten.KeyInsert:       260,
	ebiten.KeyDelete:       261,
	ebiten.KeyArrowRight:   262,
	ebiten.KeyArrowLeft:    263,
	ebiten.KeyArrowDown:    264,
	ebiten.KeyArrowUp:      265,
	ebiten.KeyPageUp:       266,
	ebiten.KeyPageDown:     267,
	ebiten.KeyHome:         268,
	ebiten.KeyEnd:          269,
	ebiten.KeyCapsLock:     280,
	ebiten.KeyScrollLock:   281,
	ebiten.KeyNumLock:      282,
	ebiten.KeyPrintScreen:  283,
	ebiten.KeyPause:        284,
	ebiten.KeyF1:           290,
	ebiten.KeyF2:           291,
	ebiten.KeyF3:           292,
	ebiten.KeyF4:           293,
	ebiten.KeyF5:           294,
	ebiten.KeyF6:           295,
	ebiten.KeyF7:           296,
	ebiten.KeyF8:           297,
	ebiten.KeyF9:           298,
	ebiten.KeyF10:          299,
	ebiten.KeyF11:          300,
	ebiten.KeyF12:          301,
	ebiten.KeyShiftLeft:    340,
	ebiten.KeyControlLeft:  341,
	ebiten.KeyAltLeft:      342,
	ebiten.KeyMetaLeft:     343,
	ebiten.KeyShiftRight:   344,
	ebiten.KeyControlRight: 345,
	ebiten.KeyAltRight:     346,
	ebiten.KeyMetaRight:    347,
	ebiten.KeyContextMenu:  348,
}

// keyCode returns the protocol key number for k, or KeyUnknown.
func keyCode(k ebiten.Key) uint32 {
	if c, ok := keyCodes[k]; ok {
		return c
	}
	return KeyUnknown
}

// mouseButtons lists the buttons forwarded, with their protocol numbers.
var mouseButtons = []struct {
	button ebiten.MouseButton
	code   uint32
}{
	{ebiten.MouseButtonLeft, 0},
	{ebiten.MouseButtonRight, 1},
	{ebiten.MouseButtonMiddle, 2},
}

// modsFrom folds pressed modifier keys into protocol modifier bits.
func modsFrom(pressed func(ebiten.Key) bool) uint32 {
	var mods uint32
	if pressed(ebiten.KeyShift) {
		mods |= driver.ModShift
	}
	if pressed(ebiten.KeyControl) {
		mods |= driver.ModControl
	}
	if pressed(ebiten.KeyAlt) {
		mods |= driver.ModAlt
	}
	if pressed(ebiten.KeyMeta) {
		mods |= driver.ModSuper
	}
	return mods
}
