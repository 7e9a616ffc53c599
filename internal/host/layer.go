package host

import "fmt"

// Layer asks the window manager to keep a window above or below normal
// windows.
type Layer int

const (
	LayerNormal Layer = 0
	LayerAbove  Layer = 1
	LayerBelow  Layer = -1
)

// LayerFromInt maps a config value onto a Layer: positive is above,
// negative is below.
func LayerFromInt(v int) Layer {
	switch {
	case v > 0:
		return LayerAbove
	case v < 0:
		return LayerBelow
	default:
		return LayerNormal
	}
}

func (l Layer) String() string {
	switch l {
	case LayerNormal:
		return "normal"
	case LayerAbove:
		return "above"
	case LayerBelow:
		return "below"
	default:
		return fmt.Sprintf("Layer(%d)", int(l))
	}
}

// stateAtom is the _NET_WM_STATE value for the layer, empty for normal.
func (l Layer) stateAtom() string {
	switch l {
	case LayerAbove:
		return "_NET_WM_STATE_ABOVE"
	case LayerBelow:
		return "_NET_WM_STATE_BELOW"
	default:
		return ""
	}
}
