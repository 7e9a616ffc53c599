package host

// CompositorStatus is the detected compositing state of the display.
type CompositorStatus int

const (
	CompositorUnknown CompositorStatus = iota
	CompositorActive
	CompositorInactive
)

func (cs CompositorStatus) String() string {
	switch cs {
	case CompositorActive:
		return "active"
	case CompositorInactive:
		return "inactive"
	default:
		return "unknown"
	}
}
