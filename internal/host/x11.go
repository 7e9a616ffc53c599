package host

// X11Options configures NewX11.
type X11Options struct {
	Width, Height int
	Title         string
	Layer         Layer
	// EventBuffer sizes the event channel; events are dropped when it is
	// full.
	EventBuffer int
}

// KeyUnknown is sent for keys the host cannot name. Scancodes are still
// forwarded.
const KeyUnknown uint32 = 0xFFFFFFFF
