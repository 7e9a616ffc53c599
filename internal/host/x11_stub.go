//go:build !linux

package host

import (
	"errors"

	"github.com/opd-ai/go-scenic/internal/driver"
	"github.com/opd-ai/go-scenic/internal/render"
)

var errNoX11 = errors.New("host: the x11 presenter is only available on Linux")

// X11 is unavailable outside Linux.
type X11 struct{}

// NewX11 always fails outside Linux.
func NewX11(opts X11Options) (*X11, error) { return nil, errNoX11 }

func (x *X11) Events() <-chan driver.Event    { return nil }
func (x *X11) Size() (int, int)               { return 0, 0 }
func (x *X11) Present(b render.Backend) error { return errNoX11 }
func (x *X11) Close()                         {}
