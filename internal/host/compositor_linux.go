//go:build linux

package host

import (
	"os"
	"os/exec"
	"strings"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// DetectCompositor reports whether an X11 compositor owns the
// _NET_WM_CM_S0 selection, falling back to looking for known compositor
// processes.
func DetectCompositor() CompositorStatus {
	if status := detectCompositorAtom(); status != CompositorUnknown {
		return status
	}
	return detectCompositorProcess()
}

func detectCompositorAtom() CompositorStatus {
	conn, err := xgb.NewConn()
	if err != nil {
		return CompositorUnknown
	}
	defer conn.Close()

	if len(xproto.Setup(conn).Roots) == 0 {
		return CompositorUnknown
	}
	const name = "_NET_WM_CM_S0"
	atom, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
	if err != nil || atom == nil {
		return CompositorUnknown
	}
	owner, err := xproto.GetSelectionOwner(conn, atom.Atom).Reply()
	if err != nil {
		return CompositorUnknown
	}
	if owner.Owner != xproto.WindowNone {
		return CompositorActive
	}
	return CompositorInactive
}

var knownCompositors = []string{
	"picom", "compton", "compiz", "mutter", "kwin", "kwin_x11",
	"kwin_wayland", "xfwm4", "marco", "muffin",
}

func detectCompositorProcess() CompositorStatus {
	if _, err := exec.LookPath("pgrep"); err != nil {
		return CompositorUnknown
	}
	for _, name := range knownCompositors {
		if exec.Command("pgrep", "-x", name).Run() == nil {
			return CompositorActive
		}
	}
	return CompositorInactive
}

// IsWayland reports whether the session runs on Wayland, where compositing
// is always available.
func IsWayland() bool {
	if strings.EqualFold(os.Getenv("XDG_SESSION_TYPE"), "wayland") {
		return true
	}
	return os.Getenv("WAYLAND_DISPLAY") != ""
}

// TransparencyWarning returns a warning when a window with the given
// opacity is unlikely to be composited, or "" when it will be.
func TransparencyWarning(opacity float64) string {
	if opacity >= 1 || IsWayland() {
		return ""
	}
	switch DetectCompositor() {
	case CompositorActive:
		return ""
	case CompositorInactive:
		return "no compositor detected; window opacity below 1 needs one and the window may render opaque"
	default:
		return "could not detect a compositor; window opacity below 1 may not take effect"
	}
}
