package driver

import (
	"sync"

	"github.com/opd-ai/go-scenic/internal/render"
	"github.com/opd-ai/go-scenic/internal/wire"
)

type missKey struct {
	kind render.MissKind
	id   string
}

// MissReporter forwards unknown asset ids to the host. Each id is reported
// at most once per frame. Report has the render.MissFunc signature so it
// can be passed straight to render.Options.
type MissReporter struct {
	up   *Upstream
	mu   sync.Mutex
	seen map[missKey]struct{}
}

// NewMissReporter returns a reporter sending on up.
func NewMissReporter(up *Upstream) *MissReporter {
	return &MissReporter{up: up, seen: make(map[missKey]struct{})}
}

// Report sends img_miss, dyn_tex_miss or font_miss for id.
func (m *MissReporter) Report(kind render.MissKind, id string) {
	m.mu.Lock()
	k := missKey{kind, id}
	if _, dup := m.seen[k]; dup {
		m.mu.Unlock()
		return
	}
	m.seen[k] = struct{}{}
	m.mu.Unlock()

	msg := MsgImgMiss
	switch kind {
	case render.MissStream:
		msg = MsgDynTexMiss
	case render.MissFont:
		msg = MsgFontMiss
	}
	_ = m.up.Send(msg, func(w *wire.Writer) { w.Raw([]byte(id)) })
}

// Reset forgets which ids were reported.
func (m *MissReporter) Reset() {
	m.mu.Lock()
	clear(m.seen)
	m.mu.Unlock()
}
