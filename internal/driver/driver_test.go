package driver

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/opd-ai/go-scenic/internal/render"
	"github.com/opd-ai/go-scenic/internal/script"
	"github.com/opd-ai/go-scenic/internal/store"
	"github.com/opd-ai/go-scenic/internal/wire"
)

// traceBackend renders through Software and logs the calls the frame
// driver makes around the interpreter.
type traceBackend struct {
	*render.Software
	calls []string
}

func (b *traceBackend) add(format string, args ...any) {
	b.calls = append(b.calls, fmt.Sprintf(format, args...))
}

func (b *traceBackend) BeginFrame(w, h int, clear render.Color) error {
	b.add("begin %dx%d #%02x%02x%02x%02x", w, h, clear.R, clear.G, clear.B, clear.A)
	return b.Software.BeginFrame(w, h, clear)
}

func (b *traceBackend) EndFrame() error {
	b.add("end")
	return b.Software.EndFrame()
}

func (b *traceBackend) PushState() { b.add("push"); b.Software.PushState() }
func (b *traceBackend) PopState()  { b.add("pop"); b.Software.PopState() }

func (b *traceBackend) Translate(x, y float64) {
	b.add("translate(%g,%g)", x, y)
	b.Software.Translate(x, y)
}

func (b *traceBackend) Transform(m render.Matrix) {
	b.add("transform%v", m.Wire())
	b.Software.Transform(m)
}

func (b *traceBackend) DrawRect(w, h float64, fill, stroke bool) {
	b.add("rect(%g,%g)", w, h)
	b.Software.DrawRect(w, h, fill, stroke)
}

func (b *traceBackend) DrawCircle(r float64, fill, stroke bool) {
	b.add("circle(%g)", r)
	b.Software.DrawCircle(r, fill, stroke)
}

func (b *traceBackend) String() string { return strings.Join(b.calls, " ") }

type fakePresenter struct {
	w, h      int
	presented int
	err       error
}

func (p *fakePresenter) Size() (int, int) { return p.w, p.h }

func (p *fakePresenter) Present(render.Backend) error {
	p.presented++
	return p.err
}

type logLine struct {
	level string
	msg   string
}

type testLogger struct{ lines []logLine }

func (l *testLogger) Debug(msg string, _ ...any) { l.lines = append(l.lines, logLine{"debug", msg}) }
func (l *testLogger) Info(msg string, _ ...any)  { l.lines = append(l.lines, logLine{"info", msg}) }
func (l *testLogger) Warn(msg string, _ ...any)  { l.lines = append(l.lines, logLine{"warn", msg}) }
func (l *testLogger) Error(msg string, _ ...any) { l.lines = append(l.lines, logLine{"error", msg}) }

func (l *testLogger) has(level, msg string) bool {
	for _, ln := range l.lines {
		if ln.level == level && ln.msg == msg {
			return true
		}
	}
	return false
}

type outMsg struct {
	typ  Msg
	body []byte
}

// readMsgs splits everything written upstream into messages.
func readMsgs(t *testing.T, buf *bytes.Buffer) []outMsg {
	t.Helper()
	var out []outMsg
	r := bytes.NewReader(buf.Bytes())
	for r.Len() > 0 {
		frame, err := ReadFrame(r)
		if err != nil {
			t.Fatalf("upstream frame: %v", err)
		}
		if len(frame) < 4 {
			t.Fatalf("upstream frame of %d bytes has no type", len(frame))
		}
		out = append(out, outMsg{Msg(binary.BigEndian.Uint32(frame)), frame[4:]})
	}
	return out
}

func msgTypes(msgs []outMsg) []Msg {
	types := make([]Msg, len(msgs))
	for i, m := range msgs {
		types[i] = m.typ
	}
	return types
}

// cmd builds one inbound payload.
func cmd(c Command, body func(w *wire.Writer)) []byte {
	w := wire.NewWriter(32).U32(uint32(c))
	if body != nil {
		body(w)
	}
	return append([]byte(nil), w.Bytes()...)
}

// framed prefixes each payload with its length.
func framed(payloads ...[]byte) []byte {
	var out []byte
	for _, p := range payloads {
		out = binary.BigEndian.AppendUint32(out, uint32(len(p)))
		out = append(out, p...)
	}
	return out
}

func putScript(id string, body []byte) []byte {
	return cmd(CmdPutScript, func(w *wire.Writer) {
		w.U32(uint32(len(id))).Raw([]byte(id)).Raw(body)
	})
}

func putImage(id string, width, height uint32, format store.ImageFormat, blob []byte) []byte {
	return cmd(CmdPutImage, func(w *wire.Writer) {
		w.U32(uint32(len(id))).U32(uint32(len(blob))).U32(width).U32(height).U32(uint32(format))
		w.Raw([]byte(id)).Raw(blob)
	})
}

type harness struct {
	d         *Driver
	backend   *traceBackend
	presenter *fakePresenter
	out       *bytes.Buffer
	log       *testLogger
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	out := &bytes.Buffer{}
	up := NewUpstream(out)
	assets := store.NewAssets()
	misses := NewMissReporter(up)
	backend := &traceBackend{Software: render.NewSoftware(render.Options{Assets: assets, OnMiss: misses.Report})}
	presenter := &fakePresenter{w: 40, h: 30}
	log := &testLogger{}
	d, err := New(Options{
		Backend:      backend,
		Presenter:    presenter,
		Upstream:     up,
		Assets:       assets,
		Misses:       misses,
		Logger:       log,
		PollInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &harness{d: d, backend: backend, presenter: presenter, out: out, log: log}
}

func (h *harness) dispatch(t *testing.T, payloads ...[]byte) {
	t.Helper()
	for _, p := range payloads {
		if err := h.d.Dispatch(p); err != nil {
			t.Fatalf("Dispatch(%x): %v", p, err)
		}
	}
}

func TestNew_RequiresCollaborators(t *testing.T) {
	up := NewUpstream(io.Discard)
	sw := render.NewSoftware(render.Options{})
	p := &fakePresenter{w: 1, h: 1}
	tests := []struct {
		name string
		opts Options
	}{
		{"no backend", Options{Presenter: p, Upstream: up}},
		{"no presenter", Options{Backend: sw, Upstream: up}},
		{"no upstream", Options{Backend: sw, Presenter: p}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestDispatch_ScriptLifecycle(t *testing.T) {
	h := newHarness(t)
	body := script.NewBuilder().DrawRect(4, 4, script.FlagFill).Bytes()

	h.dispatch(t, putScript("a", body), putScript("b", body))
	if n := h.d.Scripts().Len(); n != 2 {
		t.Fatalf("scripts = %d, want 2", n)
	}
	got, ok := h.d.Scripts().Body("a")
	if !ok || !bytes.Equal(got, body) {
		t.Errorf("Body(a) = %x, %v; want %x", got, ok, body)
	}

	h.dispatch(t, cmd(CmdDelScript, func(w *wire.Writer) { w.U32(1).Raw([]byte("a")) }))
	if _, ok := h.d.Scripts().Body("a"); ok {
		t.Error("a survived del_script")
	}

	h.dispatch(t, cmd(CmdReset, nil))
	if n := h.d.Scripts().Len(); n != 0 {
		t.Errorf("scripts after reset = %d, want 0", n)
	}
}

func TestDispatch_ResetKeepsAssets(t *testing.T) {
	h := newHarness(t)
	h.dispatch(t,
		putImage("logo", 1, 1, store.FormatRGBA, []byte{1, 2, 3, 4}),
		putScript("_root_", nil),
		cmd(CmdReset, nil),
	)
	if n := h.d.Assets().Images.Len(); n != 1 {
		t.Errorf("images after reset = %d, want 1", n)
	}
	if n := h.d.Scripts().Len(); n != 0 {
		t.Errorf("scripts after reset = %d, want 0", n)
	}
}

func TestDispatch_PutImageRouting(t *testing.T) {
	tests := []struct {
		name        string
		id          string
		wantImages  []string
		wantStreams []string
	}{
		{"static", "logo", []string{"logo"}, nil},
		{"stream prefix stripped", "stream:cam", nil, []string{"cam"}},
		{"prefix only mid id", "my stream:cam", []string{"my stream:cam"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.dispatch(t, putImage(tt.id, 2, 1, store.FormatRGB, []byte{1, 2, 3, 4, 5, 6}))
			if got := h.d.Assets().Images.IDs(); !equalStrings(got, tt.wantImages) {
				t.Errorf("images = %v, want %v", got, tt.wantImages)
			}
			if got := h.d.Assets().Streams.IDs(); !equalStrings(got, tt.wantStreams) {
				t.Errorf("streams = %v, want %v", got, tt.wantStreams)
			}
		})
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDispatch_PutImageErrorsAreLogged(t *testing.T) {
	h := newHarness(t)
	// Blob too short for 2x2 RGBA.
	h.dispatch(t, putImage("logo", 2, 2, store.FormatRGBA, []byte{1, 2, 3, 4}))
	if h.d.Assets().Images.Len() != 0 {
		t.Error("short blob was stored")
	}
	if !h.log.has("error", "command failed") {
		t.Errorf("logs = %+v, want command failed", h.log.lines)
	}
}

func TestDispatch_PutImageHugeDimensions(t *testing.T) {
	h := newHarness(t)
	h.dispatch(t,
		putImage("x", 1<<31, 1<<31, store.FormatRGBA, nil),
		putImage("y", store.MaxImageEdge, store.MaxImageEdge, store.FormatRGBA, []byte{1, 2, 3, 4}),
	)
	if h.d.Assets().Images.Len() != 0 {
		t.Error("oversized image was stored")
	}
	if !h.log.has("error", "command failed") {
		t.Errorf("logs = %+v, want command failed", h.log.lines)
	}
}

func TestDispatch_PutFontRejectsGarbage(t *testing.T) {
	h := newHarness(t)
	h.dispatch(t, cmd(CmdPutFont, func(w *wire.Writer) {
		w.U32(4).Raw([]byte("sans")).Raw([]byte("not a font"))
	}))
	if h.d.Assets().Fonts.Len() != 0 {
		t.Error("garbage font was stored")
	}
	if !h.log.has("error", "command failed") {
		t.Errorf("logs = %+v, want command failed", h.log.lines)
	}
}

func TestDispatch_FrameState(t *testing.T) {
	h := newHarness(t)
	h.dispatch(t,
		cmd(CmdGlobalTx, func(w *wire.Writer) { w.F32(2).F32(0).F32(0).F32(2).F32(5).F32(6) }),
		cmd(CmdCursorTx, func(w *wire.Writer) { w.F32(1).F32(0).F32(0).F32(1).F32(-1).F32(-2) }),
		cmd(CmdUpdateCursor, func(w *wire.Writer) { w.U32(1).F32(10).F32(12) }),
		cmd(CmdClearColor, func(w *wire.Writer) { w.U8(1).U8(2).U8(3).U8(4) }),
	)
	if got, want := h.d.globalTx.Wire(), [6]float64{2, 0, 0, 2, 5, 6}; got != want {
		t.Errorf("global tx = %v, want %v", got, want)
	}
	if got, want := h.d.cursorTx.Wire(), [6]float64{1, 0, 0, 1, -1, -2}; got != want {
		t.Errorf("cursor tx = %v, want %v", got, want)
	}
	if !h.d.showCursor || h.d.cursorX != 10 || h.d.cursorY != 12 {
		t.Errorf("cursor = %v (%g,%g), want shown at (10,12)", h.d.showCursor, h.d.cursorX, h.d.cursorY)
	}
	if want := (render.Color{R: 1, G: 2, B: 3, A: 4}); h.d.clear != want {
		t.Errorf("clear = %+v, want %+v", h.d.clear, want)
	}
}

func TestDispatch_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		wantLog string
	}{
		{"empty", nil, "command without opcode"},
		{"short opcode", []byte{0, 0}, "command without opcode"},
		{"truncated matrix", cmd(CmdGlobalTx, func(w *wire.Writer) { w.F32(1).F32(2) }), "truncated command"},
		{"id past end", cmd(CmdDelScript, func(w *wire.Writer) { w.U32(50).Raw([]byte("ab")) }), "truncated command"},
		{"blob past end", putImage("x", 1, 1, store.FormatRGBA, []byte{1, 2, 3, 4})[:26], "truncated command"},
		{"unknown", cmd(Command(0x99), nil), "unknown command"},
		{"excess", cmd(CmdClearColor, func(w *wire.Writer) { w.U8(1).U8(2).U8(3).U8(4).U32(7) }), "excess message bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			if err := h.d.Dispatch(tt.payload); err != nil {
				t.Fatalf("Dispatch: %v", err)
			}
			if !h.log.has("error", tt.wantLog) {
				t.Errorf("logs = %+v, want %q", h.log.lines, tt.wantLog)
			}
		})
	}
}

func TestDispatch_ExcessStillApplies(t *testing.T) {
	h := newHarness(t)
	h.dispatch(t, cmd(CmdClearColor, func(w *wire.Writer) { w.U8(9).U8(8).U8(7).U8(6).U8(0) }))
	if want := (render.Color{R: 9, G: 8, B: 7, A: 6}); h.d.clear != want {
		t.Errorf("clear = %+v, want %+v", h.d.clear, want)
	}
}

func TestDispatch_QuitAndCrash(t *testing.T) {
	h := newHarness(t)
	if err := h.d.Dispatch(cmd(CmdQuit, nil)); !errors.Is(err, ErrQuit) {
		t.Errorf("quit: %v, want ErrQuit", err)
	}
	if err := h.d.Dispatch(cmd(CmdCrash, nil)); !errors.Is(err, ErrCrash) {
		t.Errorf("crash: %v, want ErrCrash", err)
	}
}

func TestRenderFrame_Sequence(t *testing.T) {
	h := newHarness(t)
	root := script.NewBuilder().DrawRect(5, 5, script.FlagFill).Bytes()
	cursor := script.NewBuilder().DrawCircle(2, script.FlagFill).Bytes()
	h.dispatch(t,
		putScript(RootScript, root),
		putScript(CursorScript, cursor),
		cmd(CmdClearColor, func(w *wire.Writer) { w.U8(0x10).U8(0x20).U8(0x30).U8(0xff) }),
		cmd(CmdRender, nil),
	)

	want := "begin 40x30 #102030ff transform[1 0 0 1 0 0] rect(5,5) end"
	if got := h.backend.String(); got != want {
		t.Errorf("calls:\n got %s\nwant %s", got, want)
	}
	if h.presenter.presented != 1 {
		t.Errorf("presented %d times, want 1", h.presenter.presented)
	}
	if got := msgTypes(readMsgs(t, h.out)); len(got) != 1 || got[0] != MsgReady {
		t.Errorf("upstream = %v, want [ready]", got)
	}
	if st := h.d.LastStats(); st.Scripts != 1 || st.Ops != 1 {
		t.Errorf("stats = %+v, want 1 script 1 op", st)
	}
}

func TestRenderFrame_Cursor(t *testing.T) {
	h := newHarness(t)
	h.dispatch(t,
		putScript(RootScript, nil),
		putScript(CursorScript, script.NewBuilder().DrawCircle(2, script.FlagFill).Bytes()),
		cmd(CmdCursorTx, func(w *wire.Writer) { w.F32(1).F32(0).F32(0).F32(1).F32(-1).F32(-1) }),
		cmd(CmdUpdateCursor, func(w *wire.Writer) { w.U32(1).F32(7).F32(8) }),
		cmd(CmdRender, nil),
	)
	want := "begin 40x30 #000000ff transform[1 0 0 1 0 0] push translate(7,8) transform[1 0 0 1 -1 -1] circle(2) pop end"
	if got := h.backend.String(); got != want {
		t.Errorf("calls:\n got %s\nwant %s", got, want)
	}

	h.backend.calls = nil
	h.dispatch(t,
		cmd(CmdUpdateCursor, func(w *wire.Writer) { w.U32(0).F32(7).F32(8) }),
		cmd(CmdRender, nil),
	)
	if got := h.backend.String(); strings.Contains(got, "circle") {
		t.Errorf("hidden cursor drawn: %s", got)
	}
}

func TestRenderFrame_MissesOncePerFrame(t *testing.T) {
	h := newHarness(t)
	root := script.NewBuilder().
		FillImage("logo").DrawRect(4, 4, script.FlagFill).
		FillImage("logo").DrawRect(4, 4, script.FlagFill).
		FillStream("cam").DrawRect(4, 4, script.FlagFill).
		Bytes()
	h.dispatch(t, putScript(RootScript, root), cmd(CmdRender, nil), cmd(CmdRender, nil))

	msgs := readMsgs(t, h.out)
	want := []Msg{MsgImgMiss, MsgDynTexMiss, MsgReady, MsgImgMiss, MsgDynTexMiss, MsgReady}
	if got := msgTypes(msgs); !equalMsgs(got, want) {
		t.Fatalf("upstream = %v, want %v", got, want)
	}
	if string(msgs[0].body) != "logo" || string(msgs[1].body) != "cam" {
		t.Errorf("miss bodies = %q, %q", msgs[0].body, msgs[1].body)
	}
}

func equalMsgs(a, b []Msg) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRenderFrame_BackendErrorStillReady(t *testing.T) {
	h := newHarness(t)
	h.presenter.w, h.presenter.h = 0, 0
	h.dispatch(t, cmd(CmdRender, nil))
	if !h.log.has("error", "begin frame failed") {
		t.Errorf("logs = %+v", h.log.lines)
	}
	if got := msgTypes(readMsgs(t, h.out)); !equalMsgs(got, []Msg{MsgReady}) {
		t.Errorf("upstream = %v, want [ready]", got)
	}
}

func TestRenderFrame_PresentErrorLogged(t *testing.T) {
	h := newHarness(t)
	h.presenter.err = errors.New("gone")
	h.dispatch(t, cmd(CmdRender, nil))
	if !h.log.has("error", "present failed") {
		t.Errorf("logs = %+v", h.log.lines)
	}
	if h.d.Metrics().Frames() != 1 {
		t.Errorf("frames = %d, want 1", h.d.Metrics().Frames())
	}
}

func TestRun(t *testing.T) {
	body := script.NewBuilder().DrawRect(2, 2, script.FlagFill).Bytes()
	tests := []struct {
		name      string
		in        []byte
		wantErr   error
		wantNil   bool
		wantTypes []Msg
	}{
		{
			name:      "quit",
			in:        framed(putScript(RootScript, body), cmd(CmdRender, nil), cmd(CmdQuit, nil)),
			wantNil:   true,
			wantTypes: []Msg{MsgReshape, MsgReady, MsgReady},
		},
		{
			name:      "eof",
			in:        framed(cmd(CmdRender, nil)),
			wantErr:   io.EOF,
			wantTypes: []Msg{MsgReshape, MsgReady, MsgReady},
		},
		{
			name:      "truncated frame",
			in:        append(framed(cmd(CmdRender, nil)), 0, 0, 0, 9, 1),
			wantErr:   ErrTruncated,
			wantTypes: []Msg{MsgReshape, MsgReady, MsgReady},
		},
		{
			name:      "crash",
			in:        framed(cmd(CmdCrash, nil), cmd(CmdRender, nil)),
			wantErr:   ErrCrash,
			wantTypes: []Msg{MsgReshape, MsgReady},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			err := h.d.Run(ctx, bytes.NewReader(tt.in))
			switch {
			case tt.wantNil && err != nil:
				t.Fatalf("Run: %v, want nil", err)
			case tt.wantErr != nil && !errors.Is(err, tt.wantErr):
				t.Fatalf("Run: %v, want %v", err, tt.wantErr)
			case tt.wantErr != nil && tt.wantErr != ErrCrash && !errors.Is(err, ErrTransport):
				t.Fatalf("Run: %v does not wrap ErrTransport", err)
			}
			if got := msgTypes(readMsgs(t, h.out)); !equalMsgs(got, tt.wantTypes) {
				t.Errorf("upstream = %v, want %v", got, tt.wantTypes)
			}
		})
	}
}

func TestRun_CancelReturnsNil(t *testing.T) {
	h := newHarness(t)
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.d.Run(ctx, pr) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_ReleasesReader(t *testing.T) {
	h := newHarness(t)
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.d.Run(ctx, pr) }()
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	// A closed read side fails the writer instead of leaving it blocked.
	if _, err := pw.Write([]byte{0, 0, 0, 4}); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("write after Run = %v, want io.ErrClosedPipe", err)
	}
}

func TestRun_ForwardsInput(t *testing.T) {
	out := &bytes.Buffer{}
	up := NewUpstream(out)
	input := make(chan Event, 1)
	input <- Event{Kind: EventReshape, Width: 80, Height: 60}
	d, err := New(Options{
		Backend:      render.NewSoftware(render.Options{}),
		Presenter:    &fakePresenter{w: 80, h: 60},
		Upstream:     up,
		Input:        input,
		PollInterval: time.Hour,
	})
	if err != nil {
		t.Fatal(err)
	}
	pr, pw := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx, pr) }()

	// The quit frame is read after the buffered event has had its turn.
	time.Sleep(50 * time.Millisecond)
	if _, err := pw.Write(framed(cmd(CmdQuit, nil))); err != nil {
		t.Fatal(err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	cancel()
	pw.Close()

	want := []Msg{MsgReshape, MsgReady, MsgReshape}
	if got := msgTypes(readMsgs(t, out)); !equalMsgs(got, want) {
		t.Errorf("upstream = %v, want %v", got, want)
	}
}

func TestApply_DefaultDepth(t *testing.T) {
	h := newHarness(t)
	h.d.Apply(Settings{})
	if h.d.settings.MaxScriptDepth != script.DefaultMaxDepth {
		t.Errorf("depth = %d, want %d", h.d.settings.MaxScriptDepth, script.DefaultMaxDepth)
	}
	h.d.Apply(Settings{MaxScriptDepth: 3})
	if h.d.interp.MaxDepth != 3 {
		t.Errorf("interpreter depth = %d, want 3", h.d.interp.MaxDepth)
	}
}
