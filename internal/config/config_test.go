package config

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"
)

func TestParseEnums(t *testing.T) {
	backends := []struct {
		in   string
		want BackendKind
		ok   bool
	}{
		{"gpu", BackendGPU, true},
		{" Software ", BackendSoftware, true},
		{"cpu", BackendSoftware, true},
		{"metal", BackendGPU, false},
	}
	for _, tt := range backends {
		got, err := ParseBackend(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseBackend(%q) = %v, %v", tt.in, got, err)
		}
	}

	modes := []struct {
		in   string
		want PresentMode
		ok   bool
	}{
		{"window", PresentWindow, true},
		{"X11", PresentX11, true},
		{"headless", PresentHeadless, true},
		{"none", PresentHeadless, true},
		{"", PresentWindow, false},
	}
	for _, tt := range modes {
		got, err := ParsePresent(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParsePresent(%q) = %v, %v", tt.in, got, err)
		}
	}

	if l, err := ParseLogLevel("warn+2"); err != nil || l != slog.LevelWarn+2 {
		t.Errorf("ParseLogLevel(warn+2) = %v, %v", l, err)
	}
	if _, err := ParseLogLevel("chatty"); err == nil {
		t.Error("ParseLogLevel accepted chatty")
	}
}

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{BackendGPU.String(), "gpu"},
		{BackendSoftware.String(), "software"},
		{BackendKind(7).String(), "BackendKind(7)"},
		{PresentWindow.String(), "window"},
		{PresentX11.String(), "x11"},
		{PresentHeadless.String(), "headless"},
		{PresentMode(7).String(), "PresentMode(7)"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestSettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DebugMode = true
	cfg.Antialias = false
	cfg.MaxScriptDepth = 9
	cfg.LogLevel = slog.LevelWarn

	s := cfg.Settings()
	if !s.Debug || s.Antialias || s.MaxScriptDepth != 9 || s.LogLevel != slog.LevelWarn {
		t.Errorf("Settings() = %+v", s)
	}
}

func TestParser_Sources(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "driver.lua")
	if err := os.WriteFile(path, []byte(`driver = { width = 640, title = "file" }`), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("file", func(t *testing.T) {
		cfg, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Width != 640 || cfg.Title != "file" || cfg.Height != DefaultHeight {
			t.Errorf("Load = %+v", cfg)
		}
	})

	t.Run("no file", func(t *testing.T) {
		cfg, err := Load("")
		if err != nil {
			t.Fatal(err)
		}
		if *cfg != DefaultConfig() {
			t.Errorf("Load(\"\") = %+v", cfg)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(dir, "nope.lua")); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("fs", func(t *testing.T) {
		fsys := fstest.MapFS{"conf/d.lua": {Data: []byte(`driver.cursor = true`)}}
		p := NewParser()
		defer p.Close()
		cfg, err := p.ParseFromFS(fsys, "conf/d.lua")
		if err != nil {
			t.Fatal(err)
		}
		if !cfg.Cursor {
			t.Error("cursor not set")
		}
	})

	t.Run("reader with base", func(t *testing.T) {
		base := DefaultConfig()
		base.Height = 50
		p := NewParser().WithBase(base)
		defer p.Close()
		cfg, err := p.ParseReader(strings.NewReader(`driver.width = 70`))
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Width != 70 || cfg.Height != 50 {
			t.Errorf("got %dx%d", cfg.Width, cfg.Height)
		}
	})

	t.Run("error names the file", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.lua")
		if err := os.WriteFile(bad, []byte(`driver = 1`), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := Load(bad)
		if err == nil || !strings.Contains(err.Error(), "bad.lua") {
			t.Errorf("err = %v", err)
		}
	})
}

func TestFlags_Apply(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := RegisterFlags(fs)
	err := fs.Parse([]string{
		"-backend", "software", "-present", "x11", "-width", "10",
		"-layer", "-1", "-opacity", "0.75", "-antialias=false",
		"-log-level", "error", "-poll", "5ms", "-snapshots", "out",
	})
	if err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.Height = 99
	cfg.Title = "from file"
	if err := f.Apply(&cfg); err != nil {
		t.Fatal(err)
	}

	want := DefaultConfig()
	want.Backend = BackendSoftware
	want.Present = PresentX11
	want.Width = 10
	want.Height = 99
	want.Title = "from file"
	want.Layer = -1
	want.GlobalOpacity = 0.75
	want.Antialias = false
	want.LogLevel = slog.LevelError
	want.PollInterval = 5 * time.Millisecond
	want.SnapshotDir = "out"
	if cfg != want {
		t.Errorf("Apply =\n%+v\nwant\n%+v", cfg, want)
	}
}

func TestFlags_ApplyError(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := RegisterFlags(fs)
	if err := fs.Parse([]string{"-present", "projector"}); err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	err := f.Apply(&cfg)
	if err == nil || !strings.HasPrefix(err.Error(), "-present:") {
		t.Errorf("err = %v", err)
	}
}
