package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWatch_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "driver.lua")
	writeConfig(t, path, `driver = { width = 100 }`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errs := make(chan error, 8)
	configs, err := Watch(ctx, path, WatchOptions{
		Debounce: 20 * time.Millisecond,
		Override: func(c *Config) error { c.Title = "flag"; return nil },
		OnError:  func(err error) { errs <- err },
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	writeConfig(t, filepath.Join(dir, "other.lua"), `driver = { width = 1 }`)
	writeConfig(t, path, `driver = { width = 200, debug = true }`)

	select {
	case cfg := <-configs:
		if cfg.Width != 200 || !cfg.DebugMode || cfg.Title != "flag" {
			t.Errorf("reloaded %+v", cfg)
		}
	case err := <-errs:
		t.Fatalf("watch error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload")
	}

	writeConfig(t, path, `driver = { width = -5 }`)
	select {
	case cfg := <-configs:
		t.Errorf("invalid config delivered: %+v", cfg)
	case err := <-errs:
		if err == nil {
			t.Error("nil error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no error for an invalid config")
	}

	cancel()
	select {
	case _, ok := <-configs:
		if ok {
			t.Error("config after cancel")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestWatch_MissingDir(t *testing.T) {
	_, err := Watch(context.Background(), filepath.Join(t.TempDir(), "no", "driver.lua"), WatchOptions{})
	if err == nil {
		t.Error("expected an error for a missing directory")
	}
}
