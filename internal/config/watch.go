package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce is the default debounce interval for file watch events.
const DefaultWatchDebounce = 500 * time.Millisecond

// WatchOptions configures Watch.
type WatchOptions struct {
	// Debounce collapses bursts of file events. Zero means
	// DefaultWatchDebounce.
	Debounce time.Duration
	// Override runs on every reloaded config before validation, typically
	// to reapply command-line flags.
	Override func(*Config) error
	// OnError receives parse, validation and watcher errors. The previous
	// config stays in effect.
	OnError func(error)
}

// Watch re-parses path whenever it changes and sends each valid result on
// the returned channel until ctx is done. The directory is watched rather
// than the file so editors that replace the file on save are noticed.
func Watch(ctx context.Context, path string, opts WatchOptions) (<-chan *Config, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultWatchDebounce
	}

	out := make(chan *Config)
	cw := &configWatcher{
		watcher: w,
		path:    path,
		opts:    opts,
		parser:  NewParser(),
		out:     out,
	}
	go cw.loop(ctx)
	return out, nil
}

type configWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	opts    WatchOptions
	parser  *Parser
	out     chan<- *Config
}

func (cw *configWatcher) loop(ctx context.Context) {
	defer close(cw.out)
	defer cw.parser.Close()
	defer cw.watcher.Close()

	absPath, _ := filepath.Abs(cw.path)
	baseName := filepath.Base(cw.path)

	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			eventAbs, _ := filepath.Abs(event.Name)
			if filepath.Base(event.Name) != baseName && eventAbs != absPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(cw.opts.Debounce)
			debounceCh = debounceTimer.C

		case <-debounceCh:
			debounceTimer = nil
			debounceCh = nil
			cfg, err := cw.reload()
			if err != nil {
				cw.report(err)
				continue
			}
			select {
			case cw.out <- cfg:
			case <-ctx.Done():
				return
			}

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.report(err)
		}
	}
}

func (cw *configWatcher) reload() (*Config, error) {
	cfg, err := cw.parser.ParseFile(cw.path)
	if err != nil {
		return nil, err
	}
	ExpandEnvConfig(cfg)
	if cw.opts.Override != nil {
		if err := cw.opts.Override(cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("reload %s: %w", cw.path, err)
	}
	return cfg, nil
}

func (cw *configWatcher) report(err error) {
	if cw.opts.OnError != nil {
		cw.opts.OnError(err)
	}
}
