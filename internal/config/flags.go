package config

import (
	"flag"
	"fmt"
	"time"
)

// Flags binds command-line overrides for a Config. Only flags given on the
// command line are applied, so file values survive unset flags.
type Flags struct {
	fs *flag.FlagSet

	backend   string
	present   string
	width     int
	height    int
	title     string
	resizable bool
	cursor    bool
	layer     int
	opacity   float64
	antialias bool
	debug     bool
	logLevel  string
	maxDepth  int
	poll      time.Duration
	snapshots string
}

// RegisterFlags defines the override flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	d := DefaultConfig()
	f := &Flags{fs: fs}
	fs.StringVar(&f.backend, "backend", d.Backend.String(), "Drawing backend: gpu or software")
	fs.StringVar(&f.present, "present", d.Present.String(), "Presenter for the software backend: window, x11 or headless")
	fs.IntVar(&f.width, "width", d.Width, "Surface width in pixels")
	fs.IntVar(&f.height, "height", d.Height, "Surface height in pixels")
	fs.StringVar(&f.title, "title", d.Title, "Window title")
	fs.BoolVar(&f.resizable, "resizable", d.Resizable, "Let the window be resized")
	fs.BoolVar(&f.cursor, "cursor", d.Cursor, "Show the system pointer over the window")
	fs.IntVar(&f.layer, "layer", d.Layer, "Stacking hint: -1 below, 0 normal, 1 above")
	fs.Float64Var(&f.opacity, "opacity", d.GlobalOpacity, "Global surface opacity in (0, 1]")
	fs.BoolVar(&f.antialias, "antialias", d.Antialias, "Antialias shapes")
	fs.BoolVar(&f.debug, "debug", d.DebugMode, "Log every host command")
	fs.StringVar(&f.logLevel, "log-level", d.LogLevel.String(), "Minimum log level: debug, info, warn or error")
	fs.IntVar(&f.maxDepth, "max-script-depth", d.MaxScriptDepth, "Maximum draw_script nesting")
	fs.DurationVar(&f.poll, "poll", d.PollInterval, "Input poll interval")
	fs.StringVar(&f.snapshots, "snapshots", d.SnapshotDir, "Directory for headless PNG snapshots")
	return f
}

// Apply copies the flags that were set onto cfg. Call it after fs.Parse.
func (f *Flags) Apply(cfg *Config) error {
	var err error
	f.fs.Visit(func(fl *flag.Flag) {
		if err != nil {
			return
		}
		switch fl.Name {
		case "backend":
			cfg.Backend, err = ParseBackend(f.backend)
		case "present":
			cfg.Present, err = ParsePresent(f.present)
		case "width":
			cfg.Width = f.width
		case "height":
			cfg.Height = f.height
		case "title":
			cfg.Title = f.title
		case "resizable":
			cfg.Resizable = f.resizable
		case "cursor":
			cfg.Cursor = f.cursor
		case "layer":
			cfg.Layer = f.layer
		case "opacity":
			cfg.GlobalOpacity = f.opacity
		case "antialias":
			cfg.Antialias = f.antialias
		case "debug":
			cfg.DebugMode = f.debug
		case "log-level":
			cfg.LogLevel, err = ParseLogLevel(f.logLevel)
		case "max-script-depth":
			cfg.MaxScriptDepth = f.maxDepth
		case "poll":
			cfg.PollInterval = f.poll
		case "snapshots":
			cfg.SnapshotDir = f.snapshots
		}
		if err != nil {
			err = fmt.Errorf("-%s: %w", fl.Name, err)
		}
	})
	return err
}
