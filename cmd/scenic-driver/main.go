// Package main is the scenic-driver executable. A host process starts it,
// writes scene commands to its stdin and reads input events, logs and
// status from its stdout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opd-ai/go-scenic/internal/config"
	"github.com/opd-ai/go-scenic/internal/profiling"
	"github.com/opd-ai/go-scenic/pkg/scenic"
)

// Version is the current version of scenic-driver.
// This default value can be overridden at build time using:
//
//	go build -ldflags "-X main.Version=x.y.z"
var Version = "0.1.0-dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("scenic-driver", flag.ContinueOnError)
	configPath := fs.String("c", "", "Path to a Lua driver configuration")
	version := fs.Bool("v", false, "Print version and exit")
	watch := fs.Bool("watch", false, "Apply runtime settings when the config file changes")
	cpuProfile := fs.String("cpuprofile", "", "Write CPU profile to file")
	memProfile := fs.String("memprofile", "", "Write memory profile to file")
	metricsAddr := fs.String("metrics", "", "Serve expvar metrics on this address, e.g. localhost:6060")
	demo := fs.Bool("demo", false, "Render a built-in scene instead of reading commands from stdin")
	demoFrames := fs.Int("demo-frames", 0, "Quit the demo after this many frames (0 runs until interrupted)")
	overrides := config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *version {
		fmt.Fprintf(os.Stderr, "scenic-driver version %s\n", Version)
		return 0
	}

	log := scenic.DefaultLogger(nil)

	prof, err := profiling.Start(profiling.Paths{CPU: *cpuProfile, Heap: *memProfile})
	if err != nil {
		log.Error("failed to start profiling", "error", err)
		return 1
	}
	defer func() {
		if err := prof.Stop(); err != nil {
			log.Warn("failed to stop profiling", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := scenic.DefaultOptions()
	opts.Override = overrides.Apply
	opts.WatchConfig = *watch
	if *demo {
		pr, pw := io.Pipe()
		defer pr.Close()
		opts.In = pr
		opts.Out = io.Discard
		go func() {
			if err := feedDemo(ctx, pw, *demoFrames, 16*time.Millisecond); err != nil {
				pw.CloseWithError(err)
			}
		}()
	}

	d, err := scenic.New(*configPath, &opts)
	if err != nil {
		log.Error("invalid configuration", "config", *configPath, "error", err)
		return 1
	}
	d.SetErrorHandler(func(err error) {
		log.Warn("driver error", "error", err)
	})

	if *metricsAddr != "" {
		d.Metrics().RegisterExpvar()
		go func() {
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				log.Warn("metrics server stopped", "addr", *metricsAddr, "error", err)
			}
		}()
	}

	if cfg := d.Config(); cfg.DebugMode {
		w := profiling.NewHeapWatcher(profiling.HeapWatchConfig{})
		go w.Run(ctx, func(g profiling.Growth) {
			log.Warn("memory growth", "growth", g.String(), "now", profiling.ReadSample().String())
		})
	}

	if err := d.Run(ctx); err != nil {
		log.Error("driver stopped", "error", err)
		return 1
	}
	return 0
}
