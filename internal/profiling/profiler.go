// Package profiling writes pprof profiles for a driver run and watches the
// heap for growth while the host keeps uploading scripts and assets.
package profiling

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"sync"
)

// Paths names the profile files. An empty path disables that profile.
type Paths struct {
	CPU  string
	Heap string
}

// Enabled reports whether any profile is requested.
func (p Paths) Enabled() bool {
	return p.CPU != "" || p.Heap != ""
}

// Session is one profiling run, from Start to Stop.
type Session struct {
	mu    sync.Mutex
	paths Paths
	cpu   *os.File
	done  bool
}

// Start begins CPU profiling when p.CPU is set. The heap profile is
// written by Stop.
func Start(p Paths) (*Session, error) {
	s := &Session{paths: p}
	if p.CPU == "" {
		return s, nil
	}
	f, err := os.Create(p.CPU)
	if err != nil {
		return nil, fmt.Errorf("profiling: cpu profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("profiling: start cpu profile: %w", err)
	}
	s.cpu = f
	return s, nil
}

// Stop ends CPU profiling and writes the heap profile. Calls after the
// first return nil.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return nil
	}
	s.done = true

	var errs []error
	if s.cpu != nil {
		pprof.StopCPUProfile()
		if err := s.cpu.Close(); err != nil {
			errs = append(errs, fmt.Errorf("profiling: close cpu profile: %w", err))
		}
	}
	if s.paths.Heap != "" {
		if err := WriteHeap(s.paths.Heap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteHeap writes a heap profile to path after a collection.
func WriteHeap(path string) error {
	runtime.GC()
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("profiling: heap profile: %w", err)
	}
	defer f.Close()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("profiling: write heap profile: %w", err)
	}
	return nil
}
