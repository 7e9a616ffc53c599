package config

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/arnodel/golua/lib"
	rt "github.com/arnodel/golua/runtime"
)

// Resource limits for evaluating a config file.
const (
	luaCPULimit    = 10_000_000
	luaMemoryLimit = 50 * 1024 * 1024
)

// LuaParser evaluates Lua config files. A file assigns fields of the
// global driver table:
//
//	driver = {
//	    backend = "software",
//	    present = "headless",
//	    width = 1280,
//	    height = 720,
//	    title = "${USER:-scenic} display",
//	}
//
// The chunk runs under CPU and memory limits. String values get ${VAR}
// expansion after evaluation.
type LuaParser struct {
	runtime *rt.Runtime
	cleanup func()
	mu      sync.Mutex
}

// NewLuaParser creates a parser with a fresh Lua runtime. Output from
// print goes to stdout, which may be nil to discard it.
func NewLuaParser(stdout io.Writer) *LuaParser {
	if stdout == nil {
		stdout = io.Discard
	}
	runtime := rt.New(stdout)
	cleanup := lib.LoadAll(runtime)
	return &LuaParser{runtime: runtime, cleanup: cleanup}
}

// Parse evaluates content and applies the driver table on top of
// DefaultConfig.
func (p *LuaParser) Parse(content []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := p.ParseInto(&cfg, "config", content); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseInto evaluates content and overwrites the fields of cfg the driver
// table sets. Fields it leaves out keep their value. name labels the chunk
// in error messages.
func (p *LuaParser) ParseInto(cfg *Config, name string, content []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cleanup == nil {
		return fmt.Errorf("lua parser is closed")
	}
	p.runtime.GlobalEnv().Set(rt.StringValue("driver"), rt.TableValue(rt.NewTable()))

	closure, err := p.runtime.CompileAndLoadLuaChunk(name, content, rt.TableValue(p.runtime.GlobalEnv()))
	if err != nil {
		return fmt.Errorf("failed to compile Lua configuration: %w", err)
	}

	p.runtime.PushContext(rt.RuntimeContextDef{
		HardLimits: rt.RuntimeResources{
			Cpu:    luaCPULimit,
			Memory: luaMemoryLimit,
		},
	})
	defer p.runtime.PopContext()

	if _, err := rt.Call1(p.runtime.MainThread(), rt.FunctionValue(closure)); err != nil {
		return fmt.Errorf("failed to execute Lua configuration: %w", err)
	}

	val := p.runtime.GlobalEnv().Get(rt.StringValue("driver"))
	if val == rt.NilValue {
		return nil
	}
	table, ok := val.TryTable()
	if !ok {
		return fmt.Errorf("driver is not a table")
	}
	return extractDriverTable(cfg, table)
}

// extractDriverTable copies the recognised keys of table into cfg.
func extractDriverTable(cfg *Config, table *rt.Table) error {
	if s := getTableString(table, "backend"); s != nil {
		b, err := ParseBackend(*s)
		if err != nil {
			return err
		}
		cfg.Backend = b
	}
	if s := getTableString(table, "present"); s != nil {
		m, err := ParsePresent(*s)
		if err != nil {
			return err
		}
		cfg.Present = m
	}
	if s := getTableString(table, "log_level"); s != nil {
		l, err := ParseLogLevel(*s)
		if err != nil {
			return err
		}
		cfg.LogLevel = l
	}
	if err := extractLayer(cfg, table); err != nil {
		return err
	}

	if n := getTableInt(table, "width"); n != nil {
		cfg.Width = *n
	}
	if n := getTableInt(table, "height"); n != nil {
		cfg.Height = *n
	}
	if n := getTableInt(table, "max_script_depth"); n != nil {
		cfg.MaxScriptDepth = *n
	}
	if f := getTableFloat(table, "global_opacity"); f != nil {
		cfg.GlobalOpacity = *f
	}
	// Seconds, as a number.
	if f := getTableFloat(table, "poll_interval"); f != nil {
		cfg.PollInterval = time.Duration(*f * float64(time.Second))
	}

	if b := getTableBool(table, "resizable"); b != nil {
		cfg.Resizable = *b
	}
	if b := getTableBool(table, "cursor"); b != nil {
		cfg.Cursor = *b
	}
	if b := getTableBool(table, "antialias"); b != nil {
		cfg.Antialias = *b
	}
	if b := getTableBool(table, "debug"); b != nil {
		cfg.DebugMode = *b
	}

	if s := getTableString(table, "title"); s != nil {
		cfg.Title = *s
	}
	if s := getTableString(table, "snapshot_dir"); s != nil {
		cfg.SnapshotDir = *s
	}
	return nil
}

// extractLayer reads layer as a number or as "below", "normal" or "above".
func extractLayer(cfg *Config, table *rt.Table) error {
	val := table.Get(rt.StringValue("layer"))
	if val == rt.NilValue {
		return nil
	}
	if s, ok := val.TryString(); ok {
		switch strings.ToLower(ExpandEnv(s)) {
		case "below":
			cfg.Layer = -1
		case "normal", "":
			cfg.Layer = 0
		case "above":
			cfg.Layer = 1
		default:
			return fmt.Errorf("unknown layer: %q", s)
		}
		return nil
	}
	if n, ok := val.TryInt(); ok {
		cfg.Layer = int(n)
		return nil
	}
	return fmt.Errorf("layer must be a number or a name")
}

// Close releases the parser's Lua runtime.
func (p *LuaParser) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cleanup != nil {
		p.cleanup()
		p.cleanup = nil
	}
	return nil
}

// getTableBool retrieves a boolean value from a Lua table.
// Returns nil if the key doesn't exist or is not a boolean.
func getTableBool(table *rt.Table, key string) *bool {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil
	}
	if b, ok := val.TryBool(); ok {
		return &b
	}
	if s, ok := val.TryString(); ok {
		b := parseBool(ExpandEnv(s))
		return &b
	}
	return nil
}

// getTableString retrieves a string value from a Lua table with
// environment references expanded.
// Returns nil if the key doesn't exist or is not a string.
func getTableString(table *rt.Table, key string) *string {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil
	}
	if s, ok := val.TryString(); ok {
		s = ExpandEnv(s)
		return &s
	}
	return nil
}

// getTableFloat retrieves a float64 value from a Lua table.
// Returns nil if the key doesn't exist or is not a number.
func getTableFloat(table *rt.Table, key string) *float64 {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil
	}
	if n, ok := val.TryFloat(); ok {
		return &n
	}
	if n, ok := val.TryInt(); ok {
		f := float64(n)
		return &f
	}
	return nil
}

// getTableInt retrieves an int value from a Lua table. Floats are
// truncated.
// Returns nil if the key doesn't exist or is not a number.
func getTableInt(table *rt.Table, key string) *int {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil
	}
	if n, ok := val.TryInt(); ok {
		i := int(n)
		return &i
	}
	if f, ok := val.TryFloat(); ok {
		i := int(f)
		return &i
	}
	return nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1", "on":
		return true
	default:
		return false
	}
}
