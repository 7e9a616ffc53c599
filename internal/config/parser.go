package config

import (
	"fmt"
	"io"
	"io/fs"
	"os"
)

// Parser loads Lua config files on top of a base configuration.
type Parser struct {
	lua  *LuaParser
	base Config
}

// NewParser returns a Parser whose results start from DefaultConfig.
func NewParser() *Parser {
	return &Parser{lua: NewLuaParser(nil), base: DefaultConfig()}
}

// WithBase makes later parses start from base instead of the defaults.
func (p *Parser) WithBase(base Config) *Parser {
	p.base = base
	return p
}

// ParseFile reads and parses a configuration file.
func (p *Parser) ParseFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return p.parse(path, content)
}

// Parse parses configuration content.
func (p *Parser) Parse(content []byte) (*Config, error) {
	return p.parse("config", content)
}

// ParseFromFS reads and parses a configuration file from fsys.
func (p *Parser) ParseFromFS(fsys fs.FS, path string) (*Config, error) {
	content, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from FS %s: %w", path, err)
	}
	return p.parse(path, content)
}

// ParseReader parses configuration read from r.
func (p *Parser) ParseReader(r io.Reader) (*Config, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return p.parse("config", content)
}

func (p *Parser) parse(name string, content []byte) (*Config, error) {
	cfg := p.base
	if err := p.lua.ParseInto(&cfg, name, content); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &cfg, nil
}

// Close releases resources associated with the parser.
func (p *Parser) Close() error {
	return p.lua.Close()
}

// Load returns the defaults overlaid with the file at path. An empty path
// returns the defaults. The result is not validated.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := DefaultConfig()
		return &cfg, nil
	}
	p := NewParser()
	defer p.Close()
	return p.ParseFile(path)
}
