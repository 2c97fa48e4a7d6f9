package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type stackConfig struct {
	Escape   bool
	Terminal bool
	Print    bool
}

type storeMount struct {
	Path  string
	Mount string
}

type hostConfig struct {
	Identification string
	Version        string
	LogLevel       string
	Stack          stackConfig
	HTTPAddr       string
	CorsOrigins    []string
	Stores         []storeMount
}

func defaultHostConfig() hostConfig {
	return hostConfig{
		Identification: "storedbg",
		Stack:          stackConfig{Escape: true, Terminal: true},
	}
}

type fileConfig struct {
	Identification string `toml:"identification"`
	Version        string `toml:"version"`
	LogLevel       string `toml:"log_level"`
	Stack          struct {
		Escape   bool `toml:"escape"`
		Terminal bool `toml:"terminal"`
		Print    bool `toml:"print"`
	} `toml:"stack"`
	HTTP struct {
		Addr        string   `toml:"addr"`
		CorsOrigins []string `toml:"cors_origins"`
	} `toml:"http"`
	Store []struct {
		Path  string `toml:"path"`
		Mount string `toml:"mount"`
	} `toml:"store"`
}

// loadHostConfig applies the keys present in path over the defaults.
// Store paths are relative to the config file.
func loadHostConfig(path string) (hostConfig, error) {
	cfg := defaultHostConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return hostConfig{}, fmt.Errorf("load stored config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return hostConfig{}, fmt.Errorf("load stored config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("identification") {
		cfg.Identification = strings.TrimSpace(raw.Identification)
	}
	if meta.IsDefined("version") {
		cfg.Version = strings.TrimSpace(raw.Version)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if meta.IsDefined("stack", "escape") {
		cfg.Stack.Escape = raw.Stack.Escape
	}
	if meta.IsDefined("stack", "terminal") {
		cfg.Stack.Terminal = raw.Stack.Terminal
	}
	if meta.IsDefined("stack", "print") {
		cfg.Stack.Print = raw.Stack.Print
	}

	if meta.IsDefined("http", "addr") {
		cfg.HTTPAddr = strings.TrimSpace(raw.HTTP.Addr)
	}
	if meta.IsDefined("http", "cors_origins") {
		cfg.CorsOrigins = raw.HTTP.CorsOrigins
	}

	base := filepath.Dir(path)
	for i, s := range raw.Store {
		p := strings.TrimSpace(s.Path)
		if p == "" {
			return hostConfig{}, fmt.Errorf("store[%d]: path is required", i)
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		cfg.Stores = append(cfg.Stores, storeMount{Path: p, Mount: strings.TrimSpace(s.Mount)})
	}
	return cfg, nil
}
