// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"os"
	"slices"
	"strings"
	"sync"
	"time"
)

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// ConfigFilePath forces loading from a specific config file when set.
	ConfigFilePath string
	// ConfigDirPath overrides the user config directory lookup when set.
	ConfigDirPath string
	// WorkDir is where structkit.cue is looked up. Empty means the process
	// working directory.
	WorkDir string
}

// Provider loads configuration from explicit options.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Config, error)
	// Path reports the file Load would read, or "" when defaults apply.
	Path(opts LoadOptions) (string, error)
}

type (
	// fileProvider memoizes the last load per LoadOptions. An entry is reused
	// while the resolved file and the STRUCTKIT_* environment are unchanged.
	fileProvider struct {
		mu      sync.Mutex
		entries map[LoadOptions]loaded
	}

	loaded struct {
		stamp fileStamp
		env   string
		cfg   *Config
	}

	fileStamp struct {
		path    string
		size    int64
		modTime time.Time
	}
)

// NewProvider creates a configuration provider.
func NewProvider() Provider {
	return &fileProvider{entries: make(map[LoadOptions]loaded)}
}

// Load reads configuration from the requested source. Callers get their own
// copy and may modify it.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	path, err := resolvePath(opts)
	if err != nil {
		return nil, err
	}
	stamp := stampOf(path)
	env := envSnapshot()

	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.entries[opts]; ok && e.stamp == stamp && e.env == env {
		return e.cfg.clone(), nil
	}

	cfg, _, err := loadWithOptions(ctx, opts)
	if err != nil {
		return nil, err
	}
	p.entries[opts] = loaded{stamp: stamp, env: env, cfg: cfg.clone()}
	return cfg, nil
}

// Path resolves the config file without reading it.
func (p *fileProvider) Path(opts LoadOptions) (string, error) {
	return resolvePath(opts)
}

func stampOf(path string) fileStamp {
	if path == "" {
		return fileStamp{}
	}
	info, err := os.Stat(path)
	if err != nil {
		return fileStamp{path: path}
	}
	return fileStamp{path: path, size: info.Size(), modTime: info.ModTime()}
}

func envSnapshot() string {
	var vars []string
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, EnvPrefix+"_") {
			vars = append(vars, kv)
		}
	}
	slices.Sort(vars)
	return strings.Join(vars, "\x00")
}

func (c *Config) clone() *Config {
	out := *c
	out.Apply.Hooks.PreApply = slices.Clone(c.Apply.Hooks.PreApply)
	out.Apply.Hooks.PostApply = slices.Clone(c.Apply.Hooks.PostApply)
	return &out
}
