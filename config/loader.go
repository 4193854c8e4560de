package config

// loader.go - configuration loading from a TOML file and the
// environment.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go, only flags actually given)
//   2. Environment variables  (LINESHELL_*)
//   3. Config file  (--config / LINESHELL_CONFIG)
//   4. Defaults   (defaults.go)

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"lineshell/internal/errors"
)

// LoadFile overlays the TOML file at path onto cfg.  Keys absent from
// the file leave cfg untouched; unknown keys are rejected so typos do
// not pass silently.
func LoadFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return &errors.ConfigError{
			Field:   "config",
			Value:   path,
			Message: fmt.Sprintf("unknown key %q", undecoded[0].String()),
		}
	}
	return nil
}

// LoadFromEnv overlays LINESHELL_* environment variables onto cfg.
// Variables that are not set leave the existing value alone.
func LoadFromEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load builds a Config from file and environment, without defaults.
// path may be empty, in which case LINESHELL_CONFIG is consulted.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		// Only the location is needed here; the full overlay runs below.
		probe := &Config{}
		if err := LoadFromEnv(probe); err != nil {
			return nil, err
		}
		path = probe.ConfigFile
	}
	if path != "" {
		if err := LoadFile(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := LoadFromEnv(cfg); err != nil {
		return nil, err
	}
	cfg.ConfigFile = path
	return cfg, nil
}
