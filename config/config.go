// Package config defines the runtime configuration for lineshell and
// loads it from a TOML file and the environment.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"lineshell/internal/errors"
)

// Config holds every tuneable for a lineshell server or client.
type Config struct {
	// ── Connection ───────────────────────────────────────────────────
	Listen   bool          `toml:"listen"    env:"LISTEN"`
	Host     string        `toml:"host"      env:"HOST"`
	Port     int           `toml:"port"      env:"PORT"`
	KeepOpen bool          `toml:"keep_open" env:"KEEP_OPEN"`
	Timeout  time.Duration `toml:"timeout"   env:"TIMEOUT"` // idle timeout; 0 disables

	// ── Protocol ─────────────────────────────────────────────────────
	Mode     string `toml:"mode"     env:"MODE"`
	Sentinel string `toml:"sentinel" env:"SENTINEL"`
	Farewell string `toml:"farewell" env:"FAREWELL"` // echo modes: sent before hanging up on the sentinel

	// ── Execution (terminal mode) ────────────────────────────────────
	Shell     string `toml:"shell"      env:"SHELL"`
	ShellFlag string `toml:"shell_flag" env:"SHELL_FLAG"`
	Dir       string `toml:"dir"        env:"DIR"`
	Encoding  string `toml:"encoding"   env:"ENCODING"`
	NoRedact  bool   `toml:"no_redact"  env:"NO_REDACT"`

	// ── Output ───────────────────────────────────────────────────────
	Verbose int `toml:"verbose" env:"VERBOSE"`

	// ── Invocation only ──────────────────────────────────────────────
	ConfigFile string `toml:"-" env:"CONFIG"`
	DryRun     bool   `toml:"-"`
	Version    string `toml:"-"` // shown in the terminal banner
}

// ParsePort accepts a decimal port number in 1-65535.
func ParsePort(spec string) (int, error) {
	port, err := strconv.Atoi(spec)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", spec)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range 1-65535", port)
	}
	return port, nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
// Errors are *errors.ConfigError values carrying a hint for the user.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return &errors.ConfigError{
			Field:   "port",
			Value:   c.Port,
			Message: "out of range 1-65535",
		}
	}
	if c.Timeout < 0 {
		return &errors.ConfigError{
			Field:   "timeout",
			Value:   c.Timeout,
			Message: "must not be negative",
			Hint:    "use 0 to disable the idle timeout",
		}
	}

	if !c.Listen {
		if c.Host == "" {
			return &errors.ConfigError{
				Field:   "host",
				Message: "hostname is required in connect mode",
				Hint:    "use -l to start a server, or see --help",
			}
		}
		if c.Port == 0 {
			return &errors.ConfigError{
				Field:   "port",
				Message: "destination port is required",
				Hint:    fmt.Sprintf("the default ports are %d (once), %d (echo) and %d (terminal)", DefaultOncePort, DefaultEchoPort, DefaultTerminalPort),
			}
		}
		return nil
	}

	switch c.Mode {
	case ModeOnce, ModeEcho, ModeTerminal:
	default:
		return &errors.ConfigError{
			Field:   "mode",
			Value:   c.Mode,
			Message: "unknown mode",
			Hint:    "use one of: once, echo, terminal",
		}
	}
	if c.Port == 0 {
		return &errors.ConfigError{
			Field:   "port",
			Message: "listen mode requires a port",
			Hint:    "pass -p <port> or omit it to use the mode's default",
		}
	}
	if strings.TrimSpace(c.Sentinel) == "" || strings.ContainsAny(c.Sentinel, "\r\n") {
		return &errors.ConfigError{
			Field:   "sentinel",
			Value:   c.Sentinel,
			Message: "must be a non-empty single line",
		}
	}
	if c.Mode == ModeTerminal && c.Shell == "" {
		return &errors.ConfigError{
			Field:   "shell",
			Message: "terminal mode requires a shell",
			Hint:    "use system, builtin or an interpreter path",
		}
	}
	return nil
}
