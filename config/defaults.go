package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, config file parsing, and environment variable
// loading.

// Server modes.
const (
	ModeOnce     = "once"     // echo one line, then hang up
	ModeEcho     = "echo"     // echo until the sentinel
	ModeTerminal = "terminal" // run each line as a shell command
)

// Shell selectors.  Any other value is taken as an interpreter path.
const (
	ShellSystem  = "system"
	ShellBuiltin = "builtin"
)

const (
	// DefaultMode is used when no mode is configured.  Echo is the only
	// mode that cannot run anything on the host.
	DefaultMode = ModeEcho

	DefaultOncePort     = 8001
	DefaultEchoPort     = 8002
	DefaultTerminalPort = 8003

	DefaultEchoSentinel     = "quit"
	DefaultTerminalSentinel = "exit"

	DefaultShell = ShellSystem

	// DefaultConnTimeout bounds the dial in connect mode.
	DefaultConnTimeout = 30 * time.Second

	// EnvPrefix is prepended to every environment variable name.
	EnvPrefix = "LINESHELL_"
)

// ModeDefaults returns the port and sentinel a mode listens with when
// none are configured.
func ModeDefaults(mode string) (port int, sentinel string) {
	switch mode {
	case ModeOnce:
		return DefaultOncePort, DefaultEchoSentinel
	case ModeTerminal:
		return DefaultTerminalPort, DefaultTerminalSentinel
	default:
		return DefaultEchoPort, DefaultEchoSentinel
	}
}

// ApplyDefaults fills every zero-valued field that has a default.  Port
// and Sentinel depend on Mode, so it must run after all sources have
// been merged.
func (c *Config) ApplyDefaults() {
	if c.Mode == "" {
		c.Mode = DefaultMode
	}
	if c.Shell == "" {
		c.Shell = DefaultShell
	}

	port, sentinel := ModeDefaults(c.Mode)
	if c.Listen && c.Port == 0 {
		c.Port = port
	}
	if c.Sentinel == "" {
		c.Sentinel = sentinel
	}
}
