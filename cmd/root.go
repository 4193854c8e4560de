// Package cmd wires up the CLI flags and dispatches to the core modes.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"lineshell/config"
	"lineshell/internal/core"
	"lineshell/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X lineshell/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// options holds what the flag set parses before it is merged with the
// other configuration sources.
type options struct {
	cfg         config.Config
	timeoutSec  int
	quiet       bool
	showVersion bool
	showHelp    bool
}

func newFlagSet(o *options) *flag.FlagSet {
	f := &o.cfg
	fs := flag.NewFlagSet("lineshell", flag.ContinueOnError)

	// ── server ───────────────────────────────────────────────────
	fs.BoolVarP(&f.Listen, "listen", "l", false, "Listen mode (serve clients)")
	fs.StringVarP(&f.Mode, "mode", "m", "", "Server mode: once, echo or terminal (default echo)")
	fs.IntVarP(&f.Port, "port", "p", 0, "Listen port (default 8001/8002/8003 by mode)")
	fs.StringVarP(&f.Host, "bind", "b", "", "Listen address (default all interfaces)")
	fs.BoolVarP(&f.KeepOpen, "keep-open", "k", false, "Serve clients until interrupted instead of just one")
	fs.StringVar(&f.Sentinel, "sentinel", "", "Line that ends a session (default quit, or exit in terminal mode)")
	fs.StringVar(&f.Farewell, "farewell", "", "Line an echo server sends before hanging up on the sentinel")
	fs.IntVarP(&o.timeoutSec, "timeout", "w", 0, "Idle timeout per client in seconds (0 = none)")

	// ── terminal mode ────────────────────────────────────────────
	fs.StringVar(&f.Shell, "shell", "", "Interpreter: system, builtin or a path (default system)")
	fs.StringVar(&f.ShellFlag, "shell-flag", "", "Flag passed before the command to a custom --shell (default -c, /c for cmd.exe)")
	fs.StringVar(&f.Dir, "dir", "", "Working directory for commands")
	fs.StringVar(&f.Encoding, "encoding", "", "Character set of command output (default utf-8)")
	fs.BoolVar(&f.NoRedact, "no-redact", false, "Log received commands verbatim")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&f.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVarP(&o.quiet, "quiet", "q", false, "Only log errors")

	// ── invocation ───────────────────────────────────────────────
	fs.StringVarP(&f.ConfigFile, "config", "c", "", "TOML config file")
	fs.BoolVar(&f.DryRun, "dry-run", false, "Validate configuration and exit")
	fs.BoolVar(&o.showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&o.showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }
	return fs
}

// Execute parses args and runs the appropriate lineshell mode.
func Execute(ctx context.Context, args []string) error {
	o := &options{}
	fs := newFlagSet(o)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if o.showHelp || len(args) == 0 {
		printUsage(fs)
		return nil
	}
	if o.showVersion {
		fmt.Printf("lineshell %s\n", version)
		return nil
	}

	cfg, err := resolve(o, fs)
	if err != nil {
		return err
	}

	// ── build components ─────────────────────────────────────────
	logger := util.NewLogger(verbosity(cfg, o.quiet))
	defer logger.Sync() //nolint:errcheck

	mode, err := core.Build(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.DryRun {
		fmt.Fprintln(os.Stderr, describe(cfg))
		return nil
	}

	if !cfg.Listen && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "Type the server's sentinel (quit or exit) or press Ctrl-D to end the session.")
	}

	return mode.Run(ctx)
}

// resolve merges the configuration sources in order: defaults, config
// file, LINESHELL_* environment, then flags.  Only flags given on the
// command line override the earlier sources.
func resolve(o *options, fs *flag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(o.cfg.ConfigFile)
	if err != nil {
		return nil, err
	}
	overlayFlags(cfg, &o.cfg, fs, o.timeoutSec)

	if err := parsePositional(cfg, fs.Args()); err != nil {
		return nil, err
	}

	cfg.Version = version
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ── helpers ──────────────────────────────────────────────────────────

// overlayFlags copies every flag the user actually set from f onto cfg.
func overlayFlags(cfg, f *config.Config, fs *flag.FlagSet, timeoutSec int) {
	apply := map[string]func(){
		"listen":     func() { cfg.Listen = f.Listen },
		"mode":       func() { cfg.Mode = f.Mode },
		"port":       func() { cfg.Port = f.Port },
		"bind":       func() { cfg.Host = f.Host },
		"keep-open":  func() { cfg.KeepOpen = f.KeepOpen },
		"sentinel":   func() { cfg.Sentinel = f.Sentinel },
		"farewell":   func() { cfg.Farewell = f.Farewell },
		"timeout":    func() { cfg.Timeout = time.Duration(timeoutSec) * time.Second },
		"shell":      func() { cfg.Shell = f.Shell },
		"shell-flag": func() { cfg.ShellFlag = f.ShellFlag },
		"dir":        func() { cfg.Dir = f.Dir },
		"encoding":   func() { cfg.Encoding = f.Encoding },
		"no-redact":  func() { cfg.NoRedact = f.NoRedact },
		"verbose":    func() { cfg.Verbose = f.Verbose },
		"dry-run":    func() { cfg.DryRun = f.DryRun },
	}
	fs.Visit(func(fl *flag.Flag) {
		if fn, ok := apply[fl.Name]; ok {
			fn()
		}
	})
}

func parsePositional(cfg *config.Config, remaining []string) error {
	if cfg.Listen {
		switch len(remaining) {
		case 0: // lineshell -l [-p PORT]
		case 1:
			port, err := config.ParsePort(remaining[0])
			if err != nil {
				return fmt.Errorf("port: %w", err)
			}
			cfg.Port = port
		default:
			return fmt.Errorf("too many arguments for listen mode")
		}
		return nil
	}

	// Connect mode: host port
	switch len(remaining) {
	case 0: // host and port from config or environment
	case 1:
		cfg.Host = remaining[0]
	case 2:
		cfg.Host = remaining[0]
		port, err := config.ParsePort(remaining[1])
		if err != nil {
			return fmt.Errorf("port: %w", err)
		}
		cfg.Port = port
	default:
		return fmt.Errorf("too many arguments for connect mode")
	}
	return nil
}

// verbosity maps the configuration onto a logger level.  Servers log
// connections and commands by default; clients stay silent unless -v
// is given so the relayed output is not interleaved with log lines.
func verbosity(cfg *config.Config, quiet bool) int {
	switch {
	case quiet:
		return 0
	case cfg.Listen:
		return cfg.Verbose + 1
	default:
		return cfg.Verbose
	}
}

func describe(cfg *config.Config) string {
	if !cfg.Listen {
		return fmt.Sprintf("would connect to %s", util.FormatAddr(cfg.Host, cfg.Port))
	}
	s := fmt.Sprintf("would listen on %s in %s mode (sentinel %q",
		util.FormatAddr(cfg.Host, cfg.Port), cfg.Mode, cfg.Sentinel)
	if cfg.Mode == config.ModeTerminal {
		s += fmt.Sprintf(", shell %s", cfg.Shell)
	}
	if cfg.KeepOpen {
		s += ", keep-open"
	}
	return s + ")"
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `lineshell - line-oriented echo and terminal server v%s

Serves newline-delimited text over TCP: echo each line back, or run
each line as a shell command and return its output.

Usage:
  lineshell -l [-m mode] [-p port] [options]    Serve
  lineshell [options] <host> <port>             Connect

Modes:
  once        echo a single line, then hang up           (port 8001)
  echo        echo every line until "quit"               (port 8002)
  terminal    run every line in a shell until "exit"     (port 8003)

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Environment:
  Every setting can also come from LINESHELL_<NAME> (LINESHELL_MODE,
  LINESHELL_PORT, LINESHELL_KEEP_OPEN, ...) or a TOML file (--config).

Examples:
  lineshell -l                                  Echo server on 8002
  lineshell -l -m terminal -k                   Terminal server on 8003
  lineshell -l -m terminal --shell builtin      Use the built-in POSIX shell
  lineshell localhost 8003                      Talk to a server
  echo "hello" | lineshell localhost 8002       Pipe a line
`)
}
