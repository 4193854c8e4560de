package core

import (
	"fmt"
	"os"

	"lineshell/config"
	"lineshell/internal/capability"
	"lineshell/internal/dispatch"
	"lineshell/internal/errors"
	"lineshell/internal/metrics"
	"lineshell/internal/process"
	"lineshell/internal/session"
	"lineshell/internal/transport"
	"lineshell/util"
)

// Build constructs the appropriate Mode from the given configuration.
// cfg must already have defaults applied and be validated.
func Build(cfg *config.Config, logger *util.Logger) (Mode, error) {
	if cfg.Listen {
		return buildListen(cfg, logger)
	}
	return buildConnect(cfg, logger), nil
}

// ── mode builders ────────────────────────────────────────────────────

func buildConnect(cfg *config.Config, logger *util.Logger) Mode {
	return &ConnectMode{
		Dialer:     &transport.TCPDialer{Timeout: config.DefaultConnTimeout},
		Capability: &capability.Relay{},
		Address:    util.FormatAddr(cfg.Host, cfg.Port),
		Logger:     logger,
	}
}

func buildListen(cfg *config.Config, logger *util.Logger) (Mode, error) {
	m := metrics.New()

	d, err := BuildDispatcher(cfg, m)
	if err != nil {
		return nil, err
	}

	opts := []session.Option{
		session.WithMetrics(m),
		session.WithIdleTimeout(cfg.Timeout),
	}
	if cfg.Mode == config.ModeTerminal && !cfg.NoRedact {
		opts = append(opts, session.WithRedactor(process.Redact))
	}

	return &ListenMode{
		Address:        util.FormatAddr(cfg.Host, cfg.Port),
		KeepOpen:       cfg.KeepOpen,
		Capability:     &capability.Lines{Dispatcher: d},
		Logger:         logger,
		Metrics:        m,
		SessionOptions: opts,
	}, nil
}

// ── shared helpers ───────────────────────────────────────────────────

// BuildDispatcher selects the per-command behaviour for cfg.Mode.
func BuildDispatcher(cfg *config.Config, m *metrics.Collector) (dispatch.Dispatcher, error) {
	switch cfg.Mode {
	case config.ModeOnce, config.ModeEcho:
		e := &dispatch.Echo{Sentinel: cfg.Sentinel, Once: cfg.Mode == config.ModeOnce}
		if cfg.Farewell != "" {
			e.Farewell = []string{cfg.Farewell}
		}
		return e, nil
	case config.ModeTerminal:
		runner, err := BuildRunner(cfg, m)
		if err != nil {
			return nil, err
		}
		return &dispatch.Terminal{Sentinel: cfg.Sentinel, Runner: runner, Version: cfg.Version}, nil
	default:
		return nil, fmt.Errorf("mode %q: %w", cfg.Mode, errors.ErrNoDispatcher)
	}
}

// BuildRunner creates the process runner used by terminal mode.
func BuildRunner(cfg *config.Config, m *metrics.Collector) (*process.Runner, error) {
	if cfg.Dir != "" {
		if fi, err := os.Stat(cfg.Dir); err != nil || !fi.IsDir() {
			return nil, &errors.ConfigError{
				Field:   "dir",
				Value:   cfg.Dir,
				Message: "not a directory",
			}
		}
	}

	enc, err := process.LookupEncoding(cfg.Encoding)
	if err != nil {
		return nil, &errors.ConfigError{
			Field:   "encoding",
			Value:   cfg.Encoding,
			Message: err.Error(),
			Hint:    "use a WHATWG label such as utf-8, windows-1252 or shift_jis",
		}
	}

	opts := []process.Option{process.WithMetrics(m)}
	if enc != nil {
		opts = append(opts, process.WithEncoding(enc))
	}
	return process.NewRunner(buildShell(cfg), opts...), nil
}

func buildShell(cfg *config.Config) process.Shell {
	switch cfg.Shell {
	case "", config.ShellSystem:
		sh := process.DefaultShell()
		sh.Dir = cfg.Dir
		return sh
	case config.ShellBuiltin:
		return &process.Builtin{Dir: cfg.Dir}
	default:
		flag := cfg.ShellFlag
		if flag == "" {
			flag = process.FlagFor(cfg.Shell)
		}
		return &process.System{Path: cfg.Shell, Flag: flag, Dir: cfg.Dir}
	}
}
