package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lineshell/config"
	"lineshell/internal/errors"
)

// parseArgs runs the flag and merge stages of Execute.
func parseArgs(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()
	o := &options{}
	fs := newFlagSet(o)
	require.NoError(t, fs.Parse(args))
	return resolve(o, fs)
}

// TestExecute_Version verifies --version prints a version string.
func TestExecute_Version(t *testing.T) {
	err := Execute(context.Background(), []string{"--version"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestExecute_Help verifies --help (and no args) returns without error.
func TestExecute_Help(t *testing.T) {
	for _, args := range [][]string{{"--help"}, {}} {
		name := "no-args"
		if len(args) > 0 {
			name = args[0]
		}
		t.Run(name, func(t *testing.T) {
			if err := Execute(context.Background(), args); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

// TestExecute_DryRun verifies --dry-run validates and exits cleanly.
func TestExecute_DryRun(t *testing.T) {
	for _, args := range [][]string{
		{"-l", "--dry-run"},
		{"-l", "-m", "terminal", "-p", "9003", "--dry-run"},
		{"-l", "-m", "once", "-k", "--dry-run"},
		{"localhost", "8003", "--dry-run"},
	} {
		assert.NoError(t, Execute(context.Background(), args), "%v", args)
	}
}

// TestExecute_DryRunInvalid verifies --dry-run still catches bad configs.
func TestExecute_DryRunInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown mode", []string{"-l", "-m", "chat", "--dry-run"}},
		{"connect without port", []string{"localhost", "--dry-run"}},
		{"bad encoding", []string{"-l", "-m", "terminal", "--encoding", "klingon", "--dry-run"}},
		{"bad positional port", []string{"-l", "http", "--dry-run"}},
		{"too many args", []string{"a", "1", "2", "--dry-run"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, Execute(context.Background(), tt.args))
		})
	}
}

// TestExecute_InvalidFlags verifies unknown flags produce an error.
func TestExecute_InvalidFlags(t *testing.T) {
	err := Execute(context.Background(), []string{"--nonexistent-flag"})
	if err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

func TestResolve_ModeDefaults(t *testing.T) {
	cfg, err := parseArgs(t, "-l", "-m", "terminal")
	require.NoError(t, err)
	assert.Equal(t, 8003, cfg.Port)
	assert.Equal(t, "exit", cfg.Sentinel)
	assert.Equal(t, config.ShellSystem, cfg.Shell)

	cfg, err = parseArgs(t, "-l")
	require.NoError(t, err)
	assert.Equal(t, config.ModeEcho, cfg.Mode)
	assert.Equal(t, 8002, cfg.Port)
	assert.Equal(t, "quit", cfg.Sentinel)
}

func TestResolve_VersionAndFarewell(t *testing.T) {
	cfg, err := parseArgs(t, "-l", "--farewell", "bye")
	require.NoError(t, err)
	assert.Equal(t, version, cfg.Version)
	assert.Equal(t, "bye", cfg.Farewell)
}

func TestResolve_Positional(t *testing.T) {
	cfg, err := parseArgs(t, "example.com", "8003")
	require.NoError(t, err)
	assert.False(t, cfg.Listen)
	assert.Equal(t, "example.com", cfg.Host)
	assert.Equal(t, 8003, cfg.Port)

	cfg, err = parseArgs(t, "-l", "-m", "once", "9001")
	require.NoError(t, err)
	assert.Equal(t, 9001, cfg.Port)
}

func TestResolve_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lineshell.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen = true
mode = "terminal"
port = 7000
sentinel = "logout"
timeout = "10s"
`), 0o600))

	t.Setenv("LINESHELL_PORT", "7100")
	t.Setenv("LINESHELL_KEEP_OPEN", "true")

	// File < env < explicitly set flags.
	cfg, err := parseArgs(t, "--config", path, "-w", "30")
	require.NoError(t, err)
	assert.True(t, cfg.Listen)
	assert.Equal(t, config.ModeTerminal, cfg.Mode)
	assert.Equal(t, 7100, cfg.Port)
	assert.True(t, cfg.KeepOpen)
	assert.Equal(t, "logout", cfg.Sentinel)
	assert.Equal(t, 30*time.Second, cfg.Timeout)

	// Flags left at their zero value do not clobber earlier sources.
	cfg, err = parseArgs(t, "--config", path, "-p", "7200")
	require.NoError(t, err)
	assert.Equal(t, 7200, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.True(t, cfg.KeepOpen)
}

func TestResolve_ValidationError(t *testing.T) {
	_, err := parseArgs(t, "-l", "--sentinel", " ")
	var ce *errors.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "sentinel", ce.Field)
}

func TestVerbosity(t *testing.T) {
	assert.Equal(t, 1, verbosity(&config.Config{Listen: true}, false))
	assert.Equal(t, 3, verbosity(&config.Config{Listen: true, Verbose: 2}, false))
	assert.Equal(t, 0, verbosity(&config.Config{Listen: true, Verbose: 2}, true))
	assert.Equal(t, 0, verbosity(&config.Config{}, false))
	assert.Equal(t, 1, verbosity(&config.Config{Verbose: 1}, false))
}

func TestDescribe(t *testing.T) {
	cfg := &config.Config{Listen: true, Mode: config.ModeTerminal, Port: 8003, Sentinel: "exit", Shell: "builtin", KeepOpen: true}
	assert.Equal(t, `would listen on :8003 in terminal mode (sentinel "exit", shell builtin, keep-open)`, describe(cfg))
	assert.Equal(t, "would connect to localhost:8002", describe(&config.Config{Host: "localhost", Port: 8002}))
}
