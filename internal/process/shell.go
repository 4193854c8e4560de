package process

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"lineshell/internal/errors"
)

// Shell runs one command string to completion, writing the command's
// standard output and standard error to the given writers.  A non-zero
// exit is reported through exitCode, not err; err is reserved for
// failures to start the command (a *errors.SpawnError) and for context
// cancellation.
type Shell interface {
	Run(ctx context.Context, command string, stdout, stderr io.Writer) (exitCode int, err error)
	Name() string
}

// DefaultShell returns the host command interpreter: cmd.exe /c on
// Windows, /bin/sh -c everywhere else.
func DefaultShell() *System {
	if runtime.GOOS == "windows" {
		return &System{Path: "cmd.exe", Flag: "/c"}
	}
	return &System{Path: "/bin/sh", Flag: "-c"}
}

// FlagFor returns the flag that makes the interpreter at path run one
// command string: /c for cmd.exe, -c for everything else.
func FlagFor(path string) string {
	base := strings.ToLower(filepath.Base(strings.ReplaceAll(path, `\`, "/")))
	if strings.TrimSuffix(base, ".exe") == "cmd" {
		return "/c"
	}
	return "-c"
}

// ── Host shell ───────────────────────────────────────────────────────

// waitDelay is how long Run waits for the output pipes to drain after a
// cancelled command has been killed.
const waitDelay = 500 * time.Millisecond

// System spawns an external interpreter as `Path Flag <command>`.  The
// command is passed as a single argument; the interpreter, not
// lineshell, decides how to tokenize it.
type System struct {
	Path string
	Flag string
	Dir  string // working directory; empty means the server's own
}

// Name returns the interpreter path.
func (s *System) Name() string { return s.Path }

// Run starts the interpreter and waits for it to exit.
func (s *System) Run(ctx context.Context, command string, stdout, stderr io.Writer) (int, error) {
	cmd := exec.CommandContext(ctx, s.Path, s.Flag, command)
	cmd.Dir = s.Dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	isolate(cmd)

	if err := cmd.Start(); err != nil {
		return -1, errors.Spawn(s.Path, command, err)
	}

	err := cmd.Wait()
	if ctx.Err() != nil {
		return cmd.ProcessState.ExitCode(), fmt.Errorf("%w: %v", errors.ErrInterrupted, ctx.Err())
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return cmd.ProcessState.ExitCode(), err
	}
	return 0, nil
}

// ── In-process shell ─────────────────────────────────────────────────

// Builtin interprets commands with a POSIX shell implemented in Go, for
// hosts that have no /bin/sh.  External programs are still executed
// through $PATH.
type Builtin struct {
	Dir string // working directory; empty means the server's own
}

// Name returns "builtin".
func (b *Builtin) Name() string { return "builtin" }

// Run parses and interprets command.  A syntax error is written to
// stderr and reported as exit code 2, as sh does.
func (b *Builtin) Run(ctx context.Context, command string, stdout, stderr io.Writer) (int, error) {
	file, err := syntax.NewParser().Parse(strings.NewReader(command), "")
	if err != nil {
		fmt.Fprintf(stderr, "builtin: %v\n", err)
		return 2, nil
	}

	opts := []interp.RunnerOption{interp.StdIO(nil, stdout, stderr)}
	if b.Dir != "" {
		opts = append(opts, interp.Dir(b.Dir))
	}
	runner, err := interp.New(opts...)
	if err != nil {
		return -1, errors.Spawn(b.Name(), command, err)
	}

	err = runner.Run(ctx, file)
	if ctx.Err() != nil {
		return -1, fmt.Errorf("%w: %v", errors.ErrInterrupted, ctx.Err())
	}
	if status, ok := interp.IsExitStatus(err); ok {
		return int(status), nil
	}
	if err != nil {
		return -1, err
	}
	return 0, nil
}
