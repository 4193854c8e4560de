// Package process runs shell commands on behalf of a terminal session
// and captures their output as text lines.
package process

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"lineshell/internal/errors"
	"lineshell/internal/metrics"
)

// Output is everything one command produced.  Stdout and Stderr hold
// the lines of each stream in the order they were written; ExitCode is
// the interpreter's exit status (-1 if it was killed or never ran).
type Output struct {
	Stdout   []string
	Stderr   []string
	ExitCode int
}

// Runner executes commands through a Shell.  It is safe for concurrent
// use as long as the Shell is.
type Runner struct {
	shell   Shell
	enc     encoding.Encoding
	metrics *metrics.Collector
}

// Option configures a Runner.
type Option func(*Runner)

// WithEncoding decodes subprocess output from enc instead of assuming
// UTF-8.
func WithEncoding(enc encoding.Encoding) Option {
	return func(r *Runner) { r.enc = enc }
}

// WithMetrics records spawned processes and exit codes.
func WithMetrics(m *metrics.Collector) Option {
	return func(r *Runner) { r.metrics = m }
}

// NewRunner returns a Runner using shell, or DefaultShell if nil.
func NewRunner(shell Shell, opts ...Option) *Runner {
	if shell == nil {
		shell = DefaultShell()
	}
	r := &Runner{shell: shell}
	for _, o := range opts {
		o(r)
	}
	return r
}

// LookupEncoding resolves a WHATWG encoding label such as "utf-8",
// "latin1" or "windows-1252".  An empty name means UTF-8 and returns
// nil.
func LookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return nil, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	return enc, nil
}

// Shell returns the configured interpreter.
func (r *Runner) Shell() Shell { return r.shell }

// Run executes command and waits for it to finish.  Both output streams
// are drained at the same time, so a command that fills its stderr pipe
// while still writing stdout cannot stall.  The returned error is a
// *errors.SpawnError when the interpreter could not be started and
// wraps errors.ErrInterrupted when ctx ended first; in the latter case
// Output holds whatever was captured before the interruption.
func (r *Runner) Run(ctx context.Context, command string) (Output, error) {
	outR, outW := io.Pipe()
	errR, errW := io.Pipe()

	var out Output
	var g errgroup.Group
	g.Go(func() (err error) {
		out.Stdout, err = r.collect(outR)
		return err
	})
	g.Go(func() (err error) {
		out.Stderr, err = r.collect(errR)
		return err
	})

	code, runErr := r.shell.Run(ctx, command, outW, errW)
	outW.Close()
	errW.Close()
	drainErr := g.Wait()

	out.ExitCode = code
	switch {
	case errors.IsSpawn(runErr):
		r.metrics.SpawnFailed()
		return out, runErr
	case runErr != nil:
		return out, runErr
	case drainErr != nil:
		return out, fmt.Errorf("read output: %w", drainErr)
	}
	r.metrics.ProcessExited(code)
	return out, nil
}

// collect reads src to EOF and splits it into lines.  On a decode error
// the pipe is closed so the writer side cannot block.
func (r *Runner) collect(src *io.PipeReader) ([]string, error) {
	var in io.Reader = src
	if r.enc != nil {
		in = transform.NewReader(src, r.enc.NewDecoder())
	}

	lines, err := readLines(in)
	if err != nil {
		src.CloseWithError(err)
	}
	return lines, err
}

func readLines(in io.Reader) ([]string, error) {
	var lines []string
	br := bufio.NewReader(in)
	for {
		s, err := br.ReadString('\n')
		if s != "" {
			s = strings.TrimSuffix(s, "\n")
			lines = append(lines, strings.TrimSuffix(s, "\r"))
		}
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return lines, err
		}
	}
}
