package dispatch

import (
	"context"
	"fmt"

	"lineshell/internal/errors"
)

const (
	DefaultTitle   = "Basic Terminal Server"
	DefaultVersion = "1.0"

	// Prompt follows every command response.
	Prompt = "$ "

	ErrorPrefix = "ERROR: "
	Interrupted = "Command interrupted!"
)

const bannerRule = "================================="

// Terminal runs each command through a shell and reports its output.
type Terminal struct {
	Sentinel string
	Runner   Runner
	Title    string
	Version  string
}

// Greeting returns the welcome banner, ending with a blank line.
func (t *Terminal) Greeting() []string {
	title, version := t.Title, t.Version
	if title == "" {
		title = DefaultTitle
	}
	if version == "" {
		version = DefaultVersion
	}
	return []string{
		bannerRule,
		fmt.Sprintf("  %s v%s", title, version),
		fmt.Sprintf("  Type '%s' to quit", t.Sentinel),
		bannerRule,
		"",
	}
}

// Dispatch runs command and formats the result.  Standard output comes
// first, then standard error, then the exit status when it is not zero.
// Every response except the farewell ends with a blank line and the
// prompt.
func (t *Terminal) Dispatch(ctx context.Context, command string) Result {
	if IsSentinel(command, t.Sentinel) {
		return Result{
			Lines:    []string{"Terminal Server shutting down.", "GoodBye!"},
			Close:    true,
			Sentinel: true,
		}
	}

	out, err := t.Runner.Run(ctx, command)

	lines := make([]string, 0, len(out.Stdout)+len(out.Stderr)+3)
	lines = append(lines, out.Stdout...)
	for _, l := range out.Stderr {
		lines = append(lines, ErrorPrefix+l)
	}

	var res Result
	switch {
	case errors.Is(err, errors.ErrInterrupted):
		lines = append(lines, Interrupted)
	case err != nil:
		lines = append(lines, ErrorPrefix+spawnMessage(err))
	default:
		code := out.ExitCode
		res.ExitCode = &code
		if code != 0 {
			lines = append(lines, fmt.Sprintf("[Process exited with code: %d]", code))
		}
	}

	res.Lines = append(lines, "", Prompt)
	return res
}

// spawnMessage reports the cause of a failed start without repeating
// the command line back to the client.
func spawnMessage(err error) string {
	var se *errors.SpawnError
	if errors.As(err, &se) && se.Err != nil {
		return fmt.Sprintf("cannot run program %q: %v", se.Shell, se.Err)
	}
	return err.Error()
}
