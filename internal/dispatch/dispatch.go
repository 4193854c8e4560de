// Package dispatch turns one received command line into the lines sent
// back to the client.  A Dispatcher knows nothing about connections;
// the session loop feeds it commands and writes whatever it returns.
package dispatch

import (
	"context"
	"strings"

	"lineshell/internal/process"
)

// Result is the response to a single command.
type Result struct {
	// Lines are written to the client in order, one per line.
	Lines []string

	// ExitCode is set when the command ran a subprocess.
	ExitCode *int

	// Close ends the session once Lines have been written.
	Close bool

	// Sentinel is set when Close was requested by the client.
	Sentinel bool
}

// Dispatcher maps a command to its response.
type Dispatcher interface {
	// Greeting returns the lines sent as soon as a client connects.
	Greeting() []string

	// Dispatch handles one command.  It must not return until any work
	// started on behalf of the command has finished.
	Dispatch(ctx context.Context, command string) Result
}

// Runner is the part of process.Runner the terminal dispatcher needs.
type Runner interface {
	Run(ctx context.Context, command string) (process.Output, error)
}

// IsSentinel reports whether command is the session-ending token.  The
// comparison ignores case and nothing else: surrounding whitespace
// makes it an ordinary command.
func IsSentinel(command, sentinel string) bool {
	return sentinel != "" && strings.EqualFold(command, sentinel)
}
