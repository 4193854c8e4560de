package dispatch

import "context"

// EchoPrefix is prepended to every echoed line.
const EchoPrefix = "Echo: "

// Echo repeats each command back to the client.
type Echo struct {
	Sentinel string

	// Farewell is written when the client sends the sentinel.  The
	// classic echo servers say nothing and just hang up.
	Farewell []string

	// Once closes the session after the first echo.
	Once bool
}

// Greeting returns nothing; echo clients speak first.
func (e *Echo) Greeting() []string { return nil }

// Dispatch echoes command, or ends the session on the sentinel.
func (e *Echo) Dispatch(_ context.Context, command string) Result {
	if IsSentinel(command, e.Sentinel) {
		return Result{Lines: e.Farewell, Close: true, Sentinel: true}
	}
	return Result{Lines: []string{EchoPrefix + command}, Close: e.Once}
}
