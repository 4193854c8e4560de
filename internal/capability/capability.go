// Package capability defines what happens over an established
// connection.  Each Capability encapsulates a single behaviour
// (serve a line protocol, relay raw I/O) and operates on a Session
// rather than a raw net.Conn, which keeps capabilities testable
// and decoupled from transport details.
package capability

import (
	"context"

	"lineshell/internal/session"
)

// Capability handles a single connection according to a specific
// behaviour.  Implementations include the server-side line loop (Lines)
// and relaying stdin/stdout for the client (Relay).
type Capability interface {
	// Handle runs the capability against the given session.
	// It blocks until the connection is done or the context is
	// cancelled.
	Handle(ctx context.Context, sess *session.Session) error
}
