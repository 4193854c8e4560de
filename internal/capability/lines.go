package capability

import (
	"context"

	"lineshell/internal/dispatch"
	"lineshell/internal/session"
)

// Lines serves the request/response line protocol, answering each
// command through Dispatcher.
type Lines struct {
	Dispatcher dispatch.Dispatcher
}

// Handle runs the session loop and returns once the session has ended.
// Ending because of the sentinel, a disconnect or cancellation is not
// an error.
func (l *Lines) Handle(ctx context.Context, sess *session.Session) error {
	reason, err := sess.Serve(ctx, l.Dispatcher)
	sess.Logger.Verbose("session ended: %s", reason)
	return err
}
