// Package session represents a single connection lifecycle, binding a
// network connection with I/O endpoints and a line-oriented
// request/response loop.
//
// Sessions decouple capabilities from concrete I/O sources.  A
// capability doesn't need to know whether it's reading from os.Stdin
// or a test buffer, it just uses the session's endpoints.
package session

import (
	"context"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"lineshell/internal/dispatch"
	"lineshell/internal/errors"
	"lineshell/internal/line"
	"lineshell/internal/metrics"
	"lineshell/util"
)

// State is the lifecycle position of a Session.
type State int32

const (
	Open State = iota
	Closed
)

func (s State) String() string {
	if s == Closed {
		return "closed"
	}
	return "open"
}

// EndReason says why Serve returned.
type EndReason int

const (
	// EndSentinel: the dispatcher asked to close, normally because the
	// client sent the sentinel.
	EndSentinel EndReason = iota
	// EndComplete: the dispatcher closed the session on its own, as the
	// single-message echo does.
	EndComplete
	// EndPeerDisconnect: the client closed its side without the sentinel.
	EndPeerDisconnect
	// EndIOError: a read or write failed.
	EndIOError
	// EndCanceled: the server is shutting down.
	EndCanceled
)

func (r EndReason) String() string {
	switch r {
	case EndSentinel:
		return "sentinel"
	case EndComplete:
		return "complete"
	case EndPeerDisconnect:
		return "peer disconnect"
	case EndIOError:
		return "i/o error"
	case EndCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Session encapsulates the runtime context for a single connection.
// Capabilities operate on sessions rather than raw connections,
// enabling clean testing and I/O abstraction.
type Session struct {
	ID     string
	Conn   net.Conn
	Lines  *line.Channel
	Stdin  io.Reader
	Stdout io.Writer
	Logger *util.Logger

	metrics *metrics.Collector
	idle    time.Duration
	redact  func(string) string

	state     atomic.Int32
	closeOnce sync.Once
	closeErr  error
}

// Option configures a Session.
type Option func(*Session)

// WithMetrics records session activity in m.
func WithMetrics(m *metrics.Collector) Option {
	return func(s *Session) { s.metrics = m }
}

// WithIdleTimeout ends the session when the client sends nothing for d.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Session) { s.idle = d }
}

// WithRedactor rewrites each command before it is logged.
func WithRedactor(fn func(string) string) Option {
	return func(s *Session) { s.redact = fn }
}

// New creates a Session that owns conn.  stdin and stdout are the local
// endpoints used by relaying capabilities; the line loop ignores them.
func New(conn net.Conn, stdin io.Reader, stdout io.Writer, logger *util.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = util.NewLogger(0)
	}
	s := &Session{
		ID:     uuid.NewString(),
		Conn:   conn,
		Stdin:  stdin,
		Stdout: stdout,
	}
	for _, o := range opts {
		o(s)
	}
	s.Logger = logger.With("session", s.ID)
	s.Lines = line.New(conn, line.WithIdleTimeout(s.idle), line.WithMetrics(s.metrics))
	return s
}

// State returns Open until Close has been called.
func (s *Session) State() State { return State(s.state.Load()) }

// Close releases the connection.  It is safe to call more than once and
// from any goroutine; only the first call has an effect.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.state.Store(int32(Closed))
		s.closeErr = s.Conn.Close()
	})
	return s.closeErr
}

// Serve runs the read, dispatch, respond loop until the client sends
// the sentinel, disconnects, an I/O error occurs or ctx is done.  The
// connection is always closed on return.  Only EndIOError comes with a
// non-nil error.
func (s *Session) Serve(ctx context.Context, d dispatch.Dispatcher) (EndReason, error) {
	defer s.Close()
	if d == nil {
		return EndIOError, errors.ErrNoDispatcher
	}
	if s.State() == Closed {
		return EndIOError, errors.ErrSessionClosed
	}

	// Closing the connection is the only way to unblock a pending read.
	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()

	if err := s.Lines.WriteLines(d.Greeting()); err != nil {
		return s.fail(ctx, "write", err)
	}

	for {
		command, ok, err := s.Lines.ReadLine()
		if err != nil {
			return s.fail(ctx, "read", err)
		}
		if !ok {
			s.Logger.Info("client disconnected unexpectedly")
			return EndPeerDisconnect, nil
		}

		s.Logger.Info("received command: %s", s.logged(command))
		s.metrics.CommandDispatched()

		res := d.Dispatch(ctx, command)
		if res.ExitCode != nil {
			s.Logger.Verbose("command exited with code %d", *res.ExitCode)
		}
		if err := s.Lines.WriteLines(res.Lines); err != nil {
			return s.fail(ctx, "write", err)
		}

		switch {
		case res.Sentinel:
			s.Logger.Info("client sent sentinel")
			return EndSentinel, nil
		case res.Close:
			s.Logger.Verbose("session complete")
			return EndComplete, nil
		case ctx.Err() != nil:
			s.Logger.Verbose("session canceled")
			return EndCanceled, nil
		}
	}
}

// fail classifies an I/O error.  Errors caused by our own shutdown are
// not failures.
func (s *Session) fail(ctx context.Context, op string, err error) (EndReason, error) {
	if ctx.Err() != nil {
		s.Logger.Verbose("session canceled")
		return EndCanceled, nil
	}
	if errors.IsConnClosed(err) {
		s.Logger.Info("client disconnected unexpectedly")
		return EndPeerDisconnect, nil
	}

	nerr := errors.Wrap(op, s.remote(), err)
	if errors.IsTimeout(err) {
		s.Logger.Warn("idle timeout after %s", s.idle)
	} else {
		s.Logger.Error("%v", nerr)
	}
	s.metrics.RecordError(nerr.Error())
	return EndIOError, nerr
}

func (s *Session) logged(command string) string {
	if s.redact == nil {
		return command
	}
	return s.redact(command)
}

func (s *Session) remote() string {
	if a := s.Conn.RemoteAddr(); a != nil {
		return a.String()
	}
	return ""
}
