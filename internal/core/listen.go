package core

import (
	"context"
	"io"
	"net"
	"os"
	"sync"

	"lineshell/internal/capability"
	"lineshell/internal/metrics"
	"lineshell/internal/session"
	"lineshell/internal/transport"
	"lineshell/util"
)

// ListenMode accepts inbound TCP connections and runs a capability on
// each one.  By default it serves exactly one client: the listener is
// closed as soon as that client is accepted, so later connection
// attempts are refused.  With KeepOpen=true it serves every client on
// its own goroutine until the context is cancelled.
type ListenMode struct {
	Address    string // "host:port"; an empty host binds every interface
	KeepOpen   bool
	Capability capability.Capability
	Logger     *util.Logger
	Metrics    *metrics.Collector

	// SessionOptions are applied to every accepted session.
	SessionOptions []session.Option

	// OnListen, if set, is called with the bound address before the
	// first Accept.
	OnListen func(net.Addr)

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	Stdin  io.Reader
	Stdout io.Writer
}

func (m *ListenMode) stdin() io.Reader {
	if m.Stdin != nil {
		return m.Stdin
	}
	return os.Stdin
}

func (m *ListenMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

// Run binds the address and serves clients.  A bind failure is
// returned; failures inside a session are logged and never end Run.
func (m *ListenMode) Run(ctx context.Context) error {
	ln, err := transport.Listen(ctx, "tcp", m.Address)
	if err != nil {
		return err
	}
	defer ln.Close()
	defer func() { m.Logger.Verbose("metrics: %s", m.Metrics.JSON()) }()

	m.Logger.Info("listening on %s (tcp)", ln.Addr())
	if m.OnListen != nil {
		m.OnListen(ln.Addr())
	}

	if !m.KeepOpen {
		return m.serveOne(ctx, ln)
	}
	return m.serveMany(ctx, ln)
}

// ── Single client ────────────────────────────────────────────────────

func (m *ListenMode) serveOne(ctx context.Context, ln *transport.Listener) error {
	conn, err := ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	ln.Close()

	m.serveConn(ctx, conn)
	return nil
}

// ── Many clients ─────────────────────────────────────────────────────

func (m *ListenMode) serveMany(ctx context.Context, ln *transport.Listener) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			m.serveConn(ctx, conn)
		}()
	}
}

// ── Shared ───────────────────────────────────────────────────────────

func (m *ListenMode) serveConn(ctx context.Context, conn net.Conn) {
	m.Metrics.SessionOpened()
	defer m.Metrics.SessionClosed()

	sess := session.New(conn, m.stdin(), m.stdout(), m.Logger, m.SessionOptions...)
	defer sess.Close()

	sess.Logger.Info("accepted connection from %s", conn.RemoteAddr())
	if err := m.Capability.Handle(ctx, sess); err != nil {
		sess.Logger.Debug("handler returned: %v", err)
	}
}
