package transport

import (
	"context"
	"net"
	"sync"

	"lineshell/internal/errors"
)

// Listener is a stream listener tied to a context: it closes itself
// when the context is done, which unblocks a pending Accept.
type Listener struct {
	ln   net.Listener
	stop func() bool

	closeOnce sync.Once
	closeErr  error
}

// Listen binds address.  A bind failure is returned as a
// *errors.NetworkError with Op "listen".
func Listen(ctx context.Context, network, address string) (*Listener, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, network, address)
	if err != nil {
		return nil, errors.Wrap("listen", address, err)
	}
	l := &Listener{ln: ln}
	l.stop = context.AfterFunc(ctx, func() { l.Close() })
	return l, nil
}

// Accept waits for the next connection.  After Close it returns an
// error satisfying errors.IsConnClosed.
func (l *Listener) Accept() (net.Conn, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, errors.Wrap("accept", l.ln.Addr().String(), err)
	}
	return conn, nil
}

// Addr returns the bound address, useful when listening on port 0.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Close stops listening.  Established connections are not affected.
// It is safe to call more than once.
func (l *Listener) Close() error {
	l.closeOnce.Do(func() {
		l.stop()
		l.closeErr = l.ln.Close()
	})
	return l.closeErr
}
