package session

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lineshell/internal/dispatch"
	"lineshell/internal/errors"
	"lineshell/internal/metrics"
	"lineshell/internal/process"
	"lineshell/util"
)

type served struct {
	reason EndReason
	err    error
}

// start runs Serve on the server end of a pipe and returns the client
// end with a reader over it.
func start(t *testing.T, ctx context.Context, d dispatch.Dispatcher, opts ...Option) (*Session, net.Conn, *bufio.Reader, <-chan served) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() { client.Close() })

	sess := New(server, nil, nil, util.NewLogger(0), opts...)
	done := make(chan served, 1)
	go func() {
		r, err := sess.Serve(ctx, d)
		done <- served{r, err}
	}()
	return sess, client, bufio.NewReader(client), done
}

func send(t *testing.T, c net.Conn, text string) {
	t.Helper()
	_, err := io.WriteString(c, text+"\n")
	require.NoError(t, err)
}

func recv(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	s, err := r.ReadString('\n')
	require.NoError(t, err)
	return strings.TrimSuffix(s, "\n")
}

func wait(t *testing.T, done <-chan served) served {
	t.Helper()
	select {
	case s := <-done:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("session did not end")
		return served{}
	}
}

func TestServe_EchoUntilSentinel(t *testing.T) {
	m := metrics.New()
	sess, client, r, done := start(t, context.Background(), &dispatch.Echo{Sentinel: "quit"}, WithMetrics(m))

	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, Open, sess.State())

	send(t, client, "hello")
	assert.Equal(t, "Echo: hello", recv(t, r))
	send(t, client, "")
	assert.Equal(t, "Echo: ", recv(t, r))
	send(t, client, "Quit")

	// No farewell: the next read sees the close.
	_, err := r.ReadString('\n')
	assert.ErrorIs(t, err, io.EOF)

	res := wait(t, done)
	assert.Equal(t, EndSentinel, res.reason)
	assert.NoError(t, res.err)
	assert.Equal(t, Closed, sess.State())
	assert.Equal(t, int64(3), m.Commands())
}

func TestServe_Greeting(t *testing.T) {
	term := &dispatch.Terminal{Sentinel: "exit", Runner: nopRunner{}}
	_, client, r, done := start(t, context.Background(), term)

	for _, want := range term.Greeting() {
		assert.Equal(t, want, recv(t, r))
	}
	send(t, client, "exit")
	assert.Equal(t, "Terminal Server shutting down.", recv(t, r))
	assert.Equal(t, "GoodBye!", recv(t, r))

	res := wait(t, done)
	assert.Equal(t, EndSentinel, res.reason)
}

func TestServe_Once(t *testing.T) {
	_, client, r, done := start(t, context.Background(), &dispatch.Echo{Sentinel: "quit", Once: true})

	send(t, client, "only")
	assert.Equal(t, "Echo: only", recv(t, r))
	assert.Equal(t, EndComplete, wait(t, done).reason)
}

func TestServe_PeerDisconnect(t *testing.T) {
	_, client, r, done := start(t, context.Background(), &dispatch.Echo{Sentinel: "quit"})

	send(t, client, "a")
	assert.Equal(t, "Echo: a", recv(t, r))
	client.Close()

	res := wait(t, done)
	assert.Equal(t, EndPeerDisconnect, res.reason)
	assert.NoError(t, res.err)
}

func TestServe_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sess, _, _, done := start(t, ctx, &dispatch.Echo{Sentinel: "quit"})

	// Serve is now blocked reading.
	time.Sleep(20 * time.Millisecond)
	cancel()

	res := wait(t, done)
	assert.Equal(t, EndCanceled, res.reason)
	assert.NoError(t, res.err)
	assert.Equal(t, Closed, sess.State())
}

func TestServe_IdleTimeout(t *testing.T) {
	m := metrics.New()
	_, _, _, done := start(t, context.Background(), &dispatch.Echo{Sentinel: "quit"},
		WithIdleTimeout(50*time.Millisecond), WithMetrics(m))

	res := wait(t, done)
	assert.Equal(t, EndIOError, res.reason)
	require.Error(t, res.err)

	var nerr *errors.NetworkError
	require.ErrorAs(t, res.err, &nerr)
	assert.Equal(t, "read", nerr.Op)
	assert.True(t, errors.IsTimeout(res.err))
	assert.Equal(t, int64(1), m.ErrorCount())
}

// resetConn fails every write once the first n have gone through.
type resetConn struct {
	net.Conn
	n int
}

func (c *resetConn) Write(p []byte) (int, error) {
	if c.n <= 0 {
		return 0, syscall.ECONNRESET
	}
	c.n--
	return c.Conn.Write(p)
}

func TestServe_WriteError(t *testing.T) {
	term := &dispatch.Terminal{Sentinel: "exit", Runner: nopRunner{}}
	greeting := term.Greeting()

	server, client := net.Pipe()
	defer client.Close()

	m := metrics.New()
	sess := New(&resetConn{Conn: server, n: len(greeting)}, nil, nil, util.NewLogger(0), WithMetrics(m))
	done := make(chan served, 1)
	go func() {
		r, err := sess.Serve(context.Background(), term)
		done <- served{r, err}
	}()

	r := bufio.NewReader(client)
	for _, want := range greeting {
		assert.Equal(t, want, recv(t, r))
	}
	send(t, client, "ls")

	res := wait(t, done)
	assert.Equal(t, EndIOError, res.reason)
	assert.ErrorIs(t, res.err, syscall.ECONNRESET)

	var nerr *errors.NetworkError
	require.ErrorAs(t, res.err, &nerr)
	assert.Equal(t, "write", nerr.Op)
	assert.Equal(t, Closed, sess.State())
	assert.Equal(t, int64(1), m.ErrorCount())

	_, err := r.ReadString('\n')
	assert.ErrorIs(t, err, io.EOF, "connection released")
}

func TestServe_GreetingWriteError(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	sess := New(&resetConn{Conn: server}, nil, nil, nil)
	reason, err := sess.Serve(context.Background(), &dispatch.Terminal{Sentinel: "exit", Runner: nopRunner{}})
	assert.Equal(t, EndIOError, reason)

	var nerr *errors.NetworkError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "write", nerr.Op)
	assert.Equal(t, Closed, sess.State())
}

func TestServe_NilDispatcher(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	sess := New(server, nil, nil, nil)
	_, err := sess.Serve(context.Background(), nil)
	assert.ErrorIs(t, err, errors.ErrNoDispatcher)
	assert.Equal(t, Closed, sess.State())
}

func TestServe_AfterClose(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	sess := New(server, nil, nil, nil)
	sess.Close()
	_, err := sess.Serve(context.Background(), &dispatch.Echo{})
	assert.ErrorIs(t, err, errors.ErrSessionClosed)
}

func TestServe_RedactsLoggedCommands(t *testing.T) {
	var buf bytes.Buffer
	logger := util.NewLogger(1)
	logger.SetOutput(&buf)

	server, client := net.Pipe()
	defer client.Close()
	sess := New(server, nil, nil, logger, WithRedactor(func(string) string { return "<hidden>" }))

	done := make(chan struct{})
	go func() {
		sess.Serve(context.Background(), &dispatch.Echo{Sentinel: "quit"}) //nolint:errcheck
		close(done)
	}()

	r := bufio.NewReader(client)
	send(t, client, "secret")
	assert.Equal(t, "Echo: secret", recv(t, r))
	send(t, client, "quit")
	<-done

	out := buf.String()
	assert.Contains(t, out, "received command: <hidden>")
	assert.NotContains(t, out, "received command: secret")
	assert.Contains(t, out, "client sent sentinel")
	assert.Contains(t, out, sess.ID)
}

func TestClose_Idempotent(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	sess := New(server, nil, nil, nil)
	assert.NoError(t, sess.Close())
	assert.NoError(t, sess.Close())
	assert.Equal(t, Closed, sess.State())
}

func TestEndReason_String(t *testing.T) {
	assert.Equal(t, "sentinel", EndSentinel.String())
	assert.Equal(t, "peer disconnect", EndPeerDisconnect.String())
	assert.Equal(t, "canceled", EndCanceled.String())
	assert.Equal(t, "unknown", EndReason(99).String())
}

type nopRunner struct{}

func (nopRunner) Run(context.Context, string) (process.Output, error) { return process.Output{}, nil }
