package line

import (
	"bytes"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lineshell/internal/metrics"
)

// rw glues a reader and a writer into an io.ReadWriter.
type rw struct {
	io.Reader
	io.Writer
}

func TestReadLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"lf", "hello\nworld\n", []string{"hello", "world"}},
		{"crlf", "hello\r\nworld\r\n", []string{"hello", "world"}},
		{"empty lines", "\n\nx\n", []string{"", "", "x"}},
		{"unterminated tail", "a\nb", []string{"a", "b"}},
		{"inner cr kept", "a\rb\n", []string{"a\rb"}},
		{"utf8", "héllo wörld ✓\n", []string{"héllo wörld ✓"}},
		{"invalid utf8", "a\xffb\n", []string{"a�b"}},
		{"nothing", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(rw{strings.NewReader(tt.input), io.Discard})

			var got []string
			for {
				text, ok, err := c.ReadLine()
				require.NoError(t, err)
				if !ok {
					break
				}
				got = append(got, text)
			}
			assert.Equal(t, tt.want, got)

			// End of stream is sticky.
			_, ok, err := c.ReadLine()
			assert.False(t, ok)
			assert.NoError(t, err)
		})
	}
}

func TestReadLine_Error(t *testing.T) {
	boom := errors.New("connection reset")
	c := New(rw{io.MultiReader(strings.NewReader("partial"), errReader{boom}), io.Discard})

	_, ok, err := c.ReadLine()
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

func TestWriteLine(t *testing.T) {
	var out bytes.Buffer
	c := New(rw{strings.NewReader(""), &out})

	require.NoError(t, c.WriteLine("Echo: hi"))
	require.NoError(t, c.WriteLine(""))
	require.NoError(t, c.WriteLines([]string{"$ ", "bad\xfe"}))

	assert.Equal(t, "Echo: hi\n\n$ \nbad�\n", out.String())
}

type countingWriter struct {
	writes int
	buf    bytes.Buffer
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.writes++
	return w.buf.Write(p)
}

// TestWriteLine_SingleWrite verifies every line reaches the peer in one
// write, so nothing lingers in a buffer between operations.
func TestWriteLine_SingleWrite(t *testing.T) {
	w := &countingWriter{}
	c := New(rw{strings.NewReader(""), w})

	require.NoError(t, c.WriteLine("one"))
	require.NoError(t, c.WriteLine("two"))
	assert.Equal(t, 2, w.writes)
	assert.Equal(t, "one\ntwo\n", w.buf.String())
}

func TestWriteLine_Error(t *testing.T) {
	a, b := net.Pipe()
	b.Close()
	defer a.Close()

	c := New(a)
	assert.Error(t, c.WriteLine("x"))
}

func TestChannel_OverPipe(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	m := metrics.New()
	sc := New(server, WithMetrics(m))
	cc := New(client)

	go func() {
		cc.WriteLine("ping") //nolint:errcheck
		cc.ReadLine()        //nolint:errcheck
		client.Close()
	}()

	text, ok, err := sc.ReadLine()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ping", text)

	require.NoError(t, sc.WriteLine("pong"))

	_, ok, err = sc.ReadLine()
	assert.NoError(t, err)
	assert.False(t, ok, "peer close should report end of stream")

	assert.Equal(t, int64(len("ping\n")), m.TotalBytesIn())
	assert.Equal(t, int64(len("pong\n")), m.TotalBytesOut())
}

func TestReadLine_IdleTimeout(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	c := New(server, WithIdleTimeout(50*time.Millisecond))

	start := time.Now()
	_, ok, err := c.ReadLine()
	require.Error(t, err)
	assert.False(t, ok)

	var ne net.Error
	require.ErrorAs(t, err, &ne)
	assert.True(t, ne.Timeout())
	assert.Less(t, time.Since(start), 2*time.Second)
}
