// Package line frames a byte stream as newline-delimited UTF-8 text.
//
// A Channel is owned by exactly one session and is not safe for
// concurrent use.
package line

import (
	"bufio"
	"io"
	"strings"
	"time"

	"lineshell/internal/metrics"
)

// deadliner is satisfied by net.Conn.
type deadliner interface {
	SetReadDeadline(t time.Time) error
}

// Channel reads and writes whole lines over a connection.
type Channel struct {
	r       *bufio.Reader
	w       io.Writer
	rw      io.ReadWriter
	idle    time.Duration
	metrics *metrics.Collector
	eof     bool
}

// Option configures a Channel.
type Option func(*Channel)

// WithIdleTimeout makes ReadLine fail when no complete line arrives
// within d.  Zero disables the timeout.  It only has an effect when the
// underlying stream supports read deadlines.
func WithIdleTimeout(d time.Duration) Option {
	return func(c *Channel) { c.idle = d }
}

// WithMetrics counts bytes read and written.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Channel) { c.metrics = m }
}

// New wraps rw.
func New(rw io.ReadWriter, opts ...Option) *Channel {
	c := &Channel{r: bufio.NewReader(rw), w: rw, rw: rw}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ReadLine blocks until a full line is available and returns it without
// its terminator ("\n" or "\r\n").  When the peer has closed the stream
// it returns ok == false with a nil error.  A trailing fragment without
// a terminator is returned as a final line.
func (c *Channel) ReadLine() (text string, ok bool, err error) {
	if c.eof {
		return "", false, nil
	}
	if c.idle > 0 {
		if d, isDeadliner := c.rw.(deadliner); isDeadliner {
			if err := d.SetReadDeadline(time.Now().Add(c.idle)); err != nil {
				return "", false, err
			}
		}
	}

	s, err := c.r.ReadString('\n')
	c.metrics.BytesReceived(int64(len(s)))
	if err == io.EOF {
		c.eof = true
		if s == "" {
			return "", false, nil
		}
		err = nil
	}
	if err != nil {
		return "", false, err
	}
	return toValidUTF8(trimEOL(s)), true, nil
}

// WriteLine sends text followed by "\n" in a single write.  Nothing is
// buffered between calls.
func (c *Channel) WriteLine(text string) error {
	n, err := io.WriteString(c.w, toValidUTF8(text)+"\n")
	c.metrics.BytesSent(int64(n))
	return err
}

// WriteLines writes each line in order, stopping at the first error.
func (c *Channel) WriteLines(lines []string) error {
	for _, l := range lines {
		if err := c.WriteLine(l); err != nil {
			return err
		}
	}
	return nil
}

func trimEOL(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}

func toValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "�")
}
