package util

import (
	"context"
	"io"
	"net"

	"lineshell/internal/errors"
)

// DefaultBufSize is the standard buffer size for network I/O (32 KiB).
const DefaultBufSize = 32 * 1024

// BidirectionalCopy relays data between a network connection and a
// local reader/writer pair (typically stdin/stdout) until the remote
// side closes or the context is cancelled.  It backs the client side
// of lineshell: lines typed locally go to the server and every
// response line is printed as it arrives.
func BidirectionalCopy(ctx context.Context, conn net.Conn, r io.Reader, w io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	recvDone := make(chan error, 1)
	sendDone := make(chan error, 1)

	// network → writer
	go func() {
		recvDone <- copyPooled(w, conn)
		cancel()
	}()

	// reader → network
	go func() {
		err := copyPooled(conn, r)
		// Half-close so the server sees end-of-stream, but keep
		// reading until it finishes answering.
		if tc, ok := conn.(*net.TCPConn); ok {
			tc.CloseWrite() //nolint:errcheck
		}
		sendDone <- err
		if err != nil {
			cancel()
		}
	}()

	<-ctx.Done()
	conn.Close() // unblock any pending reads/writes

	if err := <-recvDone; !errors.IsConnClosed(err) {
		return err
	}
	// A read from an interactive stdin cannot be interrupted, so the
	// sender is only waited on if it has already finished.
	select {
	case err := <-sendDone:
		if !errors.IsConnClosed(err) {
			return err
		}
	default:
	}
	return nil
}

func copyPooled(dst io.Writer, src io.Reader) error {
	buf := GetBuf()
	defer PutBuf(buf)
	_, err := io.CopyBuffer(dst, src, *buf)
	return err
}
