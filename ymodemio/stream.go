// Package ymodemio adapts ymodem.Callbacks to concrete transports and file
// backends: a stream connection with a read deadline (such as net.Conn), a
// go.bug.st/serial port, and the local filesystem.
package ymodemio

import (
	"io"
	"time"
)

// timeoutReader is the minimal capability a stream transport needs beyond
// io.Reader: a way to bound how long a Read blocks. Both net.Conn (via
// SetReadDeadline) and go.bug.st/serial.Port (via SetReadTimeout) are
// adapted to it by the constructors in this package.
type timeoutReader interface {
	io.Reader
	SetReadTimeout(d time.Duration) error
}

// streamCommFuncs builds the CommSend/CommReceive pair shared by every
// transport in this package: write is a plain io.Writer.Write, and receive
// polls the timeoutReader with its deadline set to timeoutMs.
func streamCommFuncs(w io.Writer, r timeoutReader) (send func([]byte) int, receive func([]byte, int, uint32) int) {
	send = func(b []byte) int {
		n, _ := w.Write(b)
		return n
	}
	receive = func(out []byte, max int, timeoutMs uint32) int {
		if err := r.SetReadTimeout(time.Duration(timeoutMs) * time.Millisecond); err != nil {
			return 0
		}
		n, err := r.Read(out[:max])
		if err != nil && n == 0 {
			return 0
		}
		return n
	}
	return send, receive
}

// deadlineConn is satisfied by net.Conn and similar stream connections that
// expose a read deadline instead of a read timeout.
type deadlineConn interface {
	io.Reader
	io.Writer
	SetReadDeadline(t time.Time) error
}

// deadlineAdapter turns a deadlineConn into a timeoutReader.
type deadlineAdapter struct {
	deadlineConn
}

func (d deadlineAdapter) SetReadTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return d.deadlineConn.SetReadDeadline(time.Time{})
	}
	return d.deadlineConn.SetReadDeadline(time.Now().Add(timeout))
}

// NewStreamCommFuncs adapts any connection exposing SetReadDeadline (e.g.
// net.Conn) into CommSend/CommReceive funcs suitable for ymodem.Callbacks.
// If the deadline cannot be set (as with an *os.File on a regular file),
// receive returns 0.
func NewStreamCommFuncs(conn deadlineConn) (send func([]byte) int, receive func([]byte, int, uint32) int) {
	return streamCommFuncs(conn, deadlineAdapter{conn})
}
