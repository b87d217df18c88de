package ymodemio

import (
	"go.bug.st/serial"

	"github.com/xx25/go-ymodem"
)

// NewSerialCallbacks assembles a full ymodem.Callbacks from an open serial
// port, with the file side backed by the local filesystem. This is the
// spec's motivating use case: firmware delivery to an embedded target over
// a serial line.
func NewSerialCallbacks(port serial.Port) ymodem.Callbacks {
	send, receive := NewSerialCommFuncs(port)
	open, read, write, closeFn, size := NewOSFileCallbacks()
	return ymodem.Callbacks{
		CommSend:    send,
		CommReceive: receive,
		FileOpen:    open,
		FileRead:    read,
		FileWrite:   write,
		FileClose:   closeFn,
		FileSize:    size,
	}
}

// NewStreamCallbacks assembles a full ymodem.Callbacks from any connection
// exposing a read deadline (e.g. net.Conn), with the file side backed by
// the local filesystem.
func NewStreamCallbacks(conn deadlineConn) ymodem.Callbacks {
	send, receive := NewStreamCommFuncs(conn)
	open, read, write, closeFn, size := NewOSFileCallbacks()
	return ymodem.Callbacks{
		CommSend:    send,
		CommReceive: receive,
		FileOpen:    open,
		FileRead:    read,
		FileWrite:   write,
		FileClose:   closeFn,
		FileSize:    size,
	}
}
