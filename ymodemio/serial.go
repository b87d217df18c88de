package ymodemio

import "go.bug.st/serial"

// NewSerialCommFuncs adapts an open go.bug.st/serial port into the
// CommSend/CommReceive funcs ymodem.Callbacks expects. The port must
// already be open with the desired serial.Mode (baud rate, parity, etc);
// this adapter only owns read-timeout management, mirroring how YMODEM
// byte transfers are driven over a modem line in practice.
func NewSerialCommFuncs(port serial.Port) (send func([]byte) int, receive func([]byte, int, uint32) int) {
	return streamCommFuncs(port, serialTimeoutReader{port})
}

// serialTimeoutReader adapts serial.Port's SetReadTimeout (which takes a
// time.Duration already) to the timeoutReader interface.
type serialTimeoutReader struct {
	serial.Port
}
