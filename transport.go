package ymodem

import "log/slog"

// transportAdapter is the single place that invokes the caller-supplied
// comm callbacks, and the only place that emits raw-byte debug traces.
// Grounded on the teacher's transportReader/transportWriter split, collapsed
// to one type since YMODEM has no ZDLE escaping or bufio framing to manage.
type transportAdapter struct {
	send    func([]byte) int
	receive func([]byte, int, uint32) int
	logger  *slog.Logger
}

// sendByte writes a single byte. Returns true iff it was accepted.
func (t *transportAdapter) sendByte(b byte) bool {
	return t.sendBytes([]byte{b})
}

// sendBytes writes buf in full. Returns true iff every byte was accepted.
func (t *transportAdapter) sendBytes(buf []byte) bool {
	n := t.send(buf)
	t.logger.Debug("send", "bytes", buf, "accepted", n)
	return n == len(buf)
}

// recvByte reads one byte, waiting up to timeoutMs. A zero-byte return from
// the underlying receive callback is reported as a Timeout.
func (t *transportAdapter) recvByte(timeoutMs uint32) (byte, error) {
	var buf [1]byte
	n := t.receive(buf[:], 1, timeoutMs)
	if n == 0 {
		return 0, &Error{Kind: KindTimeout, Op: "recvByte"}
	}
	t.logger.Debug("recv", "byte", buf[0])
	return buf[0], nil
}

// recvBytes reads up to len(out) bytes, waiting up to timeoutMs. Partial
// reads are returned as-is; the caller checks the returned count against
// what it needed.
func (t *transportAdapter) recvBytes(out []byte, timeoutMs uint32) int {
	n := t.receive(out, len(out), timeoutMs)
	t.logger.Debug("recv", "bytes", out[:n])
	return n
}

// recvFull reads exactly len(out) bytes by issuing repeated receive calls
// until out is full or timeoutMs elapses with no further progress on a
// single call. Returns the number of bytes actually filled.
func (t *transportAdapter) recvFull(out []byte, timeoutMs uint32) int {
	got := 0
	for got < len(out) {
		n := t.receive(out[got:], len(out)-got, timeoutMs)
		if n == 0 {
			break
		}
		got += n
	}
	t.logger.Debug("recvFull", "want", len(out), "got", got)
	return got
}
