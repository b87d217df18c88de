package ymodem

import "fmt"

// SendCancel writes Config.CanSendCount CAN bytes through cb.CommSend, the
// out-of-band abort signal spec.md §4.6 calls "supported by the protocol but
// not required of this core." It is a convenience for callers building an
// interactive abort (e.g. a CLI's Ctrl-C handler); the state machines
// themselves never call it.
func SendCancel(cb Callbacks, cfg Config) error {
	cfg.defaults()
	if cb.CommSend == nil {
		return &Error{Kind: KindWrongCode, Op: "SendCancel", Err: fmt.Errorf("CommSend callback is required")}
	}
	buf := make([]byte, cfg.CanSendCount)
	for i := range buf {
		buf[i] = CAN
	}
	if n := cb.CommSend(buf); n != len(buf) {
		return &Error{Kind: KindFileError, Op: "SendCancel", Err: fmt.Errorf("short write: %d of %d CAN bytes", n, len(buf))}
	}
	return nil
}
