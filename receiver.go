package ymodem

import (
	"context"
	"fmt"
)

type receiverStage int

const (
	recvEstablishing receiverStage = iota // send 'C', wait for SOH/STX
	recvFileInfo                          // read & validate packet 0
	recvTransmitting                       // receive data packets
	recvFinishing                          // EOT/EOT/C/final-packet dance
	recvFinished
)

// Receiver drives the YMODEM receiver state machine of spec.md §4.5.
type Receiver struct {
	ctx *transferContext
}

// NewReceiver validates cb and returns a Receiver ready to receive one file.
func NewReceiver(cb Callbacks, cfg Config) (*Receiver, error) {
	c, err := newContext(cb, cfg, false)
	if err != nil {
		return nil, err
	}
	return &Receiver{ctx: c}, nil
}

// Receive runs the handshake, receives one file (opened via
// Callbacks.FileOpen using the filename carried in packet 0), and runs the
// finish sequence. It returns the FileInfo parsed from packet 0. The file
// handle is always closed on every exit path, success or failure.
func (r *Receiver) Receive(ctx context.Context) (FileInfo, error) {
	c := r.ctx
	defer c.cleanup()

	stage := recvEstablishing
	var info FileInfo
	var firstByte byte
	expectedSeq := byte(1)
	var totalWritten int64

	for stage != recvFinished {
		if err := ctx.Err(); err != nil {
			return info, err
		}

		switch stage {
		case recvEstablishing:
			b, err := r.awaitHandshakeStart(ctx)
			if err != nil {
				return info, err
			}
			firstByte = b
			c.stage = StageEstablishing
			stage = recvFileInfo

		case recvFileInfo:
			parsed, err := r.readFileInfoPacket(firstByte)
			if err != nil {
				return info, err
			}
			info = parsed
			c.filename = parsed.Name
			c.filesize = parsed.Size

			if err := c.openFile(parsed.Name, true); err != nil {
				return info, err
			}
			c.tr.sendByte(ACK)
			c.tr.sendByte(C)
			c.stage = StageEstablished
			stage = recvTransmitting

		case recvTransmitting:
			c.stage = StageTransmitting
			eot, err := r.receiveDataPackets(ctx, &expectedSeq, &totalWritten)
			if err != nil {
				return info, err
			}
			if eot {
				stage = recvFinishing
			}

		case recvFinishing:
			c.stage = StageFinishing
			if err := r.finish(ctx, totalWritten > 0); err != nil {
				return info, err
			}
			c.stage = StageFinished
			stage = recvFinished
		}
	}

	return info, nil
}

// awaitHandshakeStart sends 'C' every HandshakeIntervalMs, up to
// HandshakeTimeoutS attempts, until a SOH or STX is seen (spec.md §4.5
// step 1).
func (r *Receiver) awaitHandshakeStart(ctx context.Context) (byte, error) {
	c := r.ctx
	for attempt := 0; attempt < c.cfg.HandshakeTimeoutS; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		c.tr.sendByte(C)
		b, err := c.tr.recvByte(c.cfg.HandshakeIntervalMs)
		if err != nil {
			continue
		}
		switch parseHeader(b) {
		case HeaderSoh, HeaderStx:
			return b, nil
		}
	}
	return 0, &Error{Kind: KindTimeout, Op: "Receiver.awaitHandshakeStart", Err: fmt.Errorf("no SOH/STX within %ds", c.cfg.HandshakeTimeoutS)}
}

// readFileInfoPacket reads the remainder of packet 0 (whose header byte,
// firstByte, has already been consumed), validates it, and parses the file
// name and size (spec.md §4.5 step 2).
func (r *Receiver) readFileInfoPacket(firstByte byte) (FileInfo, error) {
	c := r.ctx
	want, _ := expectedPayloadSize(parseHeader(firstByte))
	rest := want + 4 // seq + ~seq + data + crc_hi + crc_lo, minus the header already read
	buf := c.rxBuf[:1+rest]
	buf[0] = firstByte
	got := c.tr.recvFull(buf[1:], c.cfg.WaitPacketTimeoutMs)
	if got < rest {
		return FileInfo{}, &Error{Kind: KindTimeout, Op: "Receiver.readFileInfoPacket", Err: fmt.Errorf("short packet 0: got %d of %d", got, rest)}
	}

	seq, payload, err := validatePacket(buf)
	if err != nil {
		return FileInfo{}, err
	}
	if seq != 0 {
		return FileInfo{}, &Error{Kind: KindWrongSequence, Op: "Receiver.readFileInfoPacket", Err: fmt.Errorf("packet 0 seq=%d, want 0", seq)}
	}

	info, ok, err := parseFileInfo(payload)
	if err != nil {
		return FileInfo{}, err
	}
	if !ok {
		return FileInfo{}, &Error{Kind: KindFileError, Op: "Receiver.readFileInfoPacket", Err: fmt.Errorf("empty filename in packet 0")}
	}
	return info, nil
}

// receiveDataPackets runs the data-receive loop of spec.md §4.5 step 3
// until EOT is seen (returns eot=true) or a fatal error occurs.
func (r *Receiver) receiveDataPackets(ctx context.Context, expectedSeq *byte, totalWritten *int64) (eot bool, err error) {
	c := r.ctx
	errorCount := 0
	var lastErr error

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		b, rerr := c.tr.recvByte(c.cfg.WaitPacketTimeoutMs)
		if rerr != nil {
			return false, &Error{Kind: KindTimeout, Op: "Receiver.receiveDataPackets", Err: rerr}
		}

		hdr := parseHeader(b)
		if hdr == HeaderEot {
			return true, nil
		}

		want, ok := expectedPayloadSize(hdr)
		if !ok {
			errorCount++
			lastErr = &Error{Kind: KindWrongCode, Op: "Receiver.receiveDataPackets", Err: fmt.Errorf("unexpected byte 0x%02x", b)}
			c.tr.sendByte(NAK)
			if errorCount >= c.cfg.MaxErrors {
				return false, lastErr
			}
			continue
		}

		rest := want + 4
		buf := c.rxBuf[:1+rest]
		buf[0] = b
		got := c.tr.recvFull(buf[1:], c.cfg.WaitPacketTimeoutMs)
		if got < rest {
			errorCount++
			lastErr = &Error{Kind: KindTimeout, Op: "Receiver.receiveDataPackets", Err: fmt.Errorf("short data packet: got %d of %d", got, rest)}
			c.tr.sendByte(NAK)
			if errorCount >= c.cfg.MaxErrors {
				return false, lastErr
			}
			continue
		}

		seq, payload, verr := validatePacket(buf)
		if verr != nil {
			errorCount++
			lastErr = verr
			c.tr.sendByte(NAK)
			if errorCount >= c.cfg.MaxErrors {
				return false, lastErr
			}
			continue
		}

		if seq != *expectedSeq {
			if seq == (*expectedSeq-1)&0xFF {
				// Retransmission of the packet just acknowledged: the
				// sender's copy of our ACK was lost, not the packet.
				// ACK it again without rewriting or advancing (spec.md
				// §4.5's duplicate-SEQ tolerance).
				c.tr.sendByte(ACK)
				continue
			}
			errorCount++
			lastErr = &Error{Kind: KindWrongSequence, Op: "Receiver.receiveDataPackets", Err: fmt.Errorf("seq=%d, expected %d", seq, *expectedSeq)}
			c.tr.sendByte(NAK)
			if errorCount >= c.cfg.MaxErrors {
				return false, lastErr
			}
			continue
		}

		errorCount = 0

		toWrite := payload
		if c.filesize > 0 && *totalWritten+int64(len(payload)) >= c.filesize {
			n := c.filesize - *totalWritten
			if n < 0 {
				n = 0
			}
			toWrite = payload[:n]
		}
		if len(toWrite) > 0 {
			n, werr := c.cb.FileWrite(c.file, toWrite)
			if werr != nil || n != len(toWrite) {
				return false, &Error{Kind: KindFileError, Op: "Receiver.receiveDataPackets", Err: werr}
			}
			*totalWritten += int64(n)
		}

		c.tr.sendByte(ACK)
		*expectedSeq = (*expectedSeq + 1) & 0xFF
	}
}

// finish runs the receiver's half of the two-EOT handshake and final
// null-filename packet exchange, tolerating late or missing replies per the
// spec's prescribed tolerant variant (spec.md §4.5 step 4, §9).
// fileWritten records whether any data was successfully written, which lets
// a missing final packet still be treated as a completed transfer.
func (r *Receiver) finish(ctx context.Context, fileWritten bool) error {
	c := r.ctx

	// First EOT already seen by the caller; NAK it per the YMODEM dance.
	c.tr.sendByte(NAK)

	// Expect a second EOT; one retry if it doesn't arrive.
	sawSecondEot := false
	for attempt := 0; attempt < 2; attempt++ {
		b, err := c.tr.recvByte(c.cfg.WaitPacketTimeoutMs)
		if err == nil && parseHeader(b) == HeaderEot {
			sawSecondEot = true
			break
		}
		c.tr.sendByte(NAK)
	}
	if !sawSecondEot {
		return &Error{Kind: KindWrongCode, Op: "Receiver.finish", Err: fmt.Errorf("second EOT not received")}
	}

	c.tr.sendByte(ACK)
	c.tr.sendByte(C)

	for attempt := 0; attempt < c.cfg.MaxErrors; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		b, err := c.tr.recvByte(c.cfg.WaitPacketTimeoutMs)
		if err != nil {
			continue
		}
		hdr := parseHeader(b)
		want, ok := expectedPayloadSize(hdr)
		if !ok {
			continue
		}

		rest := want + 4
		buf := c.rxBuf[:1+rest]
		buf[0] = b
		got := c.tr.recvFull(buf[1:], c.cfg.WaitPacketTimeoutMs)
		if got < rest {
			continue
		}
		seq, payload, verr := validatePacket(buf)
		if verr != nil || seq != 0 {
			continue
		}

		c.tr.sendByte(ACK)
		if payload[0] == 0 {
			return nil // batch terminated
		}
		// Start of another file: this implementation ACKs and returns
		// success without processing it (spec.md §4.5 step 4).
		return nil
	}

	if fileWritten {
		// No valid final packet arrived, but a file was successfully
		// written: the transfer is still considered complete.
		return nil
	}
	return &Error{Kind: KindTimeout, Op: "Receiver.finish", Err: fmt.Errorf("final packet not received")}
}
