package ymodem

import (
	"context"
	"fmt"
	"io"
)

type senderStage int

const (
	sendEstablishing senderStage = iota // open file, wait for 'C'
	sendFileInfo                        // send packet 0, wait ACK+C
	sendTransmitting                     // send data packets
	sendFinishing                        // EOT/EOT/C/null-packet dance
	sendFinished
)

// Sender drives the YMODEM sender state machine of spec.md §4.4.
type Sender struct {
	ctx *transferContext
}

// NewSender validates cb and returns a Sender ready to send one file.
// cfg's zero value is filled in with DefaultConfig()'s values where unset
// (see Config.defaults).
func NewSender(cb Callbacks, cfg Config) (*Sender, error) {
	c, err := newContext(cb, cfg, true)
	if err != nil {
		return nil, err
	}
	return &Sender{ctx: c}, nil
}

// Send transfers the file at path, announced to the receiver under
// basename, and finally sends the batch-terminator packet. On success the
// context's Stage reaches StageFinished. The file handle is always closed
// on every exit path, success or failure.
func (s *Sender) Send(ctx context.Context, path string, basename string) error {
	c := s.ctx
	defer c.cleanup()

	if len(basename) >= c.cfg.MaxFilenameLen {
		return &Error{Kind: KindWrongDataSize, Op: "Sender.Send", Err: fmt.Errorf("basename length %d >= max %d", len(basename), c.cfg.MaxFilenameLen)}
	}

	stage := sendEstablishing
	seq := byte(1)
	var bytesSent int64
	firstDataPacket := true

	for stage != sendFinished {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch stage {
		case sendEstablishing:
			if err := c.openFile(path, false); err != nil {
				return err
			}
			size, err := c.cb.FileSize(c.file)
			if err != nil {
				return &Error{Kind: KindFileError, Op: "Sender.Send", Err: err}
			}
			c.filename = basename
			c.filesize = size

			if err := s.awaitHandshakeC(ctx); err != nil {
				return err
			}
			c.stage = StageEstablishing
			stage = sendFileInfo

		case sendFileInfo:
			if err := s.sendFileInfoPacket(); err != nil {
				return err
			}
			if err := s.awaitAckAndC(ctx); err != nil {
				return err
			}
			c.stage = StageEstablished
			stage = sendTransmitting

		case sendTransmitting:
			c.stage = StageTransmitting
			done, err := s.sendOneDataPacket(ctx, seq, &bytesSent, &firstDataPacket)
			if err != nil {
				return err
			}
			seq = (seq + 1) & 0xFF
			if done {
				stage = sendFinishing
			}

		case sendFinishing:
			c.stage = StageFinishing
			if err := s.finish(ctx); err != nil {
				return err
			}
			c.stage = StageFinished
			stage = sendFinished
		}
	}

	return nil
}

// awaitHandshakeC polls recvByte every HandshakeIntervalMs until a 'C' is
// seen or HandshakeTimeoutS seconds elapse (spec.md §4.4 step 1).
func (s *Sender) awaitHandshakeC(ctx context.Context) error {
	c := s.ctx
	attempts := (c.cfg.HandshakeTimeoutS*1000 + int(c.cfg.HandshakeIntervalMs) - 1) / int(c.cfg.HandshakeIntervalMs)
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		b, err := c.tr.recvByte(c.cfg.HandshakeIntervalMs)
		if err != nil {
			continue
		}
		if parseHeader(b) == HeaderC {
			return nil
		}
	}
	return &Error{Kind: KindTimeout, Op: "Sender.awaitHandshakeC", Err: fmt.Errorf("no 'C' within %ds", c.cfg.HandshakeTimeoutS)}
}

// sendFileInfoPacket builds and sends packet 0 (spec.md §4.4 step 2).
func (s *Sender) sendFileInfoPacket() error {
	c := s.ctx
	payload, err := marshalFileInfo(c.filename, c.filesize, c.cfg.MaxFilenameLen)
	if err != nil {
		return err
	}
	n, err := buildPacket(SOH, 0, payload, c.txBuf[:])
	if err != nil {
		return err
	}
	if !c.tr.sendBytes(c.txBuf[:n]) {
		return &Error{Kind: KindFileError, Op: "Sender.sendFileInfoPacket", Err: fmt.Errorf("transport rejected packet 0")}
	}
	return nil
}

// awaitAckAndC accepts ACK and C in either order, or a lone C standing in
// for both, within up to 5 attempts bounded by WaitPacketTimeoutMs
// (spec.md §4.4 step 3).
func (s *Sender) awaitAckAndC(ctx context.Context) error {
	c := s.ctx
	var sawAck, sawC bool
	for attempt := 0; attempt < 5; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		b, err := c.tr.recvByte(c.cfg.WaitPacketTimeoutMs)
		if err != nil {
			continue
		}
		switch parseHeader(b) {
		case HeaderAck:
			sawAck = true
		case HeaderC:
			sawC = true
		case HeaderCan:
			return &Error{Kind: KindCancelled, Op: "Sender.awaitAckAndC"}
		}
		if sawC {
			// A lone C is treated as ACK+C: the ACK is assumed lost.
			return nil
		}
		if sawAck && sawC {
			return nil
		}
	}
	return &Error{Kind: KindAckError, Op: "Sender.awaitAckAndC", Err: fmt.Errorf("ACK+C not observed within budget")}
}

// sendOneDataPacket reads the next block from the file, sends it, and
// handles the receiver's reply with the retry/error budget of spec.md §4.4
// step 4. It returns done=true once the last (short or full) block has
// been acknowledged, with no more data left to send afterwards.
func (s *Sender) sendOneDataPacket(ctx context.Context, seq byte, bytesSent *int64, firstDataPacket *bool) (done bool, err error) {
	c := s.ctx

	data := make([]byte, payloadSizeSTX)
	firstN, rerr := c.cb.FileRead(c.file, data)
	if rerr != nil && rerr != io.EOF {
		return false, &Error{Kind: KindFileError, Op: "Sender.sendOneDataPacket", Err: rerr}
	}
	if firstN == 0 {
		return true, nil // end of file: no more data packets to send
	}

	filled := firstN
	eof := rerr == io.EOF
	for attempt := 1; attempt < 10 && filled < payloadSizeSTX && !eof; attempt++ {
		n, rerr2 := c.cb.FileRead(c.file, data[filled:])
		if rerr2 != nil && rerr2 != io.EOF {
			return false, &Error{Kind: KindFileError, Op: "Sender.sendOneDataPacket", Err: rerr2}
		}
		filled += n
		if rerr2 == io.EOF {
			eof = true
		}
		if n == 0 {
			break
		}
	}

	isLast := filled < payloadSizeSTX
	header := byte(STX)
	payloadLen := payloadSizeSTX
	if filled <= payloadSizeSOH {
		header = SOH
		payloadLen = payloadSizeSOH
	}
	payload := data[:payloadLen]
	for i := filled; i < payloadLen; i++ {
		payload[i] = SUB
	}

	n, err := buildPacket(header, seq, payload, c.txBuf[:])
	if err != nil {
		return false, err
	}

	retries := 0
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if !c.tr.sendBytes(c.txBuf[:n]) {
			retries++
		} else {
			reply, rerr := c.tr.recvByte(c.cfg.WaitPacketTimeoutMs)
			if rerr != nil {
				retries++
			} else {
				switch parseHeader(reply) {
				case HeaderAck:
					*bytesSent += int64(filled)
					*firstDataPacket = false
					return isLast, nil
				case HeaderC:
					if *firstDataPacket {
						*bytesSent += int64(filled)
						*firstDataPacket = false
						return isLast, nil
					}
					retries++
				case HeaderNak:
					retries++
				case HeaderCan:
					return false, &Error{Kind: KindCancelled, Op: "Sender.sendOneDataPacket"}
				default:
					retries++
				}
			}
		}
		if retries >= c.cfg.MaxErrors {
			return false, &Error{Kind: KindAckError, Op: "Sender.sendOneDataPacket", Err: fmt.Errorf("no ACK after %d retries", retries)}
		}
	}
}

// finish runs the two-EOT handshake and sends the batch-terminator packet
// (spec.md §4.4 step 5), tolerating missing final acknowledgements.
func (s *Sender) finish(ctx context.Context) error {
	c := s.ctx

	// First EOT: expect NAK, retrying up to MaxErrors times.
	for attempt := 0; attempt < c.cfg.MaxErrors; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.tr.sendByte(EOT)
		reply, err := c.tr.recvByte(c.cfg.WaitPacketTimeoutMs)
		if err == nil && parseHeader(reply) == HeaderNak {
			break
		}
	}

	// Second EOT: expect ACK, also accept NAK as "proceed".
	c.tr.sendByte(EOT)
	if reply, err := c.tr.recvByte(c.cfg.WaitPacketTimeoutMs); err == nil {
		if parseHeader(reply) == HeaderCan {
			return &Error{Kind: KindCancelled, Op: "Sender.finish"}
		}
	}

	// Wait for 'C'; a missing C is survivable.
	for attempt := 0; attempt < c.cfg.MaxErrors; attempt++ {
		b, err := c.tr.recvByte(c.cfg.WaitPacketTimeoutMs)
		if err == nil && parseHeader(b) == HeaderC {
			break
		}
	}

	// Final batch-terminator packet: SOH/SEQ=0, all-zero payload.
	n, err := buildPacket(SOH, 0, marshalBatchTerminator(), c.txBuf[:])
	if err != nil {
		return err
	}
	c.tr.sendBytes(c.txBuf[:n])

	// Final ACK is survivable if missing.
	c.tr.recvByte(c.cfg.WaitPacketTimeoutMs)

	return nil
}
