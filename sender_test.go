package ymodem

import (
	"context"
	"testing"
)

// scriptedReceiver answers a Sender's CommSend/CommReceive with a canned
// sequence of single-byte replies, recording every frame the sender sent.
type scriptedReceiver struct {
	replies [][]byte
	idx     int
	sent    [][]byte
}

func (s *scriptedReceiver) send(b []byte) int {
	cp := append([]byte(nil), b...)
	s.sent = append(s.sent, cp)
	return len(b)
}

func (s *scriptedReceiver) receive(out []byte, max int, timeoutMs uint32) int {
	if s.idx >= len(s.replies) {
		return 0
	}
	reply := s.replies[s.idx]
	s.idx++
	n := copy(out[:max], reply)
	return n
}

func scriptedSenderCallbacks(sc *scriptedReceiver, data []byte) Callbacks {
	src := &memSourceFile{data: data}
	return Callbacks{
		CommSend:    sc.send,
		CommReceive: sc.receive,
		FileOpen:    func(path string, writing bool) (FileHandle, error) { return src, nil },
		FileRead: func(h FileHandle, out []byte) (int, error) {
			f := h.(*memSourceFile)
			if f.pos >= len(f.data) {
				return 0, nil
			}
			n := copy(out, f.data[f.pos:])
			f.pos += n
			return n, nil
		},
		FileSize:  func(h FileHandle) (int64, error) { return int64(len(h.(*memSourceFile).data)), nil },
		FileClose: func(h FileHandle) error { return nil },
	}
}

func TestSenderHandshakeTimeout(t *testing.T) {
	sc := &scriptedReceiver{} // never replies
	cfg := testConfig()
	cfg.HandshakeTimeoutS = 1
	sender, err := NewSender(scriptedSenderCallbacks(sc, []byte("x")), cfg)
	if err != nil {
		t.Fatalf("NewSender: %v", err)
	}
	err = sender.Send(context.Background(), "/tmp/f", "f.bin")
	if KindOf(err) != KindTimeout {
		t.Errorf("Send with silent peer: got %v, want KindTimeout", err)
	}
}

func TestSenderRejectsOverlongBasename(t *testing.T) {
	sc := &scriptedReceiver{replies: [][]byte{{C}}}
	sender, err := NewSender(scriptedSenderCallbacks(sc, []byte("x")), testConfig())
	if err != nil {
		t.Fatalf("NewSender: %v", err)
	}
	long := make([]byte, DefaultMaxFilenameLen)
	for i := range long {
		long[i] = 'a'
	}
	err = sender.Send(context.Background(), "/tmp/f", string(long))
	if KindOf(err) != KindWrongDataSize {
		t.Errorf("Send with overlong basename: got %v, want KindWrongDataSize", err)
	}
}

func TestSenderCancelledOnPeerCAN(t *testing.T) {
	sc := &scriptedReceiver{replies: [][]byte{{C}, {CAN}}}
	sender, err := NewSender(scriptedSenderCallbacks(sc, []byte("x")), testConfig())
	if err != nil {
		t.Fatalf("NewSender: %v", err)
	}
	err = sender.Send(context.Background(), "/tmp/f", "f.bin")
	if KindOf(err) != KindCancelled {
		t.Errorf("Send with CAN after handshake: got %v, want KindCancelled", err)
	}
}

func TestSenderContextCancellation(t *testing.T) {
	sc := &scriptedReceiver{}
	sender, err := NewSender(scriptedSenderCallbacks(sc, []byte("x")), testConfig())
	if err != nil {
		t.Fatalf("NewSender: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sender.Send(ctx, "/tmp/f", "f.bin"); err == nil {
		t.Errorf("Send with pre-cancelled context: got nil error, want cancellation error")
	}
}
