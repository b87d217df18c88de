package ymodem

import "testing"

func minimalSendCallbacks() Callbacks {
	return Callbacks{
		CommSend:    func(b []byte) int { return len(b) },
		CommReceive: func(b []byte, max int, timeoutMs uint32) int { return 0 },
		FileOpen:    func(path string, writing bool) (FileHandle, error) { return struct{}{}, nil },
		FileClose:   func(h FileHandle) error { return nil },
		FileRead:    func(h FileHandle, out []byte) (int, error) { return 0, nil },
		FileSize:    func(h FileHandle) (int64, error) { return 0, nil },
	}
}

func TestNewContextRequiresCommCallbacks(t *testing.T) {
	cb := minimalSendCallbacks()
	cb.CommSend = nil
	if _, err := newContext(cb, Config{}, true); KindOf(err) != KindWrongCode {
		t.Errorf("newContext without CommSend: got %v, want KindWrongCode", err)
	}
}

func TestNewContextRequiresFileReadForSend(t *testing.T) {
	cb := minimalSendCallbacks()
	cb.FileRead = nil
	if _, err := newContext(cb, Config{}, true); KindOf(err) != KindWrongCode {
		t.Errorf("newContext without FileRead for sending: got %v, want KindWrongCode", err)
	}
}

func TestNewContextRequiresFileWriteForReceive(t *testing.T) {
	cb := minimalSendCallbacks()
	cb.FileWrite = nil
	if _, err := newContext(cb, Config{}, false); KindOf(err) != KindWrongCode {
		t.Errorf("newContext without FileWrite for receiving: got %v, want KindWrongCode", err)
	}
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.defaults()
	if cfg.WaitCharTimeoutMs != DefaultWaitCharTimeoutMs {
		t.Errorf("WaitCharTimeoutMs = %d, want %d", cfg.WaitCharTimeoutMs, DefaultWaitCharTimeoutMs)
	}
	if cfg.MaxErrors != DefaultMaxErrors {
		t.Errorf("MaxErrors = %d, want %d", cfg.MaxErrors, DefaultMaxErrors)
	}
	if cfg.Logger == nil {
		t.Errorf("Logger not defaulted")
	}
}

func TestContextCleanupClosesFile(t *testing.T) {
	closed := false
	cb := minimalSendCallbacks()
	cb.FileClose = func(h FileHandle) error { closed = true; return nil }

	c, err := newContext(cb, Config{}, true)
	if err != nil {
		t.Fatalf("newContext: %v", err)
	}
	if err := c.openFile("irrelevant", false); err != nil {
		t.Fatalf("openFile: %v", err)
	}
	if err := c.cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if !closed {
		t.Errorf("cleanup did not close the file")
	}
	if c.stage != StageNone {
		t.Errorf("stage after cleanup = %v, want StageNone", c.stage)
	}
}
