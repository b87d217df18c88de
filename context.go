package ymodem

import (
	"fmt"
	"log/slog"
	"time"
)

// FileHandle is an opaque handle returned by Callbacks.FileOpen. It is never
// interpreted by this package, only passed back to the other file callbacks.
type FileHandle = any

// Callbacks is the capability bundle a caller supplies to drive a transfer:
// transport send/receive and file open/read/write/close/size, expressed as a
// record of function values rather than an interface with a large method
// set (spec.md §9's Design Note). Sleep is optional and used only by
// higher-level callers (e.g. a CLI progress ticker), never by the core state
// machines (spec.md §1: the clock/delay facility is an external collaborator).
type Callbacks struct {
	CommSend    func(data []byte) int
	CommReceive func(out []byte, max int, timeoutMs uint32) int

	FileOpen  func(path string, writing bool) (FileHandle, error)
	FileRead  func(h FileHandle, out []byte) (int, error)
	FileWrite func(h FileHandle, data []byte) (int, error)
	FileClose func(h FileHandle) error
	FileSize  func(h FileHandle) (int64, error)

	Sleep func(time.Duration)
}

// Config holds the tunables named in spec.md §6, all with the spec's
// defaults.
type Config struct {
	WaitCharTimeoutMs   uint32
	WaitPacketTimeoutMs uint32
	HandshakeIntervalMs uint32
	HandshakeTimeoutS   int
	MaxErrors           int
	CanSendCount        int
	MaxFilenameLen      int
	Logger              *slog.Logger
}

// DefaultConfig returns a Config populated with spec.md §6's defaults and a
// 60-second handshake window.
func DefaultConfig() Config {
	return Config{
		WaitCharTimeoutMs:   DefaultWaitCharTimeoutMs,
		WaitPacketTimeoutMs: DefaultWaitPacketTimeoutMs,
		HandshakeIntervalMs: DefaultHandshakeIntervalMs,
		HandshakeTimeoutS:   60,
		MaxErrors:           DefaultMaxErrors,
		CanSendCount:        DefaultCanSendCount,
		MaxFilenameLen:      DefaultMaxFilenameLen,
	}
}

func (c *Config) defaults() {
	if c.WaitCharTimeoutMs == 0 {
		c.WaitCharTimeoutMs = DefaultWaitCharTimeoutMs
	}
	if c.WaitPacketTimeoutMs == 0 {
		c.WaitPacketTimeoutMs = DefaultWaitPacketTimeoutMs
	}
	if c.HandshakeIntervalMs == 0 {
		c.HandshakeIntervalMs = DefaultHandshakeIntervalMs
	}
	if c.HandshakeTimeoutS == 0 {
		c.HandshakeTimeoutS = 60
	}
	if c.MaxErrors <= 0 {
		c.MaxErrors = DefaultMaxErrors
	}
	if c.CanSendCount <= 0 {
		c.CanSendCount = DefaultCanSendCount
	}
	if c.MaxFilenameLen <= 0 {
		c.MaxFilenameLen = DefaultMaxFilenameLen
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// transferContext carries the Context & Config component of spec.md §4.3:
// buffers, callbacks, stage, counters, file handle and metadata. Buffers are
// owned internally (spec.md §9's "either is acceptable" Open Question,
// resolved in DESIGN.md), two of them, so an assembled outbound frame never
// aliases the inbound scratch space.
type transferContext struct {
	cfg Config
	cb  Callbacks
	tr  *transportAdapter

	stage      Stage
	seq        byte
	errorCount int

	file     FileHandle
	fileOpen bool
	filename string
	filesize int64

	rxBuf [maxPacketSize]byte
	txBuf [maxPacketSize]byte
}

// newContext validates callbacks and constructs a context. forSend selects
// which file callbacks are mandatory: the sender needs FileRead/FileSize,
// the receiver needs FileWrite (spec.md §4.3).
func newContext(cb Callbacks, cfg Config, forSend bool) (*transferContext, error) {
	cfg.defaults()

	if cb.CommSend == nil || cb.CommReceive == nil {
		return nil, &Error{Kind: KindWrongCode, Op: "newContext", Err: fmt.Errorf("CommSend and CommReceive callbacks are required")}
	}
	if cb.FileOpen == nil || cb.FileClose == nil {
		return nil, &Error{Kind: KindWrongCode, Op: "newContext", Err: fmt.Errorf("FileOpen and FileClose callbacks are required")}
	}
	if forSend {
		if cb.FileRead == nil || cb.FileSize == nil {
			return nil, &Error{Kind: KindWrongCode, Op: "newContext", Err: fmt.Errorf("FileRead and FileSize callbacks are required for sending")}
		}
	} else {
		if cb.FileWrite == nil {
			return nil, &Error{Kind: KindWrongCode, Op: "newContext", Err: fmt.Errorf("FileWrite callback is required for receiving")}
		}
	}

	c := &transferContext{
		cfg: cfg,
		cb:  cb,
		tr: &transportAdapter{
			send:    cb.CommSend,
			receive: cb.CommReceive,
			logger:  cfg.Logger,
		},
		stage: StageNone,
	}
	return c, nil
}

// cleanup closes the file handle if still open and resets stage to None. It
// is idempotent and safe on a partially-constructed context (spec.md §4.3).
func (c *transferContext) cleanup() error {
	var err error
	if c.fileOpen {
		if c.cb.FileClose != nil {
			err = c.cb.FileClose(c.file)
		}
		c.file = nil
		c.fileOpen = false
	}
	c.stage = StageNone
	return err
}

func (c *transferContext) openFile(path string, writing bool) error {
	h, err := c.cb.FileOpen(path, writing)
	if err != nil || h == nil {
		return &Error{Kind: KindFileError, Op: "openFile", Err: err}
	}
	c.file = h
	c.fileOpen = true
	return nil
}
