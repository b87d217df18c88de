package ymodemio

import (
	"os"

	"github.com/xx25/go-ymodem"
)

// NewOSFileCallbacks returns the FileOpen/FileRead/FileWrite/FileClose/
// FileSize quartet backed by the local filesystem, suitable for plugging
// directly into ymodem.Callbacks.
func NewOSFileCallbacks() (open func(string, bool) (ymodem.FileHandle, error),
	read func(ymodem.FileHandle, []byte) (int, error),
	write func(ymodem.FileHandle, []byte) (int, error),
	closeFn func(ymodem.FileHandle) error,
	size func(ymodem.FileHandle) (int64, error),
) {
	open = func(path string, writing bool) (ymodem.FileHandle, error) {
		if writing {
			return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		}
		return os.Open(path)
	}
	read = func(h ymodem.FileHandle, out []byte) (int, error) {
		return h.(*os.File).Read(out)
	}
	write = func(h ymodem.FileHandle, data []byte) (int, error) {
		return h.(*os.File).Write(data)
	}
	closeFn = func(h ymodem.FileHandle) error {
		return h.(*os.File).Close()
	}
	size = func(h ymodem.FileHandle) (int64, error) {
		fi, err := h.(*os.File).Stat()
		if err != nil {
			return 0, err
		}
		return fi.Size(), nil
	}
	return
}
