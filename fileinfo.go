package ymodem

import (
	"fmt"
	"strconv"
)

// FileInfo describes the file named by a batch's packet 0 (spec.md §3).
type FileInfo struct {
	Name string
	Size int64
}

// marshalFileInfo builds the 128-byte payload of packet 0: filename
// (NUL-terminated ASCII), the decimal file size as ASCII digits, then
// zero-padding to 128 bytes (spec.md §4.4 step 2). It fails with
// KindWrongDataSize if the filename and size string together cannot fit.
func marshalFileInfo(name string, size int64, maxFilenameLen int) ([]byte, error) {
	if len(name) >= maxFilenameLen {
		return nil, &Error{Kind: KindWrongDataSize, Op: "marshalFileInfo", Err: fmt.Errorf("filename length %d >= max %d", len(name), maxFilenameLen)}
	}

	sizeStr := strconv.FormatInt(size, 10)
	// name + NUL + sizeStr must fit within the 128-byte payload.
	if len(name)+1+len(sizeStr) >= payloadSizeSOH {
		return nil, &Error{Kind: KindWrongDataSize, Op: "marshalFileInfo", Err: fmt.Errorf("filename+size %q/%q too long for packet 0", name, sizeStr)}
	}

	payload := make([]byte, payloadSizeSOH)
	n := copy(payload, name)
	payload[n] = 0
	n++
	n += copy(payload[n:], sizeStr)
	// Remainder of payload is already zero-filled by make().
	return payload, nil
}

// marshalBatchTerminator builds the all-zero 128-byte payload that ends a
// batch (spec.md §4.4 step 5, §3 "Packet 0").
func marshalBatchTerminator() []byte {
	return make([]byte, payloadSizeSOH)
}

// parseFileInfo parses a packet 0 payload into a FileInfo. A filename that
// begins with NUL signals the batch terminator; parseFileInfo reports this
// via the ok return being false, matching spec.md §3's "A filename that
// begins with NUL terminates the batch."
func parseFileInfo(payload []byte) (info FileInfo, ok bool, err error) {
	if len(payload) == 0 || payload[0] == 0 {
		return FileInfo{}, false, nil
	}

	nullIdx := -1
	for i, b := range payload {
		if b == 0 {
			nullIdx = i
			break
		}
	}
	if nullIdx <= 0 {
		return FileInfo{}, false, &Error{Kind: KindFileError, Op: "parseFileInfo", Err: fmt.Errorf("file info missing NUL-terminated filename")}
	}

	info.Name = string(payload[:nullIdx])

	// Size: ASCII decimal digits immediately following the NUL, until the
	// first non-digit. Absent size means size=0 (spec.md §4.5 step 2).
	rest := payload[nullIdx+1:]
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end > 0 {
		size, perr := strconv.ParseInt(string(rest[:end]), 10, 64)
		if perr != nil {
			return FileInfo{}, false, &Error{Kind: KindFileError, Op: "parseFileInfo", Err: perr}
		}
		info.Size = size
	}

	return info, true, nil
}
