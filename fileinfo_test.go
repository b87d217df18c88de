package ymodem

import "testing"

func TestMarshalParseFileInfoRoundTrip(t *testing.T) {
	payload, err := marshalFileInfo("test.txt", 12345, DefaultMaxFilenameLen)
	if err != nil {
		t.Fatalf("marshalFileInfo: %v", err)
	}
	if len(payload) != payloadSizeSOH {
		t.Fatalf("payload length = %d, want %d", len(payload), payloadSizeSOH)
	}

	info, ok, err := parseFileInfo(payload)
	if err != nil {
		t.Fatalf("parseFileInfo: %v", err)
	}
	if !ok {
		t.Fatalf("parseFileInfo reported batch terminator for a real file")
	}
	if info.Name != "test.txt" {
		t.Errorf("name = %q, want %q", info.Name, "test.txt")
	}
	if info.Size != 12345 {
		t.Errorf("size = %d, want %d", info.Size, 12345)
	}
}

func TestParseFileInfoBatchTerminator(t *testing.T) {
	_, ok, err := parseFileInfo(marshalBatchTerminator())
	if err != nil {
		t.Fatalf("parseFileInfo on batch terminator: %v", err)
	}
	if ok {
		t.Errorf("parseFileInfo on all-zero payload reported a file, want batch terminator")
	}
}

func TestParseFileInfoMissingSizeDefaultsToZero(t *testing.T) {
	payload := make([]byte, payloadSizeSOH)
	copy(payload, "noSize.bin")
	info, ok, err := parseFileInfo(payload)
	if err != nil {
		t.Fatalf("parseFileInfo: %v", err)
	}
	if !ok {
		t.Fatalf("expected a file info, got batch terminator")
	}
	if info.Size != 0 {
		t.Errorf("size = %d, want 0 when absent", info.Size)
	}
}

func TestParseFileInfoMissingNulIsFileError(t *testing.T) {
	payload := make([]byte, payloadSizeSOH)
	for i := range payload {
		payload[i] = 'x'
	}
	if _, _, err := parseFileInfo(payload); KindOf(err) != KindFileError {
		t.Errorf("parseFileInfo without NUL terminator: got %v, want KindFileError", err)
	}
}

func TestMarshalFileInfoRejectsOverlongName(t *testing.T) {
	name := make([]byte, DefaultMaxFilenameLen)
	for i := range name {
		name[i] = 'a'
	}
	if _, err := marshalFileInfo(string(name), 1, DefaultMaxFilenameLen); KindOf(err) != KindWrongDataSize {
		t.Errorf("marshalFileInfo with overlong name: got %v, want KindWrongDataSize", err)
	}
}
