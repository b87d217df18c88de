package ymodem

import "testing"

func TestBuildPacketRejectsWrongPayloadSize(t *testing.T) {
	var out [maxPacketSize]byte
	if _, err := buildPacket(SOH, 1, make([]byte, 100), out[:]); KindOf(err) != KindWrongDataSize {
		t.Errorf("buildPacket with 100-byte payload under SOH: got %v, want KindWrongDataSize", err)
	}
}

func TestBuildPacketRejectsUnknownHeader(t *testing.T) {
	var out [maxPacketSize]byte
	if _, err := buildPacket(ACK, 1, make([]byte, payloadSizeSOH), out[:]); KindOf(err) != KindWrongCode {
		t.Errorf("buildPacket with ACK header: got %v, want KindWrongCode", err)
	}
}

func TestBuildPacketLayout(t *testing.T) {
	payload := make([]byte, payloadSizeSOH)
	for i := range payload {
		payload[i] = byte(i)
	}
	var out [maxPacketSize]byte
	n, err := buildPacket(SOH, 42, payload, out[:])
	if err != nil {
		t.Fatalf("buildPacket: %v", err)
	}
	if n != packetOverhead+payloadSizeSOH {
		t.Errorf("n = %d, want %d", n, packetOverhead+payloadSizeSOH)
	}
	if out[0] != SOH {
		t.Errorf("out[0] = 0x%02x, want SOH", out[0])
	}
	if out[1] != 42 {
		t.Errorf("seq = %d, want 42", out[1])
	}
	if out[2] != 42^0xFF {
		t.Errorf("~seq = 0x%02x, want 0x%02x", out[2], 42^0xFF)
	}
}

func TestValidatePacketRejectsSequenceMismatch(t *testing.T) {
	payload := make([]byte, payloadSizeSOH)
	var out [maxPacketSize]byte
	n, err := buildPacket(SOH, 1, payload, out[:])
	if err != nil {
		t.Fatalf("buildPacket: %v", err)
	}
	out[2] = 0 // corrupt the complement byte
	if _, _, err := validatePacket(out[:n]); KindOf(err) != KindWrongSequence {
		t.Errorf("validatePacket with bad complement: got %v, want KindWrongSequence", err)
	}
}

func TestValidatePacketRejectsShortBuffer(t *testing.T) {
	if _, _, err := validatePacket([]byte{SOH, 1, 0xFE}); KindOf(err) != KindWrongDataSize {
		t.Errorf("validatePacket on short buffer: got %v, want KindWrongDataSize", err)
	}
}

func TestParseHeaderAndExpectedPayloadSize(t *testing.T) {
	cases := []struct {
		b       byte
		want    Header
		payload int
		isData  bool
	}{
		{SOH, HeaderSoh, payloadSizeSOH, true},
		{STX, HeaderStx, payloadSizeSTX, true},
		{EOT, HeaderEot, 0, false},
		{ACK, HeaderAck, 0, false},
		{NAK, HeaderNak, 0, false},
		{CAN, HeaderCan, 0, false},
		{C, HeaderC, 0, false},
		{0x7F, HeaderOther, 0, false},
	}
	for _, tc := range cases {
		got := parseHeader(tc.b)
		if got != tc.want {
			t.Errorf("parseHeader(0x%02x) = %v, want %v", tc.b, got, tc.want)
		}
		size, ok := expectedPayloadSize(got)
		if ok != tc.isData || (ok && size != tc.payload) {
			t.Errorf("expectedPayloadSize(%v) = (%d, %v), want (%d, %v)", got, size, ok, tc.payload, tc.isData)
		}
	}
}
