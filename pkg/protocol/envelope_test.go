package protocol

import (
	"testing"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	original := Envelope{
		Type:      TypeChat,
		Content:   "hello from the other side",
		Timestamp: "1735689600123",
		Sender:    SenderMobile,
	}

	data, err := original.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := DecodeEnvelope(data)
	if err != nil {
		t.Fatalf("DecodeEnvelope failed: %v", err)
	}

	if decoded != original {
		t.Errorf("Round trip mismatch.\nGot:  %+v\nWant: %+v", decoded, original)
	}
}

func TestDecodeEnvelopeMalformed(t *testing.T) {
	cases := []struct {
		name string
		raw  []byte
	}{
		{"truncated json", []byte(`{"type": "chat", "content"`)},
		{"not json", []byte("v=0 this is sdp, not an envelope")},
		{"invalid utf8", []byte{0xff, 0xfe, '{', '}'}},
		{"missing type", []byte(`{"content": "x", "timestamp": "1", "sender": "mobile"}`)},
	}

	for _, tc := range cases {
		if _, err := DecodeEnvelope(tc.raw); err == nil {
			t.Errorf("%s: expected decode error, got none", tc.name)
		}
	}
}

func TestMillisNumericOrdering(t *testing.T) {
	// "9" must sort before "10": numeric, not lexicographic.
	early := Envelope{Timestamp: "9"}
	late := Envelope{Timestamp: "10"}

	if early.Millis() >= late.Millis() {
		t.Errorf("numeric ordering broken: %d >= %d", early.Millis(), late.Millis())
	}

	garbage := Envelope{Timestamp: "not-a-number"}
	if garbage.Millis() != 0 {
		t.Errorf("unparseable timestamp should sort to 0, got %d", garbage.Millis())
	}
}

func TestSdpRoundTrip(t *testing.T) {
	desc := Sdp{Type: "answer", SDP: "v=0\r\no=- 46117 2 IN IP4 127.0.0.1\r\n"}

	encoded, err := desc.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := DecodeSdp(encoded)
	if err != nil {
		t.Fatalf("DecodeSdp failed: %v", err)
	}
	if decoded != desc {
		t.Errorf("Round trip mismatch: %+v != %+v", decoded, desc)
	}

	if _, err := DecodeSdp(`{"type": "candidate", "sdp": "x"}`); err == nil {
		t.Error("expected error for unknown sdp type")
	}
}
