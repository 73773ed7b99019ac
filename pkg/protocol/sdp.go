package protocol

import (
	"encoding/json"
	"fmt"
)

// Sdp is the session description exchanged during negotiation, embedded as
// a JSON string inside signaling offers and answers.
type Sdp struct {
	Type string `json:"type"` // "offer" or "answer"
	SDP  string `json:"sdp"`
}

// Encode serializes the descriptor to its JSON form.
func (s Sdp) Encode() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode sdp: %w", err)
	}
	return string(data), nil
}

// DecodeSdp parses a descriptor received through signaling.
func DecodeSdp(raw string) (Sdp, error) {
	var s Sdp
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Sdp{}, fmt.Errorf("decode sdp: %w", err)
	}
	if s.Type != "offer" && s.Type != "answer" {
		return Sdp{}, fmt.Errorf("decode sdp: unexpected type %q", s.Type)
	}
	return s, nil
}
