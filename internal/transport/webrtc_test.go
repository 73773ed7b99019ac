package transport

import (
	"testing"

	"github.com/darkprince558/tether/pkg/protocol"
)

func testConfig() ICEConfig {
	return ICEConfig{
		StunServer:   "stun:stun.l.google.com:19302",
		TurnServer:   "turn:turn.example.net:3478",
		TurnUsername: "user",
		TurnPassword: "secret",
	}
}

func TestSendBeforeChannelOpenReturnsNotOpen(t *testing.T) {
	peer, err := NewPeer(testConfig(), Callbacks{})
	if err != nil {
		t.Fatalf("NewPeer failed: %v", err)
	}
	defer peer.Dispose()

	if err := peer.Send([]byte("too early")); err != ErrChannelNotOpen {
		t.Errorf("Expected ErrChannelNotOpen, got %v", err)
	}
}

func TestSetRemoteOfferRejectsNonOffer(t *testing.T) {
	peer, err := NewPeer(testConfig(), Callbacks{})
	if err != nil {
		t.Fatalf("NewPeer failed: %v", err)
	}
	defer peer.Dispose()

	err = peer.SetRemoteOffer(protocol.Sdp{Type: "answer", SDP: "v=0"})
	if err == nil {
		t.Error("Expected error when feeding an answer as remote offer")
	}
}

func TestDisposeIsIdempotent(t *testing.T) {
	peer, err := NewPeer(testConfig(), Callbacks{})
	if err != nil {
		t.Fatalf("NewPeer failed: %v", err)
	}

	// Calling twice must not fault.
	peer.Dispose()
	peer.Dispose()

	if err := peer.Send([]byte("after dispose")); err != ErrChannelNotOpen {
		t.Errorf("Expected ErrChannelNotOpen after dispose, got %v", err)
	}
}
