package transport

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/darkprince558/tether/pkg/protocol"
)

// ErrChannelNotOpen is returned by Send when the data channel is not ready.
// Callers decide whether to drop or retry; nothing is buffered here.
var ErrChannelNotOpen = errors.New("data channel is not open")

// ICEConfig lists the servers handed to the peer connection: one STUN and
// one TURN with static credentials. Values come from configuration.
type ICEConfig struct {
	StunServer   string
	TurnServer   string
	TurnUsername string
	TurnPassword string
}

// Callbacks are the transport events surfaced to the session controller.
// All of them fire on pion worker goroutines; the controller is responsible
// for serializing them onto its own loop.
type Callbacks struct {
	// OnLocalDescription fires when the answer is first created and again
	// for every ICE candidate gathered afterwards, each time carrying the
	// full current local description (candidates accumulate into it).
	OnLocalDescription func(desc protocol.Sdp)
	OnChannelOpen      func()
	OnChannelClosed    func()
	OnStateChange      func(state string)
	OnMessage          func(data []byte)
}

// Peer wraps one generation of webrtc.PeerConnection plus its single data
// channel. It is never renegotiated in place: the session controller
// disposes it and creates a fresh Peer for every new offer.
type Peer struct {
	pc *webrtc.PeerConnection
	cb Callbacks

	mu      sync.Mutex
	channel *webrtc.DataChannel

	closeOnce sync.Once
}

// NewPeer initializes the underlying peer connection. Failure here is fatal
// for the current negotiation generation; the caller surfaces it as
// disconnected and waits for an external retrigger.
func NewPeer(cfg ICEConfig, cb Callbacks) (*Peer, error) {
	servers := []webrtc.ICEServer{
		{URLs: []string{cfg.StunServer}},
	}
	if cfg.TurnServer != "" {
		servers = append(servers, webrtc.ICEServer{
			URLs:       []string{cfg.TurnServer},
			Username:   cfg.TurnUsername,
			Credential: cfg.TurnPassword,
		})
	}

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: servers})
	if err != nil {
		return nil, fmt.Errorf("failed to create peer connection: %w", err)
	}

	p := &Peer{pc: pc, cb: cb}

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			// Gathering complete marker
			return
		}
		// The candidate has already been folded into the local description,
		// so republish the whole descriptor rather than the lone candidate.
		if desc := pc.LocalDescription(); desc != nil && p.cb.OnLocalDescription != nil {
			p.cb.OnLocalDescription(protocol.Sdp{Type: desc.Type.String(), SDP: desc.SDP})
		}
	})

	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		if p.cb.OnStateChange != nil {
			p.cb.OnStateChange(s.String())
		}
	})

	// The desktop side opens the channel; we accept it.
	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		p.attach(dc)
	})

	return p, nil
}

// attach hooks the remote-created data channel into our callbacks.
func (p *Peer) attach(dc *webrtc.DataChannel) {
	p.mu.Lock()
	p.channel = dc
	p.mu.Unlock()

	dc.OnOpen(func() {
		if p.cb.OnChannelOpen != nil {
			p.cb.OnChannelOpen()
		}
	})
	dc.OnClose(func() {
		if p.cb.OnChannelClosed != nil {
			p.cb.OnChannelClosed()
		}
	})
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		if p.cb.OnMessage != nil {
			p.cb.OnMessage(msg.Data)
		}
	})
}

// SetRemoteOffer applies the peer's offer and immediately creates and sets
// the local answer. The answer (and later, candidate-enriched revisions of
// it) is delivered through OnLocalDescription. Errors are recoverable: the
// session stays in negotiating and waits for a fresh offer.
func (p *Peer) SetRemoteOffer(desc protocol.Sdp) error {
	if desc.Type != "offer" {
		return fmt.Errorf("expected offer, got %q", desc.Type)
	}

	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: desc.SDP}
	if err := p.pc.SetRemoteDescription(offer); err != nil {
		return fmt.Errorf("failed to set remote offer: %w", err)
	}

	// Note: the negotiation direction of each m-line in the answer is
	// derived from the offer, so a data-only offer yields a data-only
	// answer without extra constraints.
	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return fmt.Errorf("failed to create answer: %w", err)
	}
	if err := p.pc.SetLocalDescription(answer); err != nil {
		return fmt.Errorf("failed to set local answer: %w", err)
	}

	if p.cb.OnLocalDescription != nil {
		p.cb.OnLocalDescription(protocol.Sdp{Type: "answer", SDP: answer.SDP})
	}
	return nil
}

// Send writes one frame to the data channel. Returns ErrChannelNotOpen when
// the channel has not opened yet or has already closed.
func (p *Peer) Send(payload []byte) error {
	p.mu.Lock()
	dc := p.channel
	p.mu.Unlock()

	if dc == nil || dc.ReadyState() != webrtc.DataChannelStateOpen {
		return ErrChannelNotOpen
	}
	if err := dc.Send(payload); err != nil {
		return fmt.Errorf("data channel send: %w", err)
	}
	return nil
}

// Dispose releases the data channel and then the connection. Idempotent:
// a second call is a no-op.
func (p *Peer) Dispose() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		dc := p.channel
		p.channel = nil
		p.mu.Unlock()

		if dc != nil {
			dc.Close()
		}
		p.pc.Close()
	})
}
