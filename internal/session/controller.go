package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/darkprince558/tether/internal/transport"
	"github.com/darkprince558/tether/pkg/protocol"
)

// State is the session lifecycle phase surfaced to observers. Granular
// errors stay in the logs; this is the only failure signal the UI gets.
type State string

const (
	StateIdle         State = "idle"
	StateNegotiating  State = "negotiating"
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
)

var (
	// ErrNotConnected is returned by Send outside the Connected state.
	// Nothing is queued; the caller decides whether to retry.
	ErrNotConnected = errors.New("session is not connected")
	// ErrClosed is returned once the controller has shut down.
	ErrClosed = errors.New("session controller is closed")
)

// Relay is the slice of the signaling client the controller drives.
type Relay interface {
	Register() error
	SendAnswer(toDeviceID, answerJSON string) error
	SendMobileConnected(desktopDeviceID string) error
}

// Peer is one generation of transport handle. Disposed and replaced, never
// renegotiated in place.
type Peer interface {
	SetRemoteOffer(desc protocol.Sdp) error
	Send(payload []byte) error
	Dispose()
}

// PeerFactory creates a fresh handle wired to the given callbacks. Factory
// failure is fatal for that negotiation generation.
type PeerFactory func(cb transport.Callbacks) (Peer, error)

// Options tune the controller.
type Options struct {
	Role           string // protocol.SenderMobile or protocol.SenderDesktop
	DebounceWindow time.Duration
	// OfferTimeout bounds how long a negotiation may sit without either
	// connecting or being superseded before it is abandoned back to Idle.
	OfferTimeout time.Duration
}

// Controller owns the session lifecycle. Signaling callbacks, transport
// callbacks and caller sends all arrive on foreign goroutines and are
// serialized onto one event loop; only that loop touches the state machine,
// the current peer handle and the generation counter.
type Controller struct {
	opts    Options
	relay   Relay
	newPeer PeerFactory
	mux     *Mux
	answers *answerPublisher

	events chan event
	done   chan struct{}

	closeOnce sync.Once

	// Loop-owned state. Never read or written outside run().
	state        State
	gen          uint64
	peer         Peer
	peerDeviceID string
	offerTimer   *time.Timer

	onConnected func()

	subMu   sync.Mutex
	subs    map[int]chan State
	nextSub int
}

type event interface{}

type offerEvent struct {
	offer    string
	deviceID string
}
type peerOnlineEvent struct{ deviceID string }
type peerOfflineEvent struct{ deviceID string }
type channelOpenEvent struct{ gen uint64 }
type channelClosedEvent struct{ gen uint64 }
type connStateEvent struct {
	gen   uint64
	state string
}
type localDescEvent struct {
	gen  uint64
	desc protocol.Sdp
}
type inboundFrameEvent struct {
	gen  uint64
	data []byte
}
type negotiationErrEvent struct {
	gen uint64
	err error
}
type offerTimeoutEvent struct{ gen uint64 }
type sendRequest struct {
	msgType string
	content string
	reply   chan error
}
type stateRequest struct{ reply chan State }
type closeRequest struct{ reply chan struct{} }

// NewController wires the pieces together. Call Start to register with the
// relay and begin processing events.
func NewController(opts Options, relay Relay, factory PeerFactory) *Controller {
	if opts.Role == "" {
		opts.Role = protocol.SenderMobile
	}
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = 2 * time.Second
	}
	if opts.OfferTimeout <= 0 {
		opts.OfferTimeout = 90 * time.Second
	}

	c := &Controller{
		opts:    opts,
		relay:   relay,
		newPeer: factory,
		mux:     NewMux(),
		events:  make(chan event, 128),
		done:    make(chan struct{}),
		state:   StateIdle,
		subs:    make(map[int]chan State),
	}
	c.answers = newAnswerPublisher(opts.DebounceWindow, func(deviceID string, desc protocol.Sdp) {
		answerJSON, err := desc.Encode()
		if err != nil {
			fmt.Printf("Failed to encode answer: %v\n", err)
			return
		}
		if err := relay.SendAnswer(deviceID, answerJSON); err != nil {
			fmt.Printf("Failed to send answer to device %s: %v\n", deviceID, err)
		}
	})
	return c
}

// Start registers with the relay and starts the event loop. Registration is
// fire-and-forget; the session stays Idle until an offer arrives.
func (c *Controller) Start() error {
	if err := c.relay.Register(); err != nil {
		return fmt.Errorf("relay registration failed: %w", err)
	}
	go c.run()
	return nil
}

// Mux exposes the multiplexer for type-subscriber registration.
func (c *Controller) Mux() *Mux { return c.mux }

// OnConnected sets the hook fired once per successful connection, used for
// the initial device-state sync broadcast. Set before Start.
func (c *Controller) OnConnected(fn func()) { c.onConnected = fn }

// HandleOffer feeds a relay offer into the state machine.
func (c *Controller) HandleOffer(offerJSON, fromDeviceID string) {
	c.post(offerEvent{offer: offerJSON, deviceID: fromDeviceID})
}

// HandlePeerOnline feeds a peer presence event into the state machine.
func (c *Controller) HandlePeerOnline(deviceID string) {
	c.post(peerOnlineEvent{deviceID: deviceID})
}

// HandlePeerOffline feeds a peer loss event into the state machine.
func (c *Controller) HandlePeerOffline(deviceID string) {
	c.post(peerOfflineEvent{deviceID: deviceID})
}

// Send frames content as a typed envelope and writes it to the data
// channel. Fails with ErrNotConnected unless the session is Connected;
// nothing is ever buffered for later.
func (c *Controller) Send(msgType, content string) error {
	req := sendRequest{msgType: msgType, content: content, reply: make(chan error, 1)}
	select {
	case c.events <- req:
	case <-c.done:
		return ErrClosed
	}
	select {
	case err := <-req.reply:
		return err
	case <-c.done:
		return ErrClosed
	}
}

// Timeline returns the merged, timestamp-ordered view of all envelopes
// exchanged in the current session.
func (c *Controller) Timeline() []protocol.Envelope {
	return c.mux.Timeline()
}

// State reports the current lifecycle phase.
func (c *Controller) State() State {
	req := stateRequest{reply: make(chan State, 1)}
	select {
	case c.events <- req:
	case <-c.done:
		return StateIdle
	}
	select {
	case s := <-req.reply:
		return s
	case <-c.done:
		return StateIdle
	}
}

// Subscribe returns a channel of state changes and an unsubscribe func.
// Always call the unsubscribe func on teardown; the subscription does not
// outlive it.
func (c *Controller) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 8)

	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.subMu.Unlock()

	return ch, func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

// Close signs the session out: disposes the current generation and stops
// the loop. Safe to call more than once.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		req := closeRequest{reply: make(chan struct{})}
		select {
		case c.events <- req:
			<-req.reply
		case <-c.done:
		}
	})
}

func (c *Controller) post(ev event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func (c *Controller) run() {
	for {
		select {
		case <-c.done:
			return
		case ev := <-c.events:
			if c.handle(ev) {
				return
			}
		}
	}
}

// handle processes one event on the loop. Returns true on shutdown.
func (c *Controller) handle(ev event) bool {
	switch ev := ev.(type) {
	case offerEvent:
		c.handleOffer(ev)
	case peerOnlineEvent:
		// Acknowledge presence so the desktop knows we are reachable.
		go func(deviceID string) {
			if err := c.relay.SendMobileConnected(deviceID); err != nil {
				fmt.Printf("Failed to acknowledge peer %s: %v\n", deviceID, err)
			}
		}(ev.deviceID)
	case peerOfflineEvent:
		if c.state == StateConnected || c.state == StateNegotiating {
			c.disposeGeneration()
			c.mux.Reset()
			c.setState(StateDisconnected)
		}
	case channelOpenEvent:
		if ev.gen != c.gen {
			return false
		}
		c.stopOfferTimer()
		// Entries from a previous generation must not bleed into the new
		// session's timeline.
		c.mux.Reset()
		c.setState(StateConnected)
		if c.onConnected != nil {
			// The hook sends envelopes back through this loop, so it runs
			// off-loop.
			go c.onConnected()
		}
	case channelClosedEvent:
		if ev.gen != c.gen {
			return false
		}
		c.disposeGeneration()
		c.mux.Reset()
		c.setState(StateDisconnected)
	case connStateEvent:
		if ev.gen != c.gen {
			return false
		}
		switch ev.state {
		case "failed", "closed":
			if c.state == StateConnected || c.state == StateNegotiating {
				c.disposeGeneration()
				c.mux.Reset()
				c.setState(StateDisconnected)
			}
		}
	case localDescEvent:
		if ev.gen != c.gen {
			return false
		}
		c.answers.Update(ev.gen, c.peerDeviceID, ev.desc)
	case inboundFrameEvent:
		if ev.gen != c.gen {
			return false
		}
		if err := c.mux.Receive(ev.data); err != nil {
			// Frame-decode failures are dropped, never retried.
			fmt.Printf("Dropping malformed frame: %v\n", err)
		}
	case negotiationErrEvent:
		if ev.gen != c.gen {
			return false
		}
		// Negotiation-recoverable: stay put, wait for a fresh offer.
		fmt.Printf("Negotiation error (awaiting new offer): %v\n", ev.err)
	case offerTimeoutEvent:
		if ev.gen != c.gen || c.state != StateNegotiating {
			return false
		}
		fmt.Printf("Negotiation timed out, abandoning offer from device %s\n", c.peerDeviceID)
		c.disposeGeneration()
		c.setState(StateIdle)
	case sendRequest:
		ev.reply <- c.doSend(ev.msgType, ev.content)
	case stateRequest:
		ev.reply <- c.state
	case closeRequest:
		c.disposeGeneration()
		c.mux.Reset()
		c.setState(StateIdle)
		close(c.done)
		close(ev.reply)
		return true
	}
	return false
}

func (c *Controller) handleOffer(ev offerEvent) {
	// Reset-before-renegotiate: the transport does not support safe SDP
	// renegotiation on a live handle, so any existing one goes first.
	c.disposeGeneration()

	c.gen++
	gen := c.gen
	c.peerDeviceID = ev.deviceID

	cb := transport.Callbacks{
		OnLocalDescription: func(desc protocol.Sdp) { c.post(localDescEvent{gen: gen, desc: desc}) },
		OnChannelOpen:      func() { c.post(channelOpenEvent{gen: gen}) },
		OnChannelClosed:    func() { c.post(channelClosedEvent{gen: gen}) },
		OnStateChange:      func(s string) { c.post(connStateEvent{gen: gen, state: s}) },
		OnMessage:          func(data []byte) { c.post(inboundFrameEvent{gen: gen, data: data}) },
	}

	peer, err := c.newPeer(cb)
	if err != nil {
		// Transport-fatal for this generation. No retry loop here; an
		// external supervisor (or the next offer) re-triggers.
		fmt.Printf("Transport init failed: %v\n", err)
		c.setState(StateDisconnected)
		return
	}
	c.peer = peer
	c.setState(StateNegotiating)
	c.armOfferTimeout(gen)

	desc, err := protocol.DecodeSdp(ev.offer)
	if err != nil {
		fmt.Printf("Invalid offer from device %s: %v\n", ev.deviceID, err)
		return
	}

	// Off-loop: applying the offer triggers answer creation, whose
	// callbacks post right back into this loop.
	go func() {
		if err := peer.SetRemoteOffer(desc); err != nil {
			c.post(negotiationErrEvent{gen: gen, err: err})
		}
	}()
}

func (c *Controller) doSend(msgType, content string) error {
	if c.state != StateConnected || c.peer == nil {
		return ErrNotConnected
	}

	env := protocol.NewEnvelope(msgType, content, c.opts.Role)
	data, err := env.Encode()
	if err != nil {
		return err
	}
	if err := c.peer.Send(data); err != nil {
		return err
	}
	c.mux.RecordSent(env)
	return nil
}

// disposeGeneration tears the current generation down: pending debounce
// cancelled, offer timer stopped, handle disposed, generation counter
// advanced. The advance is what invalidates in-flight transport callbacks
// for the dead handle — the transport can still deliver them after Dispose,
// and they must fail the generation guard rather than re-arm the publisher.
func (c *Controller) disposeGeneration() {
	c.stopOfferTimer()
	c.answers.Cancel()
	if c.peer != nil {
		c.peer.Dispose()
		c.peer = nil
	}
	c.gen++
}

func (c *Controller) armOfferTimeout(gen uint64) {
	c.stopOfferTimer()
	c.offerTimer = time.AfterFunc(c.opts.OfferTimeout, func() {
		c.post(offerTimeoutEvent{gen: gen})
	})
}

func (c *Controller) stopOfferTimer() {
	if c.offerTimer != nil {
		c.offerTimer.Stop()
		c.offerTimer = nil
	}
}

func (c *Controller) setState(s State) {
	if c.state == s {
		return
	}
	c.state = s

	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		// Slow observers lose intermediate states, never block the loop.
		select {
		case ch <- s:
		default:
		}
	}
}
