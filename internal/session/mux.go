package session

import (
	"fmt"
	"sort"
	"sync"

	"github.com/darkprince558/tether/pkg/protocol"
)

// Subscriber receives every inbound envelope of the type it registered for.
// Subscribers run synchronously on the receive path, in registration order.
type Subscriber func(protocol.Envelope)

// Mux keeps the two backing lists of the timeline (local sends, remote
// receipts) and routes inbound envelopes to type subscribers. Each list has
// a single writer; readers always get a sorted snapshot copy.
type Mux struct {
	mu          sync.Mutex
	sent        []protocol.Envelope
	received    []protocol.Envelope
	subscribers map[string][]Subscriber
}

func NewMux() *Mux {
	return &Mux{subscribers: make(map[string][]Subscriber)}
}

// Subscribe registers a handler for one envelope type.
func (m *Mux) Subscribe(msgType string, fn Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers[msgType] = append(m.subscribers[msgType], fn)
}

// RecordSent appends an envelope the local side already put on the wire.
func (m *Mux) RecordSent(env protocol.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, env)
}

// Receive decodes one inbound frame, appends it to the received list, then
// notifies subscribers. A malformed frame is dropped with an error; it never
// affects channel health. A panicking subscriber is contained and cannot
// undo the timeline append, which happens first.
func (m *Mux) Receive(raw []byte) error {
	env, err := protocol.DecodeEnvelope(raw)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.received = append(m.received, env)
	subs := append([]Subscriber(nil), m.subscribers[env.Type]...)
	m.mu.Unlock()

	for _, fn := range subs {
		notify(fn, env)
	}
	return nil
}

// ReceiveDirect decodes a frame that arrived outside the session's data
// channel (the LAN fast path) and dispatches it to subscribers without
// recording it: the timeline describes the relayed session only, and the
// controller must stay its sole writer.
func (m *Mux) ReceiveDirect(raw []byte) error {
	env, err := protocol.DecodeEnvelope(raw)
	if err != nil {
		return err
	}

	m.mu.Lock()
	subs := append([]Subscriber(nil), m.subscribers[env.Type]...)
	m.mu.Unlock()

	for _, fn := range subs {
		notify(fn, env)
	}
	return nil
}

func notify(fn Subscriber, env protocol.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("Subscriber panicked on %s envelope: %v\n", env.Type, r)
		}
	}()
	fn(env)
}

// Timeline merges sent and received envelopes, sorted ascending by their
// numeric timestamp. The sort is stable and the comparison numeric, so
// decimal-string timestamps never fall into the "10" < "9" trap.
func (m *Mux) Timeline() []protocol.Envelope {
	m.mu.Lock()
	merged := make([]protocol.Envelope, 0, len(m.received)+len(m.sent))
	merged = append(merged, m.received...)
	merged = append(merged, m.sent...)
	m.mu.Unlock()

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Millis() < merged[j].Millis()
	})
	return merged
}

// Reset drops both lists. Called when a generation ends or begins; the
// timeline only ever describes the current connected session.
func (m *Mux) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
	m.received = nil
}
