package session

import (
	"testing"

	"github.com/darkprince558/tether/pkg/protocol"
)

func env(msgType, content, timestamp, sender string) protocol.Envelope {
	return protocol.Envelope{Type: msgType, Content: content, Timestamp: timestamp, Sender: sender}
}

func TestTimelineMergesNumericAscending(t *testing.T) {
	m := NewMux()

	// Sent [100, 300], received [50, 200] -> [50, 100, 200, 300],
	// regardless of insertion order.
	m.RecordSent(env("chat", "b", "100", "mobile"))
	m.RecordSent(env("chat", "d", "300", "mobile"))
	for _, e := range []protocol.Envelope{
		env("chat", "a", "50", "desktop"),
		env("chat", "c", "200", "desktop"),
	} {
		raw, err := e.Encode()
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if err := m.Receive(raw); err != nil {
			t.Fatalf("Receive failed: %v", err)
		}
	}

	timeline := m.Timeline()
	want := []string{"50", "100", "200", "300"}
	if len(timeline) != len(want) {
		t.Fatalf("Expected %d envelopes, got %d", len(want), len(timeline))
	}
	for i, ts := range want {
		if timeline[i].Timestamp != ts {
			t.Errorf("Position %d: expected timestamp %s, got %s", i, ts, timeline[i].Timestamp)
		}
	}
}

func TestTimelineNumericNotLexicographic(t *testing.T) {
	m := NewMux()
	m.RecordSent(env("chat", "later", "10", "mobile"))
	m.RecordSent(env("chat", "earlier", "9", "mobile"))

	timeline := m.Timeline()
	if timeline[0].Timestamp != "9" || timeline[1].Timestamp != "10" {
		t.Errorf("Lexicographic ordering bug: got %s before %s", timeline[0].Timestamp, timeline[1].Timestamp)
	}
}

func TestReceiveDispatchesInRegistrationOrder(t *testing.T) {
	m := NewMux()

	var order []string
	m.Subscribe("Clipboard", func(e protocol.Envelope) { order = append(order, "first") })
	m.Subscribe("Clipboard", func(e protocol.Envelope) { order = append(order, "second") })
	m.Subscribe("chat", func(e protocol.Envelope) { order = append(order, "wrong-type") })

	raw, _ := env("Clipboard", "copied text", "1", "desktop").Encode()
	if err := m.Receive(raw); err != nil {
		t.Fatalf("Receive failed: %v", err)
	}

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("Dispatch order wrong: %v", order)
	}
}

func TestSubscriberPanicDoesNotLoseEnvelope(t *testing.T) {
	m := NewMux()
	m.Subscribe("chat", func(e protocol.Envelope) { panic("subscriber bug") })

	var seen bool
	m.Subscribe("chat", func(e protocol.Envelope) { seen = true })

	raw, _ := env("chat", "hello", "42", "desktop").Encode()
	if err := m.Receive(raw); err != nil {
		t.Fatalf("Receive failed: %v", err)
	}

	if len(m.Timeline()) != 1 {
		t.Error("Envelope missing from timeline after subscriber panic")
	}
	if !seen {
		t.Error("Later subscriber was not notified after earlier one panicked")
	}
}

func TestReceiveDropsMalformedFrame(t *testing.T) {
	m := NewMux()
	if err := m.Receive([]byte("not json at all")); err == nil {
		t.Fatal("Expected decode error for malformed frame")
	}
	if len(m.Timeline()) != 0 {
		t.Error("Malformed frame must not reach the timeline")
	}
}

func TestReceiveDirectDispatchesWithoutTimeline(t *testing.T) {
	m := NewMux()

	var applied []string
	m.Subscribe("Clipboard", func(e protocol.Envelope) { applied = append(applied, e.Content) })

	raw, _ := env("Clipboard", "from the lan", "5", "desktop").Encode()
	if err := m.ReceiveDirect(raw); err != nil {
		t.Fatalf("ReceiveDirect failed: %v", err)
	}

	if len(applied) != 1 || applied[0] != "from the lan" {
		t.Errorf("Subscriber not notified: %v", applied)
	}
	if len(m.Timeline()) != 0 {
		t.Errorf("Out-of-channel frame leaked into the timeline: %d entries", len(m.Timeline()))
	}

	if err := m.ReceiveDirect([]byte("garbage")); err == nil {
		t.Error("Expected decode error for malformed frame")
	}
}

func TestResetClearsBothLists(t *testing.T) {
	m := NewMux()
	m.RecordSent(env("chat", "x", "1", "mobile"))
	raw, _ := env("chat", "y", "2", "desktop").Encode()
	m.Receive(raw)

	m.Reset()
	if len(m.Timeline()) != 0 {
		t.Errorf("Expected empty timeline after reset, got %d entries", len(m.Timeline()))
	}
}
