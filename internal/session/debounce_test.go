package session

import (
	"sync"
	"testing"
	"time"

	"github.com/darkprince558/tether/pkg/protocol"
)

type publishRecorder struct {
	mu    sync.Mutex
	calls []protocol.Sdp
	peers []string
}

func (r *publishRecorder) publish(deviceID string, desc protocol.Sdp) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, desc)
	r.peers = append(r.peers, deviceID)
}

func (r *publishRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *publishRecorder) last() (protocol.Sdp, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1], r.peers[len(r.peers)-1]
}

func TestDebounceBurstPublishesOnlyLast(t *testing.T) {
	rec := &publishRecorder{}
	p := newAnswerPublisher(60*time.Millisecond, rec.publish)

	// Rapid-fire updates within the window, like ICE trickling.
	for i, sdp := range []string{"v=0 a", "v=0 ab", "v=0 abc"} {
		p.Update(1, "desk-1", protocol.Sdp{Type: "answer", SDP: sdp})
		if i < 2 {
			time.Sleep(15 * time.Millisecond)
		}
	}

	time.Sleep(200 * time.Millisecond)

	if got := rec.count(); got != 1 {
		t.Fatalf("Expected exactly 1 publish, got %d", got)
	}
	desc, peer := rec.last()
	if desc.SDP != "v=0 abc" {
		t.Errorf("Expected the last description of the burst, got %q", desc.SDP)
	}
	if peer != "desk-1" {
		t.Errorf("Expected peer desk-1, got %s", peer)
	}
}

func TestDebounceCancelSuppressesPublish(t *testing.T) {
	rec := &publishRecorder{}
	p := newAnswerPublisher(50*time.Millisecond, rec.publish)

	p.Update(1, "desk-1", protocol.Sdp{Type: "answer", SDP: "stale"})
	p.Cancel()

	time.Sleep(150 * time.Millisecond)
	if got := rec.count(); got != 0 {
		t.Errorf("Cancelled publish still fired %d times", got)
	}
}

func TestDebounceNewGenerationSupersedesOld(t *testing.T) {
	rec := &publishRecorder{}
	p := newAnswerPublisher(50*time.Millisecond, rec.publish)

	p.Update(1, "desk-1", protocol.Sdp{Type: "answer", SDP: "gen1"})
	time.Sleep(10 * time.Millisecond)
	p.Cancel()
	p.Update(2, "desk-2", protocol.Sdp{Type: "answer", SDP: "gen2"})

	time.Sleep(200 * time.Millisecond)

	if got := rec.count(); got != 1 {
		t.Fatalf("Expected exactly 1 publish across generations, got %d", got)
	}
	desc, peer := rec.last()
	if desc.SDP != "gen2" || peer != "desk-2" {
		t.Errorf("Stale generation leaked: published %q to %s", desc.SDP, peer)
	}
}

func TestDebouncePublishesOncePerGeneration(t *testing.T) {
	rec := &publishRecorder{}
	p := newAnswerPublisher(30*time.Millisecond, rec.publish)

	p.Update(1, "desk-1", protocol.Sdp{Type: "answer", SDP: "first"})
	time.Sleep(120 * time.Millisecond)

	// A straggler candidate after the answer went out must not cause a
	// second publish for the same generation.
	p.Update(1, "desk-1", protocol.Sdp{Type: "answer", SDP: "straggler"})
	time.Sleep(120 * time.Millisecond)

	if got := rec.count(); got != 1 {
		t.Errorf("Expected 1 publish per generation, got %d", got)
	}
}
