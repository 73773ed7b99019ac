package session

import (
	"sync"
	"time"

	"github.com/darkprince558/tether/pkg/protocol"
)

// answerPublisher coalesces the stream of local-description updates that
// ICE trickling produces into a single published answer per negotiation
// generation. Every update re-arms a trailing window; only after the
// transport has been quiet for the whole window does the latest (most
// candidate-complete) description go out.
type answerPublisher struct {
	window  time.Duration
	publish func(deviceID string, desc protocol.Sdp)

	mu        sync.Mutex
	timer     *time.Timer
	armed     bool
	gen       uint64
	published uint64 // last generation that already sent its answer
	latest    protocol.Sdp
	deviceID  string
}

func newAnswerPublisher(window time.Duration, publish func(deviceID string, desc protocol.Sdp)) *answerPublisher {
	return &answerPublisher{window: window, publish: publish}
}

// Update records the newest description for a generation and restarts the
// trailing window. Updates for a generation that already published are
// ignored: one answer per generation, period.
func (p *answerPublisher) Update(gen uint64, deviceID string, desc protocol.Sdp) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen == p.published {
		return
	}

	p.gen = gen
	p.latest = desc
	p.deviceID = deviceID
	p.armed = true

	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(p.window, func() { p.fire(gen) })
}

func (p *answerPublisher) fire(gen uint64) {
	p.mu.Lock()
	if !p.armed || p.gen != gen {
		// A newer generation superseded this timer, or Cancel ran.
		p.mu.Unlock()
		return
	}
	p.armed = false
	p.published = gen
	deviceID, desc := p.deviceID, p.latest
	p.mu.Unlock()

	p.publish(deviceID, desc)
}

// Cancel drops any pending publish. Called when the generation it belongs
// to is disposed — a stale-generation answer must never reach the relay.
func (p *answerPublisher) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.armed = false
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}
