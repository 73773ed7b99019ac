package transport

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestLANChannelRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	const port = 49317

	type listenResult struct {
		ch  *LANChannel
		err error
	}
	listenDone := make(chan listenResult, 1)
	go func() {
		ch, err := ListenLAN(ctx, port)
		listenDone <- listenResult{ch, err}
	}()

	// Give the listener a moment to bind before dialing.
	time.Sleep(100 * time.Millisecond)

	dialer, err := DialLAN(ctx, "127.0.0.1:49317")
	if err != nil {
		t.Fatalf("DialLAN failed: %v", err)
	}
	defer dialer.Close()

	// The stream only becomes visible to the listener once data flows.
	payload := []byte(`{"type":"chat","content":"hi","timestamp":"1","sender":"mobile"}`)
	if err := dialer.Send(payload); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	res := <-listenDone
	if res.err != nil {
		t.Fatalf("ListenLAN failed: %v", res.err)
	}
	defer res.ch.Close()

	got, err := res.ch.Receive()
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("frame mismatch: got %q want %q", got, payload)
	}

	// And the other direction.
	reply := []byte("pong")
	if err := res.ch.Send(reply); err != nil {
		t.Fatalf("reply Send failed: %v", err)
	}
	got, err = dialer.Receive()
	if err != nil {
		t.Fatalf("reply Receive failed: %v", err)
	}
	if !bytes.Equal(got, reply) {
		t.Errorf("reply mismatch: got %q want %q", got, reply)
	}
}
