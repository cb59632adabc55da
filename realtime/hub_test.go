package realtime

import (
	"encoding/json"
	"testing"
	"time"
)

func TestBroadcastDeliversToRegisteredClient(t *testing.T) {
	h := NewHub()
	go h.Run()

	client := &Client{send: make(chan []byte, 1)}
	h.register <- client

	h.Publish("recognition", "Alice", "checked_in", 0.93)

	select {
	case msg := <-client.send:
		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if ev.Type != "recognition" || ev.Name != "Alice" || ev.Status != "checked_in" {
			t.Errorf("unexpected event: %+v", ev)
		}
		if ev.Timestamp == 0 {
			t.Error("timestamp was not stamped")
		}
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}
}

func TestBroadcastEvictsSaturatedClient(t *testing.T) {
	h := NewHub()
	go h.Run()

	// Unbuffered send channel nobody reads: the broadcast cannot be
	// delivered and the client must be dropped.
	client := &Client{send: make(chan []byte)}
	h.register <- client

	h.Publish("recognition", "Bob", "confirmed", 0.91)

	deadline := time.Now().Add(time.Second)
	for {
		h.mu.RLock()
		remaining := len(h.clients)
		h.mu.RUnlock()
		if remaining == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("saturated client was not evicted")
		}
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case _, ok := <-client.send:
		if ok {
			t.Fatal("expected send channel to be closed")
		}
	default:
		t.Fatal("send channel was not closed on eviction")
	}
}
