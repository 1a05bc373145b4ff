package api

import (
	"testing"
	"time"
)

func TestHubDropsSlowClientWithoutStalling(t *testing.T) {
	hub := NewWSHub()
	go hub.Run()

	// A zero-capacity channel that nothing reads models a stalled
	// write pump.
	slow := &WSClient{hub: hub, send: make(chan WSMessage)}
	hub.Register(slow)

	hub.Broadcast(WSMessage{Type: "valuation"})

	done := make(chan struct{})
	go func() {
		fast := &WSClient{hub: hub, send: make(chan WSMessage, 256)}
		hub.Register(fast)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Register stalled after a slow-client broadcast")
	}

	// The dropped client's channel must be closed so its write pump exits.
	select {
	case msg, ok := <-slow.send:
		if ok {
			t.Errorf("expected closed channel, got message %q", msg.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("slow client channel was never closed")
	}

	if slow.trySend(WSMessage{Type: "pong"}) {
		t.Error("trySend after drop must report failure, not queue")
	}
}

func TestHubUnregisterClosesSendOnce(t *testing.T) {
	hub := NewWSHub()
	go hub.Run()

	client := &WSClient{hub: hub, send: make(chan WSMessage, 1)}
	hub.Register(client)
	hub.Unregister(client)

	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("expected closed channel after Unregister")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Unregister never closed the client channel")
	}

	// Late producer sends observe the closed flag instead of panicking.
	if client.trySend(WSMessage{Type: "valuation"}) {
		t.Error("trySend after Unregister must report failure")
	}

	// A duplicate Unregister is a no-op, not a double close.
	hub.Unregister(client)
}
