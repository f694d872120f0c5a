package orders

import (
	"encoding/json"
	"testing"
	"time"

	"boutique/models"
)

func TestHubRegisterBroadcastUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := &Client{
		Send: make(chan []byte, 10),
		Room: AdminFeedRoom,
	}
	hub.register <- client

	ev := StatusEvent{OrderID: "o1", Status: models.OrderConfirmed}
	data, _ := json.Marshal(ev)
	hub.broadcast <- broadcastMsg{Room: AdminFeedRoom, Data: data}

	select {
	case got := <-client.Send:
		if string(got) != string(data) {
			t.Fatalf("expected %s, got %s", data, got)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for message")
	}

	hub.unregister <- client
}

func TestHubUnregisterAfterBroadcastEviction(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	// An unbuffered Send fills immediately, so the first broadcast
	// evicts the client and closes its channel.
	slow := &Client{Send: make(chan []byte), Room: AdminFeedRoom}
	hub.register <- slow
	hub.broadcast <- broadcastMsg{Room: AdminFeedRoom, Data: []byte("x")}

	// The read loop still reports the disconnect afterwards; the hub
	// must not close the channel again.
	hub.unregister <- slow

	healthy := &Client{Send: make(chan []byte, 10), Room: AdminFeedRoom}
	hub.register <- healthy
	hub.broadcast <- broadcastMsg{Room: AdminFeedRoom, Data: []byte("y")}

	select {
	case got := <-healthy.Send:
		if string(got) != "y" {
			t.Fatalf("expected y, got %s", got)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("hub stopped serving after duplicate unregister")
	}
}

func TestHubPublishReachesAdminAndOwner(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	adminClient := &Client{Send: make(chan []byte, 10), Room: AdminFeedRoom}
	ownerClient := &Client{Send: make(chan []byte, 10), Room: "u1", UserID: "u1"}
	strangerClient := &Client{Send: make(chan []byte, 10), Room: "u2", UserID: "u2"}
	hub.register <- adminClient
	hub.register <- ownerClient
	hub.register <- strangerClient

	hub.Publish(StatusEvent{OrderID: "o1", UserID: "u1", Status: models.OrderCancelled})

	for _, c := range []*Client{adminClient, ownerClient} {
		select {
		case raw := <-c.Send:
			var got StatusEvent
			if err := json.Unmarshal(raw, &got); err != nil {
				t.Fatalf("bad payload: %v", err)
			}
			if got.OrderID != "o1" {
				t.Fatalf("expected o1, got %s", got.OrderID)
			}
		case <-time.After(1 * time.Second):
			t.Fatal("timeout waiting for message")
		}
	}

	select {
	case raw := <-strangerClient.Send:
		t.Fatalf("stranger should not receive events, got %s", raw)
	case <-time.After(100 * time.Millisecond):
	}
}
