package sse

import (
	"encoding/json"
	"testing"
)

func TestHubNotifier_Broadcast(t *testing.T) {
	hub := NewHub()
	a := hub.Register("a", 1)
	b := hub.Register("b", 2)
	defer hub.Unregister("a")
	defer hub.Unregister("b")

	NewHubNotifier(hub).Notify(Notification{
		Level:   LevelSuccess,
		Message: "Category created",
		Entity:  "category",
		Action:  "create",
	})

	for _, c := range []*Client{a, b} {
		select {
		case data := <-c.Events:
			var n Notification
			if err := json.Unmarshal(data, &n); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if n.Message != "Category created" || n.Level != LevelSuccess {
				t.Errorf("client %s got %+v", c.ID, n)
			}
			if n.Timestamp.IsZero() {
				t.Error("timestamp not set")
			}
		default:
			t.Errorf("client %s received nothing", c.ID)
		}
	}
}

func TestHub_FailureGoesOnlyToActingAdmin(t *testing.T) {
	hub := NewHub()
	own := hub.Register("own", 1)
	other := hub.Register("other", 2)
	defer hub.Unregister("own")
	defer hub.Unregister("other")

	hub.Broadcast(&Notification{Level: LevelError, Message: "Failed to create category", AdminID: 1})

	if len(own.Events) != 1 {
		t.Errorf("acting admin got %d events, want 1", len(own.Events))
	}
	if len(other.Events) != 0 {
		t.Errorf("other admin got %d events, want 0", len(other.Events))
	}

	hub.Broadcast(&Notification{Level: LevelSuccess, Message: "Category created", AdminID: 1})
	if len(other.Events) != 1 {
		t.Errorf("success should reach every admin, other got %d", len(other.Events))
	}
}

func TestHub_DropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	c := hub.Register("slow", 1)
	defer hub.Unregister("slow")

	for i := 0; i < cap(c.Events)+5; i++ {
		hub.Broadcast(&Notification{Message: "x"})
	}
	if len(c.Events) != cap(c.Events) {
		t.Errorf("buffered = %d, want %d", len(c.Events), cap(c.Events))
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub()
	c := hub.Register("gone", 1)
	hub.Unregister("gone")

	if hub.ClientCount() != 0 {
		t.Errorf("count = %d", hub.ClientCount())
	}
	if _, ok := <-c.Events; ok {
		t.Error("channel should be closed")
	}
	hub.Unregister("gone")
}
