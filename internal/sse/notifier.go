package sse

import "time"

// Notifier is the interface services use to emit admin notifications.
type Notifier interface {
	Notify(n Notification)
}

// HubNotifier implements Notifier using the SSE Hub.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier creates a notifier backed by the given Hub.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) Notify(msg Notification) {
	if n.hub.ClientCount() == 0 {
		return
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	n.hub.Broadcast(&msg)
}

// NopNotifier is a no-op implementation for when SSE is not needed.
type NopNotifier struct{}

func (NopNotifier) Notify(Notification) {}
