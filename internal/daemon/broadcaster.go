package daemon

import (
	"github.com/ramonehamilton/FallGuys-Companion/internal/events"
)

// BroadcastObserver forwards every dispatched event to websocket clients.
type BroadcastObserver struct {
	server *WebSocketServer
}

// NewBroadcastObserver creates an observer broadcasting through server.
func NewBroadcastObserver(server *WebSocketServer) *BroadcastObserver {
	return &BroadcastObserver{server: server}
}

// OnEvent queues the event for broadcast.
func (o *BroadcastObserver) OnEvent(event events.Event) error {
	o.server.Broadcast(Event{
		Type:      event.Type,
		Data:      event.Data,
		Timestamp: event.Time,
	})
	return nil
}

// GetName returns the observer name.
func (o *BroadcastObserver) GetName() string {
	return "BroadcastObserver"
}

// ShouldHandle returns true for all events.
func (o *BroadcastObserver) ShouldHandle(eventType string) bool {
	return true
}
