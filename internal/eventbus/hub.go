package eventbus

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"terraforming-mars-backend/internal/logger"

	"go.uber.org/zap"
)

// Dispatcher handles an inbound application message ReadPump doesn't
// recognize as a room control (subscribe/unsubscribe) itself.
type Dispatcher interface {
	Dispatch(ctx context.Context, c *Connection, msgType string, payload json.RawMessage)
}

// Hub tracks which connections are subscribed to which rooms
// (world:{id} / settlement:{id}) and fans out Broadcast calls to them.
type Hub struct {
	mu          sync.RWMutex
	connections map[*Connection]bool
	rooms       map[string]map[*Connection]bool

	// Dispatcher routes inbound game-action frames; nil until the gateway
	// wires itself in, in which case such frames are silently dropped.
	Dispatcher Dispatcher
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[*Connection]bool),
		rooms:       make(map[string]map[*Connection]bool),
	}
}

// Register adds a newly-accepted connection to the hub.
func (h *Hub) Register(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = true
	logger.Debug("eventbus connection registered", zap.String("connection_id", c.ID))
}

// Unregister removes c from the hub and every room it had joined.
func (h *Hub) Unregister(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[c]; !ok {
		return
	}
	delete(h.connections, c)
	for _, room := range c.joinedRooms() {
		if conns, ok := h.rooms[room]; ok {
			delete(conns, c)
			if len(conns) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	c.closeSend()
}

// Join subscribes c to room, sending it a one-shot snapshot-request ack so
// a reconnecting client can respond with a REST fetch before relying on
// live events.
func (h *Hub) Join(c *Connection, room string) {
	h.mu.Lock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Connection]bool)
	}
	h.rooms[room][c] = true
	h.mu.Unlock()
	c.markJoined(room)

	c.enqueue(Message{Type: "subscribed", Room: room, Payload: nil, Timestamp: time.Now()})
}

// Leave unsubscribes c from room.
func (h *Hub) Leave(c *Connection, room string) {
	h.mu.Lock()
	if conns, ok := h.rooms[room]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.rooms, room)
		}
	}
	h.mu.Unlock()
	c.markLeft(room)
}

// Broadcast fans payload out to every connection subscribed to room.
func (h *Hub) Broadcast(room, eventType string, payload interface{}) {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	msg := Message{Type: eventType, Room: room, Payload: payload, Timestamp: time.Now()}
	for _, c := range conns {
		c.enqueue(msg)
	}
}

// Publish implements disaster.Emitter, letting the disaster lifecycle
// driver push directly into the hub without importing it.
func (h *Hub) Publish(room string, eventType string, payload any) {
	h.Broadcast(room, eventType, payload)
}

// RoomSize reports how many connections currently hold room open, used by
// the admin dashboard.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// ConnectionCount reports the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// WorldRoom and SettlementRoom build the canonical room names used
// throughout the event channel.
func WorldRoom(worldID string) string           { return "world:" + worldID }
func SettlementRoom(settlementID string) string { return "settlement:" + settlementID }
