package eventbus

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"terraforming-mars-backend/internal/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBufferSize = 256
)

// Connection is one subscriber's websocket: a ReadPump/WritePump split with
// ping/pong keepalive, subscribed to arbitrary world/settlement rooms under
// one account identity.
type Connection struct {
	ID        string
	AccountID string
	Conn      *websocket.Conn
	Send      chan Message

	onDisconnect func(*Connection)

	mu         sync.RWMutex
	rooms      map[string]bool
	Done       chan struct{}
	closeOnce  sync.Once
	sendClosed bool
}

// NewConnection wraps an accepted websocket connection.
func NewConnection(id, accountID string, conn *websocket.Conn, onDisconnect func(*Connection)) *Connection {
	return &Connection{
		ID:           id,
		AccountID:    accountID,
		Conn:         conn,
		Send:         make(chan Message, sendBufferSize),
		onDisconnect: onDisconnect,
		rooms:        make(map[string]bool),
		Done:         make(chan struct{}),
	}
}

func (c *Connection) joinedRooms() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rooms := make([]string, 0, len(c.rooms))
	for r := range c.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

func (c *Connection) markJoined(room string) {
	c.mu.Lock()
	c.rooms[room] = true
	c.mu.Unlock()
}

func (c *Connection) markLeft(room string) {
	c.mu.Lock()
	delete(c.rooms, room)
	c.mu.Unlock()
}

// Close shuts the connection's done channel and underlying socket once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.Done)
		c.Conn.Close()
	})
}

func (c *Connection) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.sendClosed {
		close(c.Send)
		c.sendClosed = true
	}
}

// ReadPump handles subscribe/unsubscribe room controls itself and hands
// everything else (type-bearing frames) to hub.Dispatcher, the inbound
// half of the event channel's bidirectional protocol.
func (c *Connection) ReadPump(hub *Hub) {
	defer func() {
		if c.onDisconnect != nil {
			c.onDisconnect(c)
		}
		c.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var frame struct {
			Action  string          `json:"action"`
			Room    string          `json:"room"`
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := c.Conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("eventbus read error", zap.String("connection_id", c.ID), zap.Error(err))
			}
			return
		}
		switch frame.Action {
		case "subscribe":
			hub.Join(c, frame.Room)
		case "unsubscribe":
			hub.Leave(c, frame.Room)
		default:
			if frame.Type != "" && hub.Dispatcher != nil {
				hub.Dispatcher.Dispatch(context.Background(), c, frame.Type, frame.Payload)
			}
		}
	}
}

// WritePump drains Send to the socket, pinging on idle.
func (c *Connection) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(msg); err != nil {
				logger.Warn("eventbus write error", zap.String("connection_id", c.ID), zap.Error(err))
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.Done:
			return
		}
	}
}

// Enqueue pushes msg directly to this connection, bypassing room fan-out —
// used to reply to one inbound game-action frame rather than broadcast.
func (c *Connection) Enqueue(msg Message) {
	c.enqueue(msg)
}

// enqueue pushes msg to the connection's send buffer, shedding a pending
// construction-progress-batch frame first if the buffer is full.
func (c *Connection) enqueue(msg Message) {
	select {
	case c.Send <- msg:
		return
	case <-c.Done:
		return
	default:
	}

	if msg.Type == batchDroppable {
		return
	}

	select {
	case dropped := <-c.Send:
		if dropped.Type != batchDroppable {
			// buffer wasn't full of droppable frames; put it back and give up
			select {
			case c.Send <- dropped:
			default:
			}
			logger.Warn("eventbus send buffer full, dropping message",
				zap.String("connection_id", c.ID), zap.String("type", msg.Type))
			return
		}
	default:
	}

	select {
	case c.Send <- msg:
	default:
		logger.Warn("eventbus send buffer full after eviction, dropping message",
			zap.String("connection_id", c.ID), zap.String("type", msg.Type))
	}
}
