package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"residence/internal/pkg/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 512 * 1024 // 512 KB
)

// Event is a real-time event pushed to clients.
type Event struct {
	Type      string      `json:"type"`
	ChannelID int64       `json:"channel_id,omitempty"`
	From      int64       `json:"from,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
}

const (
	EventNotification = "notification"
	EventChatMessage  = "chat_message"
	EventTyping       = "typing"
	EventCall         = "call"
	EventSignal       = "signal"
)

// connection represents a single WebSocket client
type connection struct {
	residentID int64
	conn       *websocket.Conn
	send       chan []byte
	channels   map[int64]bool // subscribed chat channel IDs
}

// Hub manages all active WebSocket connections. One connection per
// resident; a reconnect replaces the previous one.
type Hub struct {
	mu          sync.RWMutex
	connections map[int64]*connection
	log         *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		connections: make(map[int64]*connection),
		log:         log,
	}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c.residentID] = c
	metrics.WebsocketConnections.Set(float64(len(h.connections)))
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.connections[c.residentID]; ok && existing == c {
		delete(h.connections, c.residentID)
		close(c.send)
	}
	metrics.WebsocketConnections.Set(float64(len(h.connections)))
}

// IsConnected reports whether a resident has a live connection.
func (h *Hub) IsConnected(residentID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.connections[residentID]
	return ok
}

// PushToUser delivers an event to one resident if connected. The send is
// non-blocking: a full outbound buffer means the client is too slow and
// the event is dropped. Returns false when nothing was queued.
func (h *Hub) PushToUser(residentID int64, event *Event) bool {
	data, err := json.Marshal(event)
	if err != nil {
		return false
	}

	h.mu.RLock()
	c, ok := h.connections[residentID]
	h.mu.RUnlock()
	if !ok {
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		h.log.Warn("realtime push dropped, client too slow",
			zap.Int64("resident_id", residentID),
			zap.String("event", event.Type))
		return false
	}
}

// BroadcastToChannel sends an event to every connected subscriber of a
// chat channel.
func (h *Hub) BroadcastToChannel(channelID int64, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.connections {
		if c.channels[channelID] {
			select {
			case c.send <- data:
			default:
				// Client too slow, skip
			}
		}
	}
}

// ServeWS registers a new connection and starts read/write loops.
// Blocks until the client disconnects.
func (h *Hub) ServeWS(conn *websocket.Conn, residentID int64, initialChannels []int64) {
	c := &connection{
		residentID: residentID,
		conn:       conn,
		send:       make(chan []byte, 256),
		channels:   make(map[int64]bool),
	}

	// Auto-subscribe to the resident's existing channels
	for _, id := range initialChannels {
		c.channels[id] = true
	}

	h.register(c)

	go h.writePump(c)
	h.readPump(c)
}

// inboundEvent is what clients may send over the socket.
type inboundEvent struct {
	Type      string          `json:"type"`
	ChannelID int64           `json:"channel_id,omitempty"`
	To        int64           `json:"to,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var event inboundEvent
		if err := json.Unmarshal(msg, &event); err != nil {
			continue
		}

		switch event.Type {
		case "subscribe":
			h.mu.Lock()
			c.channels[event.ChannelID] = true
			h.mu.Unlock()
		case "unsubscribe":
			h.mu.Lock()
			delete(c.channels, event.ChannelID)
			h.mu.Unlock()
		case "typing":
			h.BroadcastToChannel(event.ChannelID, &Event{
				Type:      EventTyping,
				ChannelID: event.ChannelID,
				From:      c.residentID,
			})
		case "signal":
			// WebRTC signaling relay: SDP offers/answers and ICE
			// candidates are forwarded to the addressed peer as-is. The
			// hub keeps no session state.
			if event.To != 0 {
				h.PushToUser(event.To, &Event{
					Type:    EventSignal,
					From:    c.residentID,
					Payload: event.Payload,
				})
			}
		}
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
