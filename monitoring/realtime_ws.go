// Package monitoring streams task-list changes to websocket clients.
package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// MessageType tags every websocket frame.
type MessageType string

const (
	TasksChanged MessageType = "tasks_changed"
	Heartbeat    MessageType = "heartbeat"
)

const (
	writeWait       = 10 * time.Second
	pingPeriod      = 30 * time.Second
	pongWait        = 60 * time.Second
	sendBufferSize  = 64
	broadcastBuffer = 256
)

var ErrHubStopped = errors.New("hub is not running")

// Message is the envelope written to every client.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
	ID        string          `json:"id"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	id   string
}

// Hub fans published messages out to connected websocket clients.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{}
	upgrader   websocket.Upgrader
	logger     *zap.Logger

	mu      sync.RWMutex
	running bool
	sent    int64
}

// NewHub returns a hub with no clients; call Run to start broadcasting.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			// origins are already filtered by the CORS layer
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
}

// Run serves the hub until ctx is done, sending a heartbeat every interval
// when interval is positive.
func (h *Hub) Run(ctx context.Context, interval time.Duration) {
	h.mu.Lock()
	h.running = true
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		h.running = false
		for c := range h.clients {
			close(c.send)
			delete(h.clients, c)
		}
		h.mu.Unlock()
		close(h.done)
		h.logger.Info("websocket hub stopped")
	}()

	var heartbeat <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		heartbeat = ticker.C
	}

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client connected", zap.String("client", c.id), zap.Int("total", total))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client disconnected", zap.String("client", c.id), zap.Int("total", total))

		case message := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- message:
					h.sent++
				default:
					// slow client; drop it rather than block the hub
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()

		case <-heartbeat:
			if err := h.Publish(string(Heartbeat), map[string]string{"status": "alive"}); err != nil {
				h.logger.Debug("heartbeat dropped", zap.Error(err))
			}

		case <-ctx.Done():
			return
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Publish wraps payload in a Message and queues it for every client. A full
// queue drops the message.
func (h *Hub) Publish(eventType string, payload any) error {
	h.mu.RLock()
	running := h.running
	h.mu.RUnlock()
	if !running {
		return ErrHubStopped
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	raw, err := json.Marshal(Message{
		Type:      MessageType(eventType),
		Timestamp: time.Now().UTC(),
		Data:      data,
		ID:        uuid.NewString(),
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	select {
	case h.broadcast <- raw:
		return nil
	default:
		h.logger.Warn("broadcast queue full, dropping message", zap.String("type", eventType))
		return nil
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MessagesSent counts frames queued to clients.
func (h *Hub) MessagesSent() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sent
}

// HandleWebSocket upgrades the request and attaches the connection to the hub.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		id:   uuid.NewString(),
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump(h.logger)
	go c.readPump(h)
}

func (c *client) writePump(logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Debug("websocket write failed", zap.String("client", c.id), zap.Error(err))
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

// readPump discards client frames; it only exists to notice closed
// connections and keep pong deadlines moving.
func (c *client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read failed", zap.String("client", c.id), zap.Error(err))
			}
			return
		}
	}
}
