package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Event types pushed to session subscribers.
const (
	EventQuestion   = "question"
	EventAnswer     = "answer_result"
	EventCompleted  = "game_completed"
	EventAbandoned  = "game_abandoned"
	EventDuelAccept = "duel_accepted"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// EventPublisher receives engine events; the websocket Hub is the only
// production implementation.
type EventPublisher interface {
	Publish(sessionID uint, eventType string, payload interface{})
}

// Hub fans session events out to the websocket clients watching a session.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
	log        *zap.Logger
}

type Client struct {
	hub       *Hub
	id        string
	socket    *websocket.Conn
	send      chan []byte
	sessionID uint
	userID    uint
}

type Message struct {
	Type      string      `json:"type"`
	SessionID uint        `json:"session_id"`
	Payload   interface{} `json:"payload"`
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run serves registrations until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mutex.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.Debug("client registered",
				zap.String("client_id", client.id), zap.Uint("session_id", client.sessionID),
				zap.Uint("user_id", client.userID), zap.Int("total_clients", total))

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		h.log.Debug("client unregistered",
			zap.String("client_id", client.id), zap.Uint("session_id", client.sessionID))
	}
}

// Publish implements EventPublisher.
func (h *Hub) Publish(sessionID uint, eventType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: eventType, SessionID: sessionID, Payload: payload})
	if err != nil {
		h.log.Error("marshal event", zap.String("type", eventType), zap.Error(err))
		return
	}

	var slow []*Client
	sent := 0
	h.mutex.RLock()
	for client := range h.clients {
		if client.sessionID != sessionID {
			continue
		}
		select {
		case client.send <- data:
			sent++
		default:
			slow = append(slow, client)
		}
	}
	h.mutex.RUnlock()

	for _, client := range slow {
		h.log.Warn("client send buffer full, closing", zap.String("client_id", client.id))
		h.remove(client)
	}
	h.log.Debug("event published",
		zap.String("type", eventType), zap.Uint("session_id", sessionID), zap.Int("clients", sent))
}

// Subscribers lists the users currently watching a session.
func (h *Hub) Subscribers(sessionID uint) []uint {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	var users []uint
	for client := range h.clients {
		if client.sessionID == sessionID {
			users = append(users, client.userID)
		}
	}
	return users
}

// RegisterClient attaches an upgraded connection to a session feed. The
// caller has already checked that userID may watch sessionID.
func (h *Hub) RegisterClient(conn *websocket.Conn, sessionID, userID uint) *Client {
	client := &Client{
		hub:       h,
		id:        uuid.NewString(),
		socket:    conn,
		send:      make(chan []byte, 256),
		sessionID: sessionID,
		userID:    userID,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return client
	}

	go client.writePump()
	go client.readPump()

	return client
}

// readPump only watches for disconnects and pongs; the feed is one-way.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.socket.Close()
	}()

	c.socket.SetReadLimit(512)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.socket.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Info("websocket read error", zap.String("client_id", c.id), zap.Error(err))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.socket.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
