package app

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboard is served from the LAN
	},
}

// Hub fans live messages out to every connected websocket client.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]*wsClient
	logger  *slog.Logger
}

// wsClient serializes writes to one connection.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]*wsClient),
		logger:  logger,
	}
}

// ServeHTTP upgrades the request and keeps the client registered until it
// disconnects. Incoming frames are discarded.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = &wsClient{conn: conn}
	h.mu.Unlock()
	h.logger.Info("websocket client connected", "remote", r.RemoteAddr)

	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends v as JSON to every client. Clients that fail to accept
// the write are dropped. The registry lock is not held during writes.
func (h *Hub) Broadcast(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("websocket marshal failed", "err", err)
		return
	}

	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.write(payload); err != nil {
			h.logger.Debug("websocket write failed, dropping client", "err", err)
			h.remove(c.conn)
		}
	}
}

func (c *wsClient) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Len reports the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()
	if ok {
		conn.Close()
		h.logger.Info("websocket client disconnected")
	}
}
