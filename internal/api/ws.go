package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/radezheng/marco/pkg/logger"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = 30 * time.Second
)

// wsEvent is the envelope pushed to websocket clients
type wsEvent struct {
	Event   string      `json:"event"`
	Time    time.Time   `json:"time"`
	Payload interface{} `json:"payload"`
}

// Hub fans pipeline events out to connected websocket clients
// ⭐ SSOT: WS 推送只在这里
// 写失败的连接直接踢掉，慢客户端不拖累其他人。
type Hub struct {
	upgrader websocket.Upgrader
	logger   *logger.Logger

	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewHub creates a websocket hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// 前端与 API 不同源部署，握手不做 Origin 白名单
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  log,
		clients: make(map[*websocket.Conn]bool),
	}
}

// HandleWS upgrades the request and tracks the connection
// GET /api/ws
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WS 升级失败")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.WithField("clients", count).Debug("WS 客户端接入")

	go h.readLoop(conn)
	go h.pingLoop(conn)
}

// Broadcast pushes one event to every connected client.
func (h *Hub) Broadcast(event string, payload interface{}) {
	data, err := json.Marshal(wsEvent{
		Event:   event,
		Time:    time.Now(),
		Payload: payload,
	})
	if err != nil {
		h.logger.WithError(err).Error("WS 事件序列化失败")
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.drop(conn)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.Close()
	}
	h.clients = make(map[*websocket.Conn]bool)
}

// readLoop drains client messages until the connection dies.
// 客户端不需要发消息，读循环只为感知断连和回应 pong。
func (h *Hub) readLoop(conn *websocket.Conn) {
	defer h.drop(conn)

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// pingLoop keeps the connection alive through proxies.
func (h *Hub) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(wsPingEvery)
	defer ticker.Stop()

	for range ticker.C {
		h.mu.RLock()
		_, alive := h.clients[conn]
		h.mu.RUnlock()
		if !alive {
			return
		}

		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
			h.drop(conn)
			return
		}
	}
}

// drop removes and closes one connection.
func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
	h.mu.Unlock()
}
