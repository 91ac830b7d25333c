package transport

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"paperio/internal/game"

	"github.com/gorilla/websocket"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed.
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP.
	MaxWSConnectionsPerIP = 10

	// broadcastInterval controls how often the hub pushes RoomState to
	// connected clients, independent of the simulation tick rate.
	broadcastInterval = 50 * time.Millisecond
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if IsAllowedOrigin(origin) {
			return true
		}
		log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
		RecordConnectionRejected("origin")
		return false
	},
}

// inputMessage is the single inbound control message shape: a player's
// desired heading, in radians.
type inputMessage struct {
	Angle float64 `json:"angle"`
}

// wsClient tracks one WebSocket connection and the room player it controls.
type wsClient struct {
	conn     *websocket.Conn
	ip       string
	playerID string
}

// WebSocketHub manages every live WebSocket connection for a single room:
// admitting players on connect, routing inbound Input messages, and
// broadcasting NetStateProjection output on a fixed schedule.
type WebSocketHub struct {
	room *game.Room

	clients    map[*websocket.Conn]*wsClient
	register   chan *wsClient
	unregister chan *websocket.Conn
	mu         sync.RWMutex

	wsLimiter *WebSocketRateLimiter
}

// NewWebSocketHub builds a hub bound to room.
func NewWebSocketHub(room *game.Room) *WebSocketHub {
	return &WebSocketHub{
		room:       room,
		clients:    make(map[*websocket.Conn]*wsClient),
		register:   make(chan *wsClient),
		unregister: make(chan *websocket.Conn),
		wsLimiter:  NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
	}
}

// Run drives connection bookkeeping. Call once, in its own goroutine.
func (h *WebSocketHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			h.mu.Unlock()
			count := h.ClientCount()
			log.Printf("📱 player %s connected from %s (%d total)", client.playerID, client.ip, count)
			UpdateWSConnections(count)

		case conn := <-h.unregister:
			h.mu.Lock()
			client, ok := h.clients[conn]
			if ok {
				h.wsLimiter.Release(client.ip)
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			if ok {
				h.room.Leave(client.playerID)
			}
			conn.Close()
			count := h.ClientCount()
			log.Printf("📱 client disconnected (%d remaining)", count)
			UpdateWSConnections(count)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartBroadcastLoop periodically pushes the room's latest projected state
// to every connected client. Runs until stop is closed.
func (h *WebSocketHub) StartBroadcastLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(broadcastInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				h.broadcastState()
			}
		}
	}()
}

func (h *WebSocketHub) broadcastState() {
	if h.ClientCount() == 0 {
		return
	}

	state := h.room.Snapshot()
	payload, err := json.Marshal(state)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			go func(c *websocket.Conn) { h.unregister <- c }(conn)
			continue
		}
		IncrementWSMessages()
	}
}

// HandleWebSocket upgrades the connection, joins the room on behalf of the
// new player, and spawns the per-connection read loop that feeds Input
// messages into the room.
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if h.ClientCount() >= MaxWSConnectionsTotal {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached")
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	if !h.wsLimiter.Allow(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.wsLimiter.Release(ip)
		return
	}

	username := parseUsername(r.URL.Query())
	playerID := h.room.Join(username)

	client := &wsClient{conn: conn, ip: ip, playerID: playerID}
	h.register <- client

	go h.readLoop(client)
}

func parseUsername(q url.Values) string {
	return q.Get("username")
}

func (h *WebSocketHub) readLoop(client *wsClient) {
	defer func() {
		h.unregister <- client.conn
	}()

	for {
		_, message, err := client.conn.ReadMessage()
		if err != nil {
			return
		}

		var in inputMessage
		if err := json.Unmarshal(message, &in); err != nil {
			continue
		}
		h.room.SubmitInput(client.playerID, in.Angle)
	}
}
