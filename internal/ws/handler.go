package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/playmatatu/paperball/internal/audio"
	"github.com/playmatatu/paperball/internal/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin is checked by middleware.WebSocketCORSCheck
	},
}

const (
	sendBuffer   = 256
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	maxMessage   = 65536
)

// Client is one WebSocket connection attached to a play session.
type Client struct {
	conn     *websocket.Conn
	playerID int
	token    string
	send     chan []byte
	dropped  atomic.Int64
}

// Hub tracks the connected client of every session.
type Hub struct {
	clients    map[string]*Client // session token -> Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Message types
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type frameMessage struct {
	Type string `json:"type"`
	game.Frame
}

type soundMessage struct {
	Type string `json:"type"`
	Kind string `json:"kind"`
}

type hapticMessage struct {
	Type string `json:"type"`
	MS   int64  `json:"ms"`
}

// SendToSession queues a message for the session's client.
func (h *Hub) SendToSession(token string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}
	h.sendRaw(token, data, true)
}

func (h *Hub) sendRaw(token string, data []byte, logDrops bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, exists := h.clients[token]
	if !exists {
		return
	}
	select {
	case client.send <- data:
	default:
		n := client.dropped.Add(1)
		if logDrops || n%60 == 1 {
			log.Printf("[WS] send buffer full for session %s, dropped %d messages", token, n)
		}
	}
}

// PublishFrame sends a frame to the session's client. Slow clients lose frames.
func (h *Hub) PublishFrame(token string, frame game.Frame) {
	data, err := json.Marshal(frameMessage{Type: "frame", Frame: frame})
	if err != nil {
		log.Printf("[WS] Error marshaling frame: %v", err)
		return
	}
	h.sendRaw(token, data, false)
}

// SoundPort returns the port that forwards sound triggers to the session's client.
func (h *Hub) SoundPort(token string) audio.PlaybackPort {
	return &ClientPort{hub: h, token: token}
}

// HapticPort returns the port that forwards vibrations to the session's client.
func (h *Hub) HapticPort(token string) game.HapticPort {
	return &ClientPort{hub: h, token: token}
}

// SessionExpired tells the client its session is gone and disconnects it.
func (h *Hub) SessionExpired(ev game.ExpiredEvent) {
	h.SendToSession(ev.Token, map[string]interface{}{
		"type":    game.TypeSessionExpired,
		"reason":  ev.Reason,
		"message": ev.Message,
	})
	h.mu.RLock()
	client, ok := h.clients[ev.Token]
	h.mu.RUnlock()
	if ok {
		// Let the write pump flush the notice before the socket goes away.
		time.AfterFunc(time.Second, func() { client.conn.Close() })
	}
}

// Connected reports whether the session has a live client.
func (h *Hub) Connected(token string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[token]
	return ok
}

// ClientPort plays sounds and haptics by asking the client to do it.
type ClientPort struct {
	hub   *Hub
	token string
}

// Play sends the sound name only; the client has the same four buffers.
func (p *ClientPort) Play(kind audio.SoundKind, _ []int16) error {
	if !kind.Valid() {
		return audio.ErrUnknownSound
	}
	p.hub.SendToSession(p.token, soundMessage{Type: "sound", Kind: kind.String()})
	return nil
}

func (p *ClientPort) Vibrate(d time.Duration) {
	p.hub.SendToSession(p.token, hapticMessage{Type: "haptic", MS: d.Milliseconds()})
}

// run owns registration. A new connection for a session replaces the old one.
func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if old, exists := h.clients[client.token]; exists {
				log.Printf("[WS] Session %s reconnecting - closing old connection", client.token)
				if err := old.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replaced by new connection"), time.Now().Add(5*time.Second)); err != nil {
					log.Printf("[WS] Error writing close control to old client of %s: %v", old.token, err)
				}
				old.conn.Close()
				close(old.send)
			}
			h.clients[client.token] = client
			h.mu.Unlock()
			log.Printf("[WS] Player %d connected to session %s", client.playerID, client.token)

		case client := <-h.unregister:
			h.mu.Lock()
			if cur, ok := h.clients[client.token]; ok && cur == client {
				delete(h.clients, client.token)
				close(client.send)
				log.Printf("[WS] Player %d disconnected from session %s", client.playerID, client.token)
			}
			h.mu.Unlock()
		}
	}
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
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
				log.Printf("[WS] write error for session %s: %v", c.token, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] ping error for session %s: %v", c.token, err)
				return
			}
		}
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(hub *Hub, message string) {
	hub.SendToSession(c.token, map[string]interface{}{
		"type":    "error",
		"message": message,
	})
}
