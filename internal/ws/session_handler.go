package ws

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playmatatu/paperball/internal/game"
)

// Gesture message payloads
type PointData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type DeltaData struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// GameHub is the single hub for all sessions.
var GameHub *Hub

func init() {
	GameHub = NewHub()
	go GameHub.run()
}

// ServeSession upgrades the request and attaches the connection to the
// player's session. The caller has already authenticated playerID.
func ServeSession(c *gin.Context, token string, playerID int) {
	if game.Manager == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "game manager not ready"})
		return
	}
	s, err := game.Manager.GetSession(token)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if s.PlayerID != playerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "session belongs to another player"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] upgrade failed for session %s: %v", token, err)
		return
	}

	client := &Client{
		conn:     conn,
		playerID: playerID,
		token:    token,
		send:     make(chan []byte, sendBuffer),
	}
	GameHub.register <- client

	go client.writePump()
	GameHub.sendState(client.token, s)
	game.Manager.Touch(token)

	client.readPump(GameHub)
}

// readPump reads gestures until the connection drops.
func (c *Client) readPump(hub *Hub) {
	defer func() {
		hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessage)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] read error for session %s: %v", c.token, err)
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError(hub, "Invalid message format")
			continue
		}

		s, err := game.Manager.GetSession(c.token)
		if err != nil {
			c.sendError(hub, "Session has ended")
			return
		}
		game.Manager.Touch(c.token)
		hub.handleMessage(c, s, msg)
	}
}

func (h *Hub) handleMessage(c *Client, s *game.Session, msg WSMessage) {
	var err error
	switch msg.Type {
	case "drag_start":
		var p PointData
		if err = decode(msg.Data, &p); err == nil {
			err = s.DragStart(game.NewVec2(p.X, p.Y))
		}

	case "drag_move":
		var d DeltaData
		if err = decode(msg.Data, &d); err == nil {
			err = s.DragMove(game.NewVec2(d.DX, d.DY))
		}

	case "drag_end":
		err = s.DragEnd()

	case "move_cup":
		var p PointData
		if err = decode(msg.Data, &p); err == nil {
			err = s.MoveCup(game.NewVec2(p.X, p.Y))
		}

	case "set_preferences":
		// Fields left out of the payload keep their current value.
		prefs := s.Summary().Preferences
		if err = decode(msg.Data, &prefs); err == nil {
			err = s.SetPreferences(prefs)
		}
		if err == nil {
			h.sendState(c.token, s)
		}

	case "get_state":
		h.sendState(c.token, s)

	case "pause":
		err = s.Pause()

	case "resume":
		err = s.Resume()

	default:
		c.sendError(h, "Unknown message type")
		return
	}

	if err != nil {
		c.sendError(h, errorMessage(err))
	}
}

func (h *Hub) sendState(token string, s *game.Session) {
	h.SendToSession(token, map[string]interface{}{
		"type":     "state",
		"snapshot": s.Snapshot(),
		"summary":  s.Summary(),
	})
}

var errBadPayload = errors.New("invalid message data")

func decode(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return errBadPayload
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errBadPayload
	}
	return nil
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, game.ErrFlightActive):
		return "Shot in flight"
	case errors.Is(err, game.ErrCupLocked):
		return "Cup is locked"
	case errors.Is(err, game.ErrSessionClosed):
		return "Session has ended"
	default:
		return err.Error()
	}
}
