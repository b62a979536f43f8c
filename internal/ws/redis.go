package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/playmatatu/paperball/internal/game"
	"github.com/redis/go-redis/v9"
)

var rdbClient *redis.Client

func SetRedisClient(r *redis.Client) {
	rdbClient = r
}

// StartSessionEventSubscriber forwards session_events messages to connected clients.
func StartSessionEventSubscriber(ctx context.Context) {
	if rdbClient == nil {
		log.Println("[WS] Redis client not set; session event subscriber not started")
		return
	}

	pubsub := rdbClient.Subscribe(ctx, game.EventsChannel)
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		log.Printf("[WS] %s subscriber started", game.EventsChannel)
		for msg := range ch {
			handleSessionEvent(GameHub, []byte(msg.Payload))
		}
	}()
}

func handleSessionEvent(hub *Hub, payload []byte) {
	var ev game.ExpiredEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		log.Printf("[WS] invalid event payload: %v", err)
		return
	}

	switch ev.Type {
	case game.TypeSessionExpired:
		if !hub.Connected(ev.Token) {
			log.Printf("[WS] no client connected for session %s; expiry not forwarded", ev.Token)
			return
		}
		hub.SessionExpired(ev)
	default:
		log.Printf("[WS] unknown event type: %s", ev.Type)
	}
}
