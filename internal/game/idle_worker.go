package game

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/playmatatu/paperball/internal/config"
	"github.com/redis/go-redis/v9"
)

// ExpiredEvent is published on EventsChannel when a session is ended for inactivity.
type ExpiredEvent struct {
	Type     string `json:"type"`
	Token    string `json:"token"`
	PlayerID int    `json:"player_id"`
	Reason   string `json:"reason"`
	Message  string `json:"message"`
}

const TypeSessionExpired = "session_expired"

// StartIdleWorker ends sessions whose idle deadline has passed. With Redis it
// polls the session_idle sorted set and announces expiries on session_events;
// without Redis it sweeps the manager's sessions by last activity.
func StartIdleWorker(ctx context.Context, m *SessionManager, rdb *redis.Client, cfg *config.Config) {
	if m == nil || cfg == nil {
		log.Println("[IDLE] Manager or config missing; idle worker not started")
		return
	}

	poll := time.Duration(cfg.IdleWorkerPollInterval) * time.Second
	if poll <= 0 {
		poll = 5 * time.Second
	}
	idle := time.Duration(cfg.SessionIdleSeconds) * time.Second

	log.Printf("[IDLE] Idle worker started (redis=%v, idle=%s)", rdb != nil, idle)
	go func() {
		ticker := time.NewTicker(poll)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[IDLE] Idle worker stopping")
				return
			case <-ticker.C:
				if rdb != nil {
					expireFromRedis(ctx, m, rdb)
				} else {
					m.ExpireIdle(idle, nil)
				}
			}
		}
	}()
}

func expireFromRedis(ctx context.Context, m *SessionManager, rdb *redis.Client) {
	now := time.Now().Unix()
	members, err := rdb.ZRangeByScore(ctx, IdleSetKey, &redis.ZRangeBy{Min: "-inf", Max: fmt.Sprintf("%d", now)}).Result()
	if err != nil {
		log.Printf("[IDLE] Failed to fetch idle sessions: %v", err)
		return
	}
	for _, token := range members {
		// Attempt to remove (race-safe)
		if removed, _ := rdb.ZRem(ctx, IdleSetKey, token).Result(); removed == 0 {
			continue
		}
		s, err := m.GetSession(token)
		if err != nil {
			continue
		}
		m.expire(s, func(ev ExpiredEvent) {
			b, _ := json.Marshal(ev)
			if n, err := rdb.Publish(ctx, EventsChannel, b).Result(); err != nil {
				log.Printf("[IDLE] publish expiry failed: session=%s err=%v", token, err)
			} else {
				log.Printf("[IDLE] published expiry: session=%s player=%d subscribers=%d", token, ev.PlayerID, n)
			}
		})
	}
}

// ExpireIdle ends every session inactive for longer than idle and passes
// each expiry to notify. It returns how many sessions were ended.
func (m *SessionManager) ExpireIdle(idle time.Duration, notify func(ExpiredEvent)) int {
	cutoff := time.Now().Add(-idle)
	n := 0
	for _, s := range m.Sessions() {
		if s.LastActive().After(cutoff) {
			continue
		}
		m.expire(s, notify)
		n++
	}
	return n
}

func (m *SessionManager) expire(s *Session, notify func(ExpiredEvent)) {
	log.Printf("[IDLE] Ending session %s for player %d due to inactivity", s.Token, s.PlayerID)
	if err := m.EndSession(s.Token); err != nil {
		return
	}
	ev := ExpiredEvent{
		Type:     TypeSessionExpired,
		Token:    s.Token,
		PlayerID: s.PlayerID,
		Reason:   "idle",
		Message:  "Session ended due to inactivity",
	}
	if notify != nil {
		notify(ev)
	} else if m.outlet != nil {
		if exp, ok := m.outlet.(interface{ SessionExpired(ExpiredEvent) }); ok {
			exp.SessionExpired(ev)
		}
	}
}
