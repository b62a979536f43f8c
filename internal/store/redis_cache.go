package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/playmatatu/paperball/internal/models"
	"github.com/redis/go-redis/v9"
)

const ProfileTTL = time.Hour

// RedisCache is a read-through profile cache in front of another Store.
// Redis failures are logged and fall through to the wrapped store.
type RedisCache struct {
	Store
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(inner Store, rdb *redis.Client) *RedisCache {
	return &RedisCache{Store: inner, rdb: rdb, ttl: ProfileTTL}
}

func ProfileKey(playerID int) string {
	return fmt.Sprintf("profile:%d", playerID)
}

func (c *RedisCache) LoadProfile(ctx context.Context, playerID int) (*models.Profile, error) {
	key := ProfileKey(playerID)
	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p models.Profile
		if jerr := json.Unmarshal(raw, &p); jerr == nil {
			return &p, nil
		}
		log.Printf("[REDIS] dropping corrupt cached profile %s", key)
		c.rdb.Del(ctx, key)
	case !errors.Is(err, redis.Nil):
		log.Printf("[REDIS] profile cache read failed for %s: %v", key, err)
	}

	p, err := c.Store.LoadProfile(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if b, jerr := json.Marshal(p); jerr == nil {
		if serr := c.rdb.SetEx(ctx, key, b, c.ttl).Err(); serr != nil {
			log.Printf("[REDIS] profile cache write failed for %s: %v", key, serr)
		}
	}
	return p, nil
}

func (c *RedisCache) SaveProfile(ctx context.Context, profile *models.Profile) error {
	if err := c.Store.SaveProfile(ctx, profile); err != nil {
		return err
	}
	if err := c.rdb.Del(ctx, ProfileKey(profile.PlayerID)).Err(); err != nil {
		log.Printf("[REDIS] profile cache invalidate failed for player %d: %v", profile.PlayerID, err)
	}
	return nil
}
