// Package presence tracks which users currently hold a live relay
// connection, as expiring per-user keys in Redis. Keys are refreshed from
// the connection's pong handler, so a crashed process leaks nothing beyond
// the TTL.
package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/Digital231/lastDance/internal/config"

	"github.com/redis/go-redis/v9"
)

type Tracker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

func NewTracker(client *redis.Client, ttl time.Duration) *Tracker {
	return &Tracker{client: client, ttl: ttl}
}

func userKey(userID int) string {
	return fmt.Sprintf("presence:user:%d", userID)
}

func (t *Tracker) Connect(ctx context.Context, userID int) error {
	return t.client.Set(ctx, userKey(userID), "1", t.ttl).Err()
}

func (t *Tracker) Heartbeat(ctx context.Context, userID int) error {
	return t.client.Set(ctx, userKey(userID), "1", t.ttl).Err()
}

func (t *Tracker) Disconnect(ctx context.Context, userID int) error {
	return t.client.Del(ctx, userKey(userID)).Err()
}

func (t *Tracker) IsOnline(ctx context.Context, userID int) (bool, error) {
	n, err := t.client.Exists(ctx, userKey(userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Online reports presence for a batch of users with one round trip.
func (t *Tracker) Online(ctx context.Context, userIDs []int) (map[int]bool, error) {
	pipe := t.client.Pipeline()
	cmds := make(map[int]*redis.IntCmd, len(userIDs))
	for _, id := range userIDs {
		cmds[id] = pipe.Exists(ctx, userKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	online := make(map[int]bool, len(userIDs))
	for id, cmd := range cmds {
		online[id] = cmd.Val() > 0
	}
	return online, nil
}
