package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores the payload under a per-session key that expires after TTL
type Redis struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// NewRedis creates a Redis store. sessionID scopes the key so several clients can share a server.
func NewRedis(client redis.UniversalClient, sessionID string, ttl time.Duration) *Redis {
	key := PendingKey
	if sessionID != "" {
		key = "session:" + sessionID + ":" + PendingKey
	}
	return &Redis{client: client, key: key, ttl: ttl}
}

// Key returns the redis key in use
func (r *Redis) Key() string { return r.key }

func (r *Redis) Load(ctx context.Context) (*Payload, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(data), nil
}

func (r *Redis) Save(ctx context.Context, p Payload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key, data, r.ttl).Err()
}

func (r *Redis) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}
