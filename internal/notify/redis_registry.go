package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"convivio/api/internal/util"
)

// RedisRegistry implements Notifier by registering reminder payloads in Redis
// under opaque tokens. A delivery worker (out of scope here) polls the
// registry; cancellation is a plain delete, so it is naturally idempotent.
type RedisRegistry struct {
	client *redis.Client
	prefix string
	grace  time.Duration
}

// NewRedisRegistry connects to Redis and verifies the connection. grace
// extends each entry's TTL past its fire time so slow consumers still see it.
func NewRedisRegistry(redisURL string, grace time.Duration) (*RedisRegistry, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisRegistryWithClient(client, grace), nil
}

// NewRedisRegistryWithClient builds a registry from an existing client.
func NewRedisRegistryWithClient(client *redis.Client, grace time.Duration) *RedisRegistry {
	if grace <= 0 {
		grace = time.Hour
	}
	return &RedisRegistry{
		client: client,
		prefix: "reminder:",
		grace:  grace,
	}
}

func (r *RedisRegistry) key(token string) string {
	return r.prefix + token
}

// RequestPermission reports whether the registry is reachable. A registry
// that cannot be pinged behaves like a denied permission: nothing gets
// scheduled.
func (r *RedisRegistry) RequestPermission(ctx context.Context) (bool, error) {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return false, nil
	}
	return true, nil
}

// ScheduleReminder registers the payload and returns the token identifying it.
func (r *RedisRegistry) ScheduleReminder(ctx context.Context, at time.Time, reminder Reminder) (string, error) {
	reminder.At = at
	payload, err := json.Marshal(reminder)
	if err != nil {
		return "", fmt.Errorf("marshal reminder: %w", err)
	}

	ttl := time.Until(at) + r.grace
	if ttl <= 0 {
		ttl = r.grace
	}

	token := util.NewID("rmd")
	if err := r.client.Set(ctx, r.key(token), payload, ttl).Err(); err != nil {
		return "", fmt.Errorf("register reminder: %w", err)
	}
	return token, nil
}

// CancelReminder removes the token's payload. Unknown tokens are fine.
func (r *RedisRegistry) CancelReminder(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, r.key(token)).Err(); err != nil {
		return fmt.Errorf("cancel reminder: %w", err)
	}
	return nil
}

// Lookup returns the payload registered under a token, for inspection and
// tests.
func (r *RedisRegistry) Lookup(ctx context.Context, token string) (Reminder, error) {
	raw, err := r.client.Get(ctx, r.key(token)).Result()
	if err == redis.Nil {
		return Reminder{}, fmt.Errorf("reminder not found")
	}
	if err != nil {
		return Reminder{}, fmt.Errorf("lookup reminder: %w", err)
	}
	var reminder Reminder
	if err := json.Unmarshal([]byte(raw), &reminder); err != nil {
		return Reminder{}, fmt.Errorf("unmarshal reminder: %w", err)
	}
	return reminder, nil
}

// Close closes the Redis connection.
func (r *RedisRegistry) Close() error {
	return r.client.Close()
}

// Ping checks if Redis is reachable.
func (r *RedisRegistry) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
