// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list holding game action records.
const DefaultQueueName = "judgement_actions"

// ActionRecord is one accepted game action, consumed by the historian.
type ActionRecord struct {
	GameID      uuid.UUID       `json:"game_id"`
	RoomID      string          `json:"room_id"`
	ActionIndex int             `json:"action_index"`
	ActorID     uuid.UUID       `json:"actor_id"`
	ActionType  string          `json:"action_type"`
	Payload     json.RawMessage `json:"payload"`
	Timestamp   int64           `json:"timestamp"`
}

// ActionLog publishes action records.
type ActionLog interface {
	Publish(ctx context.Context, record ActionRecord) error
}

// Connect opens a Redis client and verifies it with a ping.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// RedisActionLog pushes records onto a Redis list.
type RedisActionLog struct {
	Client *redis.Client
	Queue  string
}

func NewRedisActionLog(client *redis.Client, queue string) *RedisActionLog {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &RedisActionLog{Client: client, Queue: queue}
}

// Publish serializes record and RPushes it onto the queue.
func (l *RedisActionLog) Publish(ctx context.Context, record ActionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal ActionRecord: %w", err)
	}
	if err := l.Client.RPush(ctx, l.Queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", l.Queue, err)
	}
	return nil
}

// NopActionLog discards every record.
type NopActionLog struct{}

func (NopActionLog) Publish(context.Context, ActionRecord) error { return nil }
