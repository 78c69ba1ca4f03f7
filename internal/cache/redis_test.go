package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestNewRedisActionLogDefaultsQueue(t *testing.T) {
	l := NewRedisActionLog(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), "")
	assert.Equal(t, DefaultQueueName, l.Queue)
}

func TestPublishSurfacesConnectionErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer client.Close()
	l := NewRedisActionLog(client, "test_queue")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := l.Publish(ctx, ActionRecord{GameID: uuid.New(), ActionType: "BID_HANDS"})
	assert.ErrorContains(t, err, "test_queue")
}

func TestNopActionLog(t *testing.T) {
	var l ActionLog = NopActionLog{}
	assert.NoError(t, l.Publish(context.Background(), ActionRecord{}))
}
