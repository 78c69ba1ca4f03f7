// Package historian drains the action queue into Postgres in batches.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/judgement/internal/cache"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Source yields raw action records. Pop returns nil data when nothing
// arrived within timeout.
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) ([]byte, error)
}

// Sink persists a batch of records atomically.
type Sink interface {
	Insert(ctx context.Context, records []cache.ActionRecord) error
}

// RedisSource BLPops records off a Redis list.
type RedisSource struct {
	Client *redis.Client
	Queue  string
}

func (s *RedisSource) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	res, err := s.Client.BLPop(ctx, timeout, s.Queue).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// res[0] is the queue name, res[1] the payload.
	if len(res) < 2 {
		return nil, nil
	}
	return []byte(res[1]), nil
}

// PostgresSink writes batches into game_actions.
type PostgresSink struct {
	DB *pgxpool.Pool
}

func (s *PostgresSink) Insert(ctx context.Context, records []cache.ActionRecord) error {
	return pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range records {
			payload := rec.Payload
			if len(payload) == 0 {
				payload = json.RawMessage(`{}`)
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO game_actions (game_id, action_index, room_id, actor_id, action_type, payload, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (game_id, action_index) DO NOTHING
			`, rec.GameID, rec.ActionIndex, rec.RoomID, rec.ActorID, rec.ActionType, payload, time.UnixMilli(rec.Timestamp))
			if err != nil {
				return fmt.Errorf("insert action %s/%d: %w", rec.GameID, rec.ActionIndex, err)
			}
		}
		return nil
	})
}

// Service batches records from Source and flushes them to Sink when the
// batch fills or the flush interval elapses.
type Service struct {
	Source     Source
	Sink       Sink
	BatchSize  int
	FlushEvery time.Duration
	PopTimeout time.Duration
	Logger     *logrus.Logger

	batch []cache.ActionRecord
}

func New(source Source, sink Sink, batchSize int, flushEvery time.Duration, logger *logrus.Logger) *Service {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Service{
		Source:     source,
		Sink:       sink,
		BatchSize:  batchSize,
		FlushEvery: flushEvery,
		PopTimeout: 3 * time.Second,
		Logger:     logger,
		batch:      make([]cache.ActionRecord, 0, batchSize),
	}
}

// Run consumes until ctx is cancelled, then flushes what it holds.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.FlushEvery)
	defer ticker.Stop()

	s.Logger.Info("historian started")
	for {
		select {
		case <-ctx.Done():
			s.flush(context.Background())
			s.Logger.Info("historian stopped")
			return nil
		case <-ticker.C:
			s.flush(ctx)
		default:
		}

		data, err := s.Source.Pop(ctx, s.PopTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			s.Logger.WithError(err).Error("pop action")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}
		if data == nil {
			continue
		}

		var rec cache.ActionRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			s.Logger.WithError(err).Warn("invalid action record")
			continue
		}
		s.batch = append(s.batch, rec)
		if len(s.batch) >= s.BatchSize {
			s.flush(ctx)
		}
	}
}

// flush writes the pending batch. A failed batch is logged and dropped.
func (s *Service) flush(ctx context.Context) {
	if len(s.batch) == 0 {
		return
	}
	records := make([]cache.ActionRecord, len(s.batch))
	copy(records, s.batch)
	s.batch = s.batch[:0]

	if err := s.Sink.Insert(ctx, records); err != nil {
		s.Logger.WithError(err).Errorf("flush %d actions", len(records))
		return
	}
	s.Logger.Debugf("flushed %d actions", len(records))
}
