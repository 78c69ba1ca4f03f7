package historian

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/judgement/internal/cache"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanSource struct {
	ch chan []byte
}

func (s *chanSource) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	select {
	case data := <-s.ch:
		return data, nil
	case <-time.After(timeout):
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type memorySink struct {
	mu      sync.Mutex
	batches [][]cache.ActionRecord
	fail    bool
}

func (s *memorySink) Insert(_ context.Context, records []cache.ActionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("db down")
	}
	s.batches = append(s.batches, records)
	return nil
}

func (s *memorySink) snapshot() [][]cache.ActionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]cache.ActionRecord(nil), s.batches...)
}

func record(t *testing.T, gameID uuid.UUID, index int) []byte {
	data, err := json.Marshal(cache.ActionRecord{
		GameID:      gameID,
		RoomID:      "ABCD",
		ActionIndex: index,
		ActorID:     uuid.New(),
		ActionType:  "PLAY_CARD",
		Payload:     json.RawMessage(`{"card":"S5"}`),
		Timestamp:   time.Now().UnixMilli(),
	})
	require.NoError(t, err)
	return data
}

func newService(src Source, sink Sink, batch int, flush time.Duration) *Service {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	s := New(src, sink, batch, flush, logger)
	s.PopTimeout = 10 * time.Millisecond
	return s
}

func TestFlushOnBatchSize(t *testing.T) {
	src := &chanSource{ch: make(chan []byte, 8)}
	sink := &memorySink{}
	svc := newService(src, sink, 3, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- svc.Run(ctx) }()

	gameID := uuid.New()
	for i := 0; i < 3; i++ {
		src.ch <- record(t, gameID, i)
	}
	assert.Eventually(t, func() bool { return len(sink.snapshot()) == 1 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	batches := sink.snapshot()
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 3)
	assert.Equal(t, gameID, batches[0][2].GameID)
	assert.Equal(t, 2, batches[0][2].ActionIndex)
	assert.JSONEq(t, `{"card":"S5"}`, string(batches[0][0].Payload))
}

func TestFlushOnInterval(t *testing.T) {
	src := &chanSource{ch: make(chan []byte, 8)}
	sink := &memorySink{}
	svc := newService(src, sink, 100, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	src.ch <- record(t, uuid.New(), 0)
	assert.Eventually(t, func() bool {
		b := sink.snapshot()
		return len(b) == 1 && len(b[0]) == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestFlushOnShutdownAndSkipInvalid(t *testing.T) {
	src := &chanSource{ch: make(chan []byte, 8)}
	sink := &memorySink{}
	svc := newService(src, sink, 100, time.Hour)

	src.ch <- []byte(`not json`)
	src.ch <- record(t, uuid.New(), 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- svc.Run(ctx) }()

	assert.Eventually(t, func() bool { return len(src.ch) == 0 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	batches := sink.snapshot()
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 1)
}

func TestFailedFlushDropsBatch(t *testing.T) {
	sink := &memorySink{fail: true}
	svc := newService(&chanSource{ch: make(chan []byte)}, sink, 1, time.Hour)

	svc.batch = append(svc.batch, cache.ActionRecord{GameID: uuid.New()})
	svc.flush(context.Background())
	assert.Empty(t, svc.batch)
	assert.Empty(t, sink.snapshot())
}
