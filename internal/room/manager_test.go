package room

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/judgement/internal/broadcast"
	"github.com/jason-s-yu/judgement/internal/cache"
	"github.com/jason-s-yu/judgement/internal/connection"
	"github.com/jason-s-yu/judgement/internal/database"
	"github.com/jason-s-yu/judgement/internal/game"
	"github.com/jason-s-yu/judgement/internal/game/judgement"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingLog collects published actions.
type recordingLog struct {
	mu      sync.Mutex
	records []cache.ActionRecord
}

func (l *recordingLog) Publish(_ context.Context, rec cache.ActionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	return nil
}

func (l *recordingLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

type received struct {
	Type broadcast.MessageType `json:"type"`
	Data json.RawMessage       `json:"data"`
}

type harness struct {
	t       *testing.T
	ctx     context.Context
	dir     *database.MemoryDirectory
	mgr     *Manager
	actions *recordingLog
}

func newHarness(t *testing.T) *harness {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	seeded := func(name game.Name) (game.Game, error) {
		if name != game.Judgement {
			return nil, ErrUnknownGame
		}
		return judgement.New(judgement.WithRand(rand.New(rand.NewSource(3)))), nil
	}
	h := &harness{t: t, ctx: context.Background(), dir: database.NewMemoryDirectory(), actions: &recordingLog{}}
	h.mgr = NewManager(h.dir, connection.NewRegistry(), h.actions, seeded, logger)
	return h
}

// connect creates a player and one open connection for it.
func (h *harness) connect(name string) *connection.Conn {
	id, err := h.dir.CreatePlayer(h.ctx, &name)
	require.NoError(h.t, err)
	return h.connectAs(id)
}

func (h *harness) connectAs(playerID uuid.UUID) *connection.Conn {
	c := connection.NewConn(playerID, 512, nil)
	h.mgr.Connect(c)
	return c
}

func (h *harness) send(c *connection.Conn, typ string, data any) {
	h.t.Helper()
	env := map[string]any{"type": typ}
	if data != nil {
		env["data"] = data
	}
	raw, err := json.Marshal(env)
	require.NoError(h.t, err)
	h.mgr.HandleMessage(h.ctx, c, raw)
}

func (h *harness) join(c *connection.Conn, code string) {
	h.send(c, EventJoinRoom, map[string]string{"roomId": code})
}

func drain(c *connection.Conn) []received {
	var out []received
	for {
		select {
		case data := <-c.OutChan:
			var r received
			_ = json.Unmarshal(data, &r)
			out = append(out, r)
		default:
			return out
		}
	}
}

func lastOf(msgs []received, typ broadcast.MessageType) *received {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == typ {
			return &msgs[i]
		}
	}
	return nil
}

func errorsIn(msgs []received) []string {
	var out []string
	for _, m := range msgs {
		if m.Type == broadcast.TypeInvalidInput {
			var e broadcast.ErrorData
			_ = json.Unmarshal(m.Data, &e)
			out = append(out, e.Message)
		}
	}
	return out
}

func gameState(t *testing.T, c *connection.Conn) judgement.Snapshot {
	t.Helper()
	msg := lastOf(drain(c), broadcast.TypeGameState)
	require.NotNil(t, msg, "expected a game_state message")
	var snap judgement.Snapshot
	require.NoError(t, json.Unmarshal(msg.Data, &snap))
	return snap
}

func TestEndToEndJudgement(t *testing.T) {
	h := newHarness(t)
	code, err := h.mgr.CreateRoom(h.ctx)
	require.NoError(t, err)

	conns := make([]*connection.Conn, 4)
	byPlayer := make(map[uuid.UUID]*connection.Conn)
	for i := range conns {
		conns[i] = h.connect(fmt.Sprintf("p%d", i))
		byPlayer[conns[i].PlayerID] = conns[i]
		h.join(conns[i], code)
	}
	h.send(conns[0], EventSetGame, map[string]string{"gameName": "JUDGEMENT"})
	h.send(conns[0], EventConfirmGame, nil)
	h.send(conns[2], EventStartGame, nil)

	var snaps []judgement.Snapshot
	for _, c := range conns {
		s := gameState(t, c)
		assert.Equal(t, judgement.PhaseBidding, s.Phase)
		require.NotNil(t, s.PlayerState)
		assert.Len(t, s.PlayerState.Hand, s.Settings.NumRounds)
		assert.Equal(t, 0, s.CurrentTurnIndex)
		snaps = append(snaps, s)
	}
	order := snaps[0].OrderedPlayerIDs
	require.Len(t, order, 4)
	assert.Equal(t, conns[0].PlayerID, order[0], "join order is turn order")

	for i := 0; i < 4; i++ {
		h.send(byPlayer[order[i]], EventGameInput, map[string]any{"actionType": "BID_HANDS", "numHands": 1})
	}
	state := publicState(t, h, code)
	assert.Equal(t, judgement.PhasePlaying, state.Phase)
	assert.Nil(t, state.PlayerState, "public view carries no hand")
	for _, c := range conns {
		assert.Empty(t, errorsIn(drain(c)))
	}

	for i := 0; i < 4; i++ {
		actor := byPlayer[order[state.CurrentTurnIndex]]
		card := pickLegal(t, h, code, actor, state)
		h.send(actor, EventGameInput, map[string]any{"actionType": "PLAY_CARD", "card": card})
		assert.Empty(t, errorsIn(drain(actor)))
		state = publicState(t, h, code)
	}

	won := 0
	for _, p := range state.Players {
		won += p.CurrentWonTricks
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, state.CurrentTrick)

	require.Eventually(t, func() bool { return h.actions.count() == 9 }, time.Second, 10*time.Millisecond)
}

func publicState(t *testing.T, h *harness, code string) judgement.Snapshot {
	t.Helper()
	snap, err := h.mgr.PublicSnapshot(h.ctx, code)
	require.NoError(t, err)
	view, ok := snap.Game.(judgement.Snapshot)
	require.True(t, ok)
	return view
}

// pickLegal reads the actor's hand straight from the game and picks a playable card.
func pickLegal(t *testing.T, h *harness, code string, actor *connection.Conn, state judgement.Snapshot) string {
	t.Helper()
	r, ok := h.mgr.rooms.Get(code)
	require.True(t, ok)
	r.Mu.Lock()
	view := r.Game.BuildSnapshots([]uuid.UUID{actor.PlayerID})[actor.PlayerID].(judgement.Snapshot)
	r.Mu.Unlock()

	hand := view.PlayerState.Hand
	require.NotEmpty(t, hand)
	if len(state.Pile) > 0 {
		led := state.Pile[0].Suit
		for _, c := range hand {
			if c.Suit == led {
				return c.String()
			}
		}
	}
	return hand[0].String()
}
