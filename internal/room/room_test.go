package room

import (
	"encoding/json"
	"testing"

	"github.com/jason-s-yu/judgement/internal/broadcast"
	"github.com/jason-s-yu/judgement/internal/connection"
	"github.com/jason-s-yu/judgement/internal/database"
	"github.com/jason-s-yu/judgement/internal/game"
	"github.com/jason-s-yu/judgement/internal/game/judgement"
	"github.com/jason-s-yu/judgement/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startedRoom seats n players, confirms Judgement and starts it.
func startedRoom(t *testing.T, h *harness, n int) (string, []*connection.Conn) {
	code, err := h.mgr.CreateRoom(h.ctx)
	require.NoError(t, err)
	conns := make([]*connection.Conn, n)
	for i := range conns {
		conns[i] = h.connect("p")
		h.join(conns[i], code)
	}
	h.send(conns[0], EventSetGame, map[string]string{"gameName": "JUDGEMENT"})
	h.send(conns[0], EventConfirmGame, nil)
	h.send(conns[0], EventStartGame, nil)
	for _, c := range conns {
		require.Empty(t, errorsIn(drain(c)))
	}
	return code, conns
}

func TestJoinUnknownRoom(t *testing.T) {
	h := newHarness(t)
	c := h.connect("ada")
	h.join(c, "NOPE")
	assert.Equal(t, []string{ErrRoomNotFound.Error()}, errorsIn(drain(c)))
}

func TestJoinBroadcastsRosterAndRoom(t *testing.T) {
	h := newHarness(t)
	code, err := h.mgr.CreateRoom(h.ctx)
	require.NoError(t, err)
	a := h.connect("ada")
	b := h.connect("bob")
	h.join(a, code)
	h.join(b, code)

	msgs := drain(a)
	players := lastOf(msgs, broadcast.TypePlayers)
	require.NotNil(t, players)
	var roster []PlayerInfo
	require.NoError(t, json.Unmarshal(players.Data, &roster))
	require.Len(t, roster, 2)
	assert.Equal(t, "ada", *roster[0].Name)
	assert.Equal(t, "bob", *roster[1].Name)

	roomMsg := lastOf(msgs, broadcast.TypeRoom)
	require.NotNil(t, roomMsg)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(roomMsg.Data, &snap))
	assert.Equal(t, code, snap.ID)
	assert.Equal(t, models.RoomLobby, snap.Status)
	assert.Nil(t, snap.Game)
}

func TestMalformedMessages(t *testing.T) {
	h := newHarness(t)
	c := h.connect("ada")

	h.mgr.HandleMessage(h.ctx, c, []byte(`{not json`))
	h.send(c, "dance", nil)
	h.send(c, EventJoinRoom, map[string]string{})
	h.send(c, EventStartGame, nil)

	errs := errorsIn(drain(c))
	require.Len(t, errs, 4)
	assert.Contains(t, errs[1], "unknown event type")
	assert.Equal(t, ErrNotInRoom.Error(), errs[3])
}

func TestGameLifecycleGuards(t *testing.T) {
	h := newHarness(t)
	code, err := h.mgr.CreateRoom(h.ctx)
	require.NoError(t, err)
	a := h.connect("ada")
	h.join(a, code)
	drain(a)

	h.send(a, EventConfirmGame, nil)
	h.send(a, EventStartGame, nil)
	h.send(a, EventSetGame, map[string]string{"gameName": "POKER"})
	assert.Equal(t, []string{
		ErrNoGameSelected.Error(),
		ErrNoActiveGame.Error(),
		ErrUnknownGame.Error() + ": POKER",
	}, errorsIn(drain(a)))

	h.send(a, EventSetGame, map[string]string{"gameName": "JUDGEMENT"})
	h.send(a, EventConfirmGame, nil)
	require.Empty(t, errorsIn(drain(a)))

	h.send(a, EventSetGame, map[string]string{"gameName": "JUDGEMENT"})
	h.send(a, EventConfirmGame, nil)
	h.send(a, EventStartGame, nil)
	errs := errorsIn(drain(a))
	require.Len(t, errs, 3)
	assert.Equal(t, database.ErrRoomNotInLobby.Error(), errs[0])
	assert.Equal(t, ErrGameAlreadyChosen.Error(), errs[1])
	assert.Contains(t, errs[2], "at least 2 players")

	rec, err := h.dir.GetRoom(h.ctx, code)
	require.NoError(t, err)
	assert.Equal(t, models.RoomGame, rec.Status)
}

func TestWrongTurnErrorOnlyReachesActor(t *testing.T) {
	h := newHarness(t)
	_, conns := startedRoom(t, h, 3)

	h.send(conns[1], EventGameInput, map[string]any{"actionType": "BID_HANDS", "numHands": 0})
	assert.Equal(t, []string{game.ErrNotYourTurn.Error()}, errorsIn(drain(conns[1])))
	assert.Empty(t, drain(conns[0]), "rejections are not broadcast")
	assert.Empty(t, drain(conns[2]))

	h.send(conns[0], EventGameInput, map[string]any{"actionType": "BID_HANDS"})
	errs := errorsIn(drain(conns[0]))
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "JudgementAction")
}

func TestSnapshotsArePrivate(t *testing.T) {
	h := newHarness(t)
	_, conns := startedRoom(t, h, 2)
	h.send(conns[0], EventGameInput, map[string]any{"actionType": "BID_HANDS", "numHands": 0})

	a := gameState(t, conns[0])
	b := gameState(t, conns[1])
	require.NotNil(t, a.PlayerState)
	require.NotNil(t, b.PlayerState)
	assert.NotEqual(t, a.PlayerState.Hand, b.PlayerState.Hand)
	assert.Equal(t, 0, *a.PlayerState.CurrentBid)
	assert.Nil(t, b.PlayerState.CurrentBid)
}

func TestLateJoinerSpectatesAndMayLeave(t *testing.T) {
	h := newHarness(t)
	code, conns := startedRoom(t, h, 2)

	late := h.connect("late")
	h.join(late, code)
	s := gameState(t, late)
	assert.Equal(t, game.Spectator, s.PlayerType)
	assert.Nil(t, s.PlayerState)
	assert.NotContains(t, s.OrderedPlayerIDs, late.PlayerID)

	h.send(conns[0], EventLeaveRoom, map[string]string{"roomId": code})
	errs := errorsIn(drain(conns[0]))
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "cannot leave")

	h.send(late, EventLeaveRoom, map[string]string{"roomId": code})
	assert.Empty(t, errorsIn(drain(late)))
	members, err := h.dir.GetRoomMembers(h.ctx, code)
	require.NoError(t, err)
	assert.NotContains(t, members, late.PlayerID)
	_, inRoom := h.mgr.Conns.RoomFor(late.ID)
	assert.False(t, inRoom)
}

func TestLastLeaveDeletesRoom(t *testing.T) {
	h := newHarness(t)
	code, err := h.mgr.CreateRoom(h.ctx)
	require.NoError(t, err)
	a := h.connect("ada")
	b := h.connect("bob")
	h.join(a, code)
	h.join(b, code)

	h.send(a, EventLeaveRoom, map[string]string{"roomId": code})
	h.send(b, EventLeaveRoom, map[string]string{"roomId": code})
	assert.Empty(t, errorsIn(drain(a)))
	assert.Empty(t, errorsIn(drain(b)))

	exists, err := h.dir.RoomExists(h.ctx, code)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, 0, h.mgr.rooms.Len())

	h.join(a, code)
	assert.Equal(t, []string{ErrRoomNotFound.Error()}, errorsIn(drain(a)))
}

func TestLeaveRequiresBeingInRoom(t *testing.T) {
	h := newHarness(t)
	code, err := h.mgr.CreateRoom(h.ctx)
	require.NoError(t, err)
	a := h.connect("ada")
	h.send(a, EventLeaveRoom, map[string]string{"roomId": code})
	assert.Equal(t, []string{ErrNotInRoom.Error()}, errorsIn(drain(a)))
}

func TestMultipleTabsAndDisconnect(t *testing.T) {
	h := newHarness(t)
	code, err := h.mgr.CreateRoom(h.ctx)
	require.NoError(t, err)
	tab1 := h.connect("ada")
	tab2 := h.connectAs(tab1.PlayerID)
	other := h.connectAs(tab1.PlayerID)
	h.join(tab1, code)
	h.join(tab2, code)
	drain(tab1)
	drain(tab2)

	members, err := h.dir.GetRoomMembers(h.ctx, code)
	require.NoError(t, err)
	assert.Len(t, members, 1, "two tabs are one member")

	h.mgr.Disconnect(tab1)
	bob := h.connect("bob")
	h.join(bob, code)
	assert.NotNil(t, lastOf(drain(tab2), broadcast.TypeRoom), "surviving tab keeps receiving")
	assert.Empty(t, drain(other), "tab outside the room gets nothing")

	members, err = h.dir.GetRoomMembers(h.ctx, code)
	require.NoError(t, err)
	assert.Contains(t, members, tab1.PlayerID, "disconnect keeps membership")
}

func TestRenamePropagates(t *testing.T) {
	h := newHarness(t)
	code, err := h.mgr.CreateRoom(h.ctx)
	require.NoError(t, err)
	a := h.connect("ada")
	b := h.connect("bob")
	h.join(a, code)
	h.join(b, code)
	drain(b)

	require.NoError(t, h.mgr.RenamePlayer(h.ctx, a.PlayerID, "grace"))
	msg := lastOf(drain(b), broadcast.TypePlayers)
	require.NotNil(t, msg)
	var roster []PlayerInfo
	require.NoError(t, json.Unmarshal(msg.Data, &roster))
	assert.Equal(t, "grace", *roster[0].Name)
}

func TestPublicSnapshotHidesHands(t *testing.T) {
	h := newHarness(t)
	code, _ := startedRoom(t, h, 2)

	snap, err := h.mgr.PublicSnapshot(h.ctx, code)
	require.NoError(t, err)
	view := snap.Game.(judgement.Snapshot)
	assert.Nil(t, view.PlayerState)
	assert.Equal(t, game.StatusInProgress, view.Status)

	_, err = h.mgr.PublicSnapshot(h.ctx, "NONE")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}
