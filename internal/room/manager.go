// internal/room/manager.go
package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/judgement/internal/broadcast"
	"github.com/jason-s-yu/judgement/internal/cache"
	"github.com/jason-s-yu/judgement/internal/connection"
	"github.com/jason-s-yu/judgement/internal/database"
	"github.com/jason-s-yu/judgement/internal/game"
	"github.com/jason-s-yu/judgement/internal/game/judgement"
	"github.com/jason-s-yu/judgement/internal/models"
	"github.com/sirupsen/logrus"
)

// GameFactory builds a fresh game instance for a ruleset.
type GameFactory func(name game.Name) (game.Game, error)

// DefaultGameFactory builds the rulesets shipped with the server.
func DefaultGameFactory(name game.Name) (game.Game, error) {
	switch name {
	case game.Judgement:
		return judgement.New(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownGame, name)
}

// Manager routes client events to rooms and broadcasts the results.
type Manager struct {
	Dir     database.Directory
	Conns   *connection.Registry
	Router  *broadcast.Router
	Actions cache.ActionLog
	Games   GameFactory
	Logger  *logrus.Logger

	rooms *Store
}

// NewManager wires a manager. Nil actions and games fall back to defaults.
func NewManager(dir database.Directory, conns *connection.Registry, actions cache.ActionLog, games GameFactory, logger *logrus.Logger) *Manager {
	if actions == nil {
		actions = cache.NopActionLog{}
	}
	if games == nil {
		games = DefaultGameFactory
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Manager{
		Dir:     dir,
		Conns:   conns,
		Router:  broadcast.NewRouter(conns),
		Actions: actions,
		Games:   games,
		Logger:  logger,
		rooms:   NewStore(),
	}
}

// CreateRoom allocates a new room code in the directory.
func (m *Manager) CreateRoom(ctx context.Context) (string, error) {
	code, err := m.Dir.CreateRoom(ctx)
	if err != nil {
		return "", fmt.Errorf("create room: %w", err)
	}
	m.rooms.GetOrAdd(code, func() *Room { return &Room{ID: code} })
	m.Logger.WithField("room", code).Info("room created")
	return code, nil
}

// Connect registers a freshly opened connection.
func (m *Manager) Connect(conn *connection.Conn) {
	m.Conns.Register(conn)
}

// Disconnect forgets conn. Player and room records are kept.
func (m *Manager) Disconnect(conn *connection.Conn) {
	room, err := m.Conns.Unregister(conn.ID)
	if err != nil {
		return
	}
	m.Logger.WithFields(logrus.Fields{"conn": conn.ID, "player": conn.PlayerID, "room": room}).Debug("connection closed")
}

// room returns the live room for code, loading it if the directory knows it.
func (m *Manager) room(ctx context.Context, code string) (*Room, error) {
	if r, ok := m.rooms.Get(code); ok {
		return r, nil
	}
	exists, err := m.Dir.RoomExists(ctx, code)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrRoomNotFound
	}
	return m.rooms.GetOrAdd(code, func() *Room { return &Room{ID: code} }), nil
}

// lockRoom locks code's room and verifies it was not deleted meanwhile.
func (m *Manager) lockRoom(ctx context.Context, code string) (*Room, error) {
	r, err := m.room(ctx, code)
	if err != nil {
		return nil, err
	}
	r.Mu.Lock()
	if r.closed {
		r.Mu.Unlock()
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// currentRoom locks the room conn is attached to.
func (m *Manager) currentRoom(ctx context.Context, conn *connection.Conn) (*Room, error) {
	code, ok := m.Conns.RoomFor(conn.ID)
	if !ok {
		return nil, ErrNotInRoom
	}
	return m.lockRoom(ctx, code)
}

// JoinRoom adds conn's player to the room and attaches conn to it.
func (m *Manager) JoinRoom(ctx context.Context, conn *connection.Conn, code string) error {
	r, err := m.lockRoom(ctx, code)
	if err != nil {
		return err
	}
	defer r.Mu.Unlock()

	if err := m.Dir.AddMember(ctx, code, conn.PlayerID); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	if err := m.Conns.AssignRoom(conn.ID, code); err != nil {
		return err
	}
	role := ""
	if r.Game != nil {
		role = string(r.Game.AddPlayer(conn.PlayerID))
	}
	m.Logger.WithFields(logrus.Fields{"room": code, "player": conn.PlayerID, "role": role}).Info("player joined room")

	m.broadcastRoomUnsafe(ctx, r, r.Game != nil)
	return nil
}

// LeaveRoom removes conn's player from the room. Every connection of the
// player in that room is detached. The room is deleted when it empties.
func (m *Manager) LeaveRoom(ctx context.Context, conn *connection.Conn, code string) error {
	if cur, ok := m.Conns.RoomFor(conn.ID); !ok || cur != code {
		return ErrNotInRoom
	}
	r, err := m.lockRoom(ctx, code)
	if err != nil {
		return err
	}
	defer r.Mu.Unlock()

	if r.Game != nil {
		if _, err := r.Game.RemovePlayer(conn.PlayerID); err != nil && !errors.Is(err, game.ErrPlayerNotFound) {
			return err
		}
	}
	if err := m.Dir.RemoveMember(ctx, code, conn.PlayerID); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	for _, c := range m.Conns.ForPlayerInRoom(conn.PlayerID, code) {
		_, _ = m.Conns.LeaveRoom(c.ID)
	}
	m.Logger.WithFields(logrus.Fields{"room": code, "player": conn.PlayerID}).Info("player left room")

	members, err := m.Dir.GetRoomMembers(ctx, code)
	if err != nil {
		return fmt.Errorf("get members: %w", err)
	}
	if len(members) == 0 {
		return m.closeRoomUnsafe(ctx, r)
	}
	m.broadcastRoomUnsafe(ctx, r, r.Game != nil)
	return nil
}

// closeRoomUnsafe deletes an empty room. Caller holds r.Mu.
func (m *Manager) closeRoomUnsafe(ctx context.Context, r *Room) error {
	r.closed = true
	m.rooms.Delete(r)
	for _, c := range m.Conns.ForRoom(r.ID) {
		_, _ = m.Conns.LeaveRoom(c.ID)
	}
	if err := m.Dir.DeleteRoom(ctx, r.ID); err != nil && !errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("delete room: %w", err)
	}
	m.Logger.WithField("room", r.ID).Info("room closed")
	return nil
}

// SetGame selects the ruleset while the room is still in the lobby.
func (m *Manager) SetGame(ctx context.Context, conn *connection.Conn, name game.Name) error {
	if !name.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownGame, name)
	}
	r, err := m.currentRoom(ctx, conn)
	if err != nil {
		return err
	}
	defer r.Mu.Unlock()

	if err := m.Dir.SetRoomGame(ctx, r.ID, string(name)); err != nil {
		return err
	}
	m.broadcastRoomUnsafe(ctx, r, false)
	return nil
}

// ConfirmGame moves the room from LOBBY to GAME and seats every member in join order.
func (m *Manager) ConfirmGame(ctx context.Context, conn *connection.Conn) error {
	r, err := m.currentRoom(ctx, conn)
	if err != nil {
		return err
	}
	defer r.Mu.Unlock()

	rec, err := m.Dir.GetRoom(ctx, r.ID)
	if err != nil {
		return err
	}
	if rec.Status != models.RoomLobby || r.Game != nil {
		return ErrGameAlreadyChosen
	}
	if rec.GameName == nil {
		return ErrNoGameSelected
	}

	g, err := m.Games(game.Name(*rec.GameName))
	if err != nil {
		return err
	}
	if err := m.Dir.SetRoomStatus(ctx, r.ID, models.RoomGame); err != nil {
		return err
	}
	for _, id := range rec.Members {
		g.AddPlayer(id)
	}
	r.Game = g
	r.actionIndex = 0
	m.Logger.WithFields(logrus.Fields{"room": r.ID, "game": g.ID(), "name": g.Name()}).Info("game initialized")

	m.broadcastRoomUnsafe(ctx, r, true)
	return nil
}

// StartGame starts the room's game.
func (m *Manager) StartGame(ctx context.Context, conn *connection.Conn) error {
	r, err := m.currentRoom(ctx, conn)
	if err != nil {
		return err
	}
	defer r.Mu.Unlock()

	if r.Game == nil {
		return ErrNoActiveGame
	}
	if err := r.Game.Start(); err != nil {
		return err
	}
	m.logActionUnsafe(r, conn.PlayerID, "START_GAME", nil)
	m.Logger.WithFields(logrus.Fields{"room": r.ID, "game": r.Game.ID()}).Info("game started")

	m.broadcastRoomUnsafe(ctx, r, true)
	return nil
}

// GameInput forwards an action payload to the room's game.
func (m *Manager) GameInput(ctx context.Context, conn *connection.Conn, payload json.RawMessage) error {
	r, err := m.currentRoom(ctx, conn)
	if err != nil {
		return err
	}
	defer r.Mu.Unlock()

	if r.Game == nil {
		return ErrNoActiveGame
	}
	action, err := r.Game.ProcessRawInput(conn.PlayerID, payload)
	if err != nil {
		return err
	}
	m.logActionUnsafe(r, conn.PlayerID, action.ActionType(), payload)
	if r.Game.Status() == game.StatusComplete {
		m.Logger.WithFields(logrus.Fields{"room": r.ID, "game": r.Game.ID()}).Info("game complete")
	}

	m.broadcastRoomUnsafe(ctx, r, true)
	return nil
}

// RenamePlayer updates a player's name and refreshes every room they are connected to.
func (m *Manager) RenamePlayer(ctx context.Context, playerID uuid.UUID, name string) error {
	if err := m.Dir.SetPlayerName(ctx, playerID, name); err != nil {
		return err
	}
	rooms := make(map[string]struct{})
	for _, c := range m.Conns.ForPlayer(playerID) {
		if code, ok := m.Conns.RoomFor(c.ID); ok {
			rooms[code] = struct{}{}
		}
	}
	for code := range rooms {
		r, err := m.lockRoom(ctx, code)
		if err != nil {
			continue
		}
		m.broadcastRoomUnsafe(ctx, r, false)
		r.Mu.Unlock()
	}
	return nil
}

// PublicSnapshot returns the room as seen by a non-member.
func (m *Manager) PublicSnapshot(ctx context.Context, code string) (*Snapshot, error) {
	r, err := m.lockRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	defer r.Mu.Unlock()

	snap, err := m.baseSnapshotUnsafe(ctx, r)
	if err != nil {
		return nil, err
	}
	if r.Game != nil {
		snap.Game = r.Game.BuildSnapshots([]uuid.UUID{uuid.Nil})[uuid.Nil]
	}
	return snap, nil
}

func (m *Manager) baseSnapshotUnsafe(ctx context.Context, r *Room) (*Snapshot, error) {
	rec, err := m.Dir.GetRoom(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	players, err := m.Dir.GetPlayers(ctx, rec.Members)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		ID:               rec.ID,
		Status:           rec.Status,
		GameName:         rec.GameName,
		OrderedPlayerIDs: rec.Members,
		Players:          orderedRoster(rec.Members, players),
	}, nil
}

// broadcastRoomUnsafe sends the roster to the room and a tailored room
// snapshot to each member. With gameChanged, each member also gets its
// game_state. Caller holds r.Mu.
func (m *Manager) broadcastRoomUnsafe(ctx context.Context, r *Room, gameChanged bool) {
	base, err := m.baseSnapshotUnsafe(ctx, r)
	if err != nil {
		m.Logger.WithError(err).WithField("room", r.ID).Error("failed to build room snapshot")
		return
	}

	var views map[uuid.UUID]any
	if r.Game != nil {
		views = r.Game.BuildSnapshots(base.OrderedPlayerIDs)
	}

	m.Router.ToRoom(r.ID, broadcast.Message{Type: broadcast.TypePlayers, Data: base.Players})
	for _, id := range base.OrderedPlayerIDs {
		snap := *base
		if views != nil {
			snap.Game = views[id]
		}
		m.Router.ToPlayerInRoom(id, r.ID, broadcast.Message{Type: broadcast.TypeRoom, Data: snap})
		if gameChanged && views != nil {
			m.Router.ToPlayerInRoom(id, r.ID, broadcast.Message{Type: broadcast.TypeGameState, Data: views[id]})
		}
	}
}

// logActionUnsafe publishes an accepted action to the action log without
// blocking the room. Caller holds r.Mu.
func (m *Manager) logActionUnsafe(r *Room, actorID uuid.UUID, actionType string, payload json.RawMessage) {
	r.actionIndex++
	if payload == nil {
		payload = json.RawMessage(`{}`)
	}
	record := cache.ActionRecord{
		GameID:      r.Game.ID(),
		RoomID:      r.ID,
		ActionIndex: r.actionIndex,
		ActorID:     actorID,
		ActionType:  actionType,
		Payload:     payload,
		Timestamp:   time.Now().UnixMilli(),
	}
	go func(rec cache.ActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := m.Actions.Publish(ctx, rec); err != nil {
			m.Logger.WithError(err).WithFields(logrus.Fields{"room": rec.RoomID, "index": rec.ActionIndex}).Warn("failed to publish game action")
		}
	}(record)
}
