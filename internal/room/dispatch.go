package room

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jason-s-yu/judgement/internal/connection"
	"github.com/jason-s-yu/judgement/internal/game"
	"github.com/sirupsen/logrus"
)

// Inbound event names.
const (
	EventJoinRoom    = "join_room"
	EventLeaveRoom   = "leave_room"
	EventSetGame     = "set_game"
	EventConfirmGame = "confirm_game"
	EventStartGame   = "start_game"
	EventGameInput   = "game_input"
)

// Envelope is the shape of every inbound client message.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type roomRequest struct {
	RoomID string `json:"roomId"`
}

type setGameRequest struct {
	GameName game.Name `json:"gameName"`
}

// HandleMessage decodes one client message and applies it. Rejections are
// reported to conn only; server faults are logged and reported generically.
func (m *Manager) HandleMessage(ctx context.Context, conn *connection.Conn, raw []byte) {
	var env Envelope
	err := json.Unmarshal(raw, &env)
	if err == nil {
		err = m.dispatch(ctx, conn, env)
	} else {
		err = fmt.Errorf("%w: %v", ErrBadEvent, err)
	}
	if err == nil {
		return
	}

	fields := logrus.Fields{"conn": conn.ID, "player": conn.PlayerID, "event": env.Type}
	if IsRejection(err) {
		m.Logger.WithFields(fields).WithError(err).Debug("event rejected")
		m.Router.ErrorTo(conn, err, env.Data)
		return
	}
	m.Logger.WithFields(fields).WithError(err).Error("event failed")
	m.Router.ErrorTo(conn, fmt.Errorf("internal server error"), env.Data)
}

func (m *Manager) dispatch(ctx context.Context, conn *connection.Conn, env Envelope) error {
	switch env.Type {
	case EventJoinRoom, EventLeaveRoom:
		var req roomRequest
		if err := decodeData(env.Data, &req); err != nil {
			return err
		}
		req.RoomID = strings.ToUpper(strings.TrimSpace(req.RoomID))
		if req.RoomID == "" {
			return fmt.Errorf("%w: roomId is required", ErrBadEvent)
		}
		if env.Type == EventJoinRoom {
			return m.JoinRoom(ctx, conn, req.RoomID)
		}
		return m.LeaveRoom(ctx, conn, req.RoomID)
	case EventSetGame:
		var req setGameRequest
		if err := decodeData(env.Data, &req); err != nil {
			return err
		}
		return m.SetGame(ctx, conn, req.GameName)
	case EventConfirmGame:
		return m.ConfirmGame(ctx, conn)
	case EventStartGame:
		return m.StartGame(ctx, conn)
	case EventGameInput:
		return m.GameInput(ctx, conn, env.Data)
	}
	return fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
}

func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", ErrBadEvent)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadEvent, err)
	}
	return nil
}
