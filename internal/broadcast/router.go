// Package broadcast fans outbound messages out to live connections.
package broadcast

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jason-s-yu/judgement/internal/connection"
	log "github.com/sirupsen/logrus"
)

// MessageType names an outbound event.
type MessageType string

const (
	TypeRoom         MessageType = "room"
	TypePlayers      MessageType = "players"
	TypeGameState    MessageType = "game_state"
	TypeInvalidInput MessageType = "invalid_input"
)

// Message is the envelope for every outbound event.
type Message struct {
	Type MessageType `json:"type"`
	Data any         `json:"data"`
}

// ErrorData is the payload of an invalid_input message.
type ErrorData struct {
	Message string          `json:"message"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Router resolves audiences through the connection registry.
type Router struct {
	Conns *connection.Registry
}

func NewRouter(conns *connection.Registry) *Router {
	return &Router{Conns: conns}
}

// ToRoom sends msg to every connection in room.
func (r *Router) ToRoom(room string, msg Message) int {
	return r.send(r.Conns.ForRoom(room), msg)
}

// ToPlayer sends msg to every connection of playerID.
func (r *Router) ToPlayer(playerID uuid.UUID, msg Message) int {
	return r.send(r.Conns.ForPlayer(playerID), msg)
}

// ToPlayerInRoom sends msg only to playerID's connections attached to room.
// Used for per-player views that must not reach other members.
func (r *Router) ToPlayerInRoom(playerID uuid.UUID, room string, msg Message) int {
	return r.send(r.Conns.ForPlayerInRoom(playerID, room), msg)
}

// ErrorTo notifies a single connection that its input was rejected.
func (r *Router) ErrorTo(conn *connection.Conn, err error, payload json.RawMessage) {
	r.send([]*connection.Conn{conn}, Message{
		Type: TypeInvalidInput,
		Data: ErrorData{Message: err.Error(), Payload: payload},
	})
}

// send marshals once and queues the bytes on each target without blocking.
func (r *Router) send(targets []*connection.Conn, msg Message) int {
	if len(targets) == 0 {
		return 0
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("broadcast: marshal %s message: %v", msg.Type, err)
		return 0
	}
	sent := 0
	for _, c := range targets {
		if c.Write(data) {
			sent++
		}
	}
	return sent
}
