// internal/connection/conn.go
package connection

import (
	"encoding/json"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Conn is one live websocket. Its player never changes; its room may.
type Conn struct {
	ID       uuid.UUID
	PlayerID uuid.UUID
	Cancel   func()
	OutChan  chan []byte
}

// NewConn builds a connection for playerID with a buffered outbound queue.
func NewConn(playerID uuid.UUID, buffer int, cancel func()) *Conn {
	if cancel == nil {
		cancel = func() {}
	}
	return &Conn{
		ID:       uuid.New(),
		PlayerID: playerID,
		Cancel:   cancel,
		OutChan:  make(chan []byte, buffer),
	}
}

// Write queues data without blocking. When the buffer is full the message is
// dropped so a slow peer never stalls the room.
func (c *Conn) Write(data []byte) bool {
	select {
	case c.OutChan <- data:
		return true
	default:
		log.Warnf("connection %s (player %s): outbound queue full, dropping message", c.ID, c.PlayerID)
		return false
	}
}

// WriteJSON marshals v and queues it.
func (c *Conn) WriteJSON(v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		log.Errorf("connection %s: marshal outbound message: %v", c.ID, err)
		return false
	}
	return c.Write(data)
}
