// internal/connection/registry.go
package connection

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/judgement/internal/multimap"
)

// ErrUnknownConnection is returned for connection ids that are not registered.
var ErrUnknownConnection = errors.New("unknown connection")

// Registry indexes live connections by player and by room.
type Registry struct {
	mu      sync.RWMutex
	conns   map[uuid.UUID]*Conn
	players *multimap.BiMultiMap[uuid.UUID, uuid.UUID]
	rooms   *multimap.BiMultiMap[string, uuid.UUID]
}

func NewRegistry() *Registry {
	return &Registry{
		conns:   make(map[uuid.UUID]*Conn),
		players: multimap.New[uuid.UUID, uuid.UUID](),
		rooms:   multimap.New[string, uuid.UUID](),
	}
}

// Register adds conn under its player. Other connections of the player are untouched.
func (r *Registry) Register(conn *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn.ID] = conn
	r.players.Put(conn.PlayerID, conn.ID)
}

// Unregister drops every index entry for connID and returns the room it was in.
func (r *Registry) Unregister(connID uuid.UUID) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[connID]; !ok {
		return "", ErrUnknownConnection
	}
	delete(r.conns, connID)
	_ = r.players.RemoveValue(connID)
	room, _ := r.rooms.KeyFor(connID)
	_ = r.rooms.RemoveValue(connID)
	return room, nil
}

// AssignRoom moves connID into room, leaving any previous room.
func (r *Registry) AssignRoom(connID uuid.UUID, room string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[connID]; !ok {
		return ErrUnknownConnection
	}
	r.rooms.Put(room, connID)
	return nil
}

// LeaveRoom detaches connID from its room, returning the room it left.
func (r *Registry) LeaveRoom(connID uuid.UUID) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms.KeyFor(connID)
	if !ok {
		return "", multimap.ErrNotFound
	}
	return room, r.rooms.RemoveValue(connID)
}

func (r *Registry) Get(connID uuid.UUID) (*Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[connID]
	return c, ok
}

func (r *Registry) PlayerFor(connID uuid.UUID) (uuid.UUID, bool) {
	return r.players.KeyFor(connID)
}

func (r *Registry) RoomFor(connID uuid.UUID) (string, bool) {
	return r.rooms.KeyFor(connID)
}

// ForPlayer returns every live connection of playerID.
func (r *Registry) ForPlayer(playerID uuid.UUID) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveUnsafe(r.players.ValuesFor(playerID))
}

// ForRoom returns every connection attached to room.
func (r *Registry) ForRoom(room string) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveUnsafe(r.rooms.ValuesFor(room))
}

// ForPlayerInRoom returns the connections of playerID that are attached to room.
func (r *Registry) ForPlayerInRoom(playerID uuid.UUID, room string) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Conn
	for _, id := range r.players.ValuesFor(playerID) {
		if k, ok := r.rooms.KeyFor(id); ok && k == room {
			if c, ok := r.conns[id]; ok {
				out = append(out, c)
			}
		}
	}
	return out
}

// PlayerInRoom reports whether playerID has any connection attached to room.
func (r *Registry) PlayerInRoom(playerID uuid.UUID, room string) bool {
	return len(r.ForPlayerInRoom(playerID, room)) > 0
}

// Count is the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) resolveUnsafe(ids []uuid.UUID) []*Conn {
	out := make([]*Conn, 0, len(ids))
	for _, id := range ids {
		if c, ok := r.conns[id]; ok {
			out = append(out, c)
		}
	}
	return out
}
