// internal/room/store.go
package room

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Store holds the live rooms of this process.
type Store struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

func NewStore() *Store {
	return &Store{rooms: make(map[string]*Room)}
}

// GetOrAdd returns the room under id, creating it with create if missing.
func (s *Store) GetOrAdd(id string, create func() *Room) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[id]; ok {
		return r
	}
	r := create()
	s.rooms[id] = r
	log.Debugf("RoomStore: added room %s", id)
	return r
}

func (s *Store) Get(id string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	return r, ok
}

// Delete drops room only if it is still the instance stored under its id.
func (s *Store) Delete(r *Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.rooms[r.ID]; ok && cur == r {
		delete(s.rooms, r.ID)
		log.Debugf("RoomStore: deleted room %s", r.ID)
	}
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}
