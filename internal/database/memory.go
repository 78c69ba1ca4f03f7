// internal/database/memory.go
package database

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/judgement/internal/models"
)

// MemoryDirectory is a process-local Directory.
type MemoryDirectory struct {
	mu      sync.Mutex
	players map[uuid.UUID]*models.Player
	rooms   map[string]*models.Room
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		players: make(map[uuid.UUID]*models.Player),
		rooms:   make(map[string]*models.Room),
	}
}

func (d *MemoryDirectory) PlayerExists(_ context.Context, id uuid.UUID) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.players[id]
	return ok, nil
}

func (d *MemoryDirectory) GetPlayer(_ context.Context, id uuid.UUID) (*models.Player, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.players[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (d *MemoryDirectory) GetPlayers(_ context.Context, ids []uuid.UUID) ([]models.Player, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.Player, 0, len(ids))
	for _, id := range ids {
		if p, ok := d.players[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (d *MemoryDirectory) CreatePlayer(_ context.Context, name *string) (uuid.UUID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := uuid.New()
	p := &models.Player{ID: id}
	if name != nil {
		n := *name
		p.Name = &n
	}
	d.players[id] = p
	return id, nil
}

func (d *MemoryDirectory) SetPlayerName(_ context.Context, id uuid.UUID, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.players[id]
	if !ok {
		return ErrNotFound
	}
	p.Name = &name
	return nil
}

func (d *MemoryDirectory) RoomExists(_ context.Context, code string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.rooms[code]
	return ok, nil
}

func (d *MemoryDirectory) GetRoom(_ context.Context, code string) (*models.Room, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.rooms[code]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	cp.Members = slices.Clone(r.Members)
	return &cp, nil
}

func (d *MemoryDirectory) GetRoomMembers(_ context.Context, code string) ([]uuid.UUID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.rooms[code]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(r.Members), nil
}

func (d *MemoryDirectory) AddMember(_ context.Context, code string, playerID uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.rooms[code]
	if !ok {
		return ErrNotFound
	}
	if _, ok := d.players[playerID]; !ok {
		return ErrNotFound
	}
	if !slices.Contains(r.Members, playerID) {
		r.Members = append(r.Members, playerID)
	}
	return nil
}

func (d *MemoryDirectory) RemoveMember(_ context.Context, code string, playerID uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.rooms[code]
	if !ok {
		return ErrNotFound
	}
	i := slices.Index(r.Members, playerID)
	if i < 0 {
		return ErrNotFound
	}
	r.Members = slices.Delete(r.Members, i, i+1)
	return nil
}

func (d *MemoryDirectory) CreateRoom(_ context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return createWithUniqueCode(func(code string) error {
		if _, ok := d.rooms[code]; ok {
			return ErrRoomCodeExists
		}
		d.rooms[code] = &models.Room{ID: code, Status: models.RoomLobby}
		return nil
	})
}

func (d *MemoryDirectory) DeleteRoom(_ context.Context, code string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.rooms[code]; !ok {
		return ErrNotFound
	}
	delete(d.rooms, code)
	return nil
}

func (d *MemoryDirectory) SetRoomGame(_ context.Context, code string, gameName string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.rooms[code]
	if !ok {
		return ErrNotFound
	}
	if r.Status != models.RoomLobby {
		return ErrRoomNotInLobby
	}
	r.GameName = &gameName
	return nil
}

func (d *MemoryDirectory) SetRoomStatus(_ context.Context, code string, status models.RoomStatus) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.rooms[code]
	if !ok {
		return ErrNotFound
	}
	if r.Status == models.RoomGame && status == models.RoomLobby {
		return ErrRoomNotInLobby
	}
	r.Status = status
	return nil
}
