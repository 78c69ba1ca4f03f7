// internal/room/room.go
package room

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/judgement/internal/game"
	"github.com/jason-s-yu/judgement/internal/models"
)

// Room is the live state of one room. Mu serializes every event for the room.
type Room struct {
	Mu sync.Mutex

	ID   string
	Game game.Game

	// actionIndex orders records in the action log.
	actionIndex int
	// closed is set once the room is deleted; late events see ErrRoomNotFound.
	closed bool
}

// PlayerInfo is a roster entry.
type PlayerInfo struct {
	ID   uuid.UUID `json:"id"`
	Name *string   `json:"name"`
}

// Snapshot is the full room view sent to one member.
type Snapshot struct {
	ID               string            `json:"id"`
	Status           models.RoomStatus `json:"status"`
	GameName         *string           `json:"gameName"`
	OrderedPlayerIDs []uuid.UUID       `json:"orderedPlayerIds"`
	Players          []PlayerInfo      `json:"players"`
	Game             any               `json:"game,omitempty"`
}

// orderedRoster returns players sorted by members order. Unknown ids keep a nil name.
func orderedRoster(members []uuid.UUID, players []models.Player) []PlayerInfo {
	byID := make(map[uuid.UUID]models.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}
	out := make([]PlayerInfo, 0, len(members))
	for _, id := range members {
		out = append(out, PlayerInfo{ID: id, Name: byID[id].Name})
	}
	return out
}
