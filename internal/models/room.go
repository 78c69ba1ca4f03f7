// internal/models/room.go
package models

import "github.com/google/uuid"

// RoomStatus moves from LOBBY to GAME once and never back.
type RoomStatus string

const (
	RoomLobby RoomStatus = "LOBBY"
	RoomGame  RoomStatus = "GAME"
)

// RoomCodeLength is the number of letters in a room code.
const RoomCodeLength = 4

// Room represents a row in the rooms table along with its ordered members.
type Room struct {
	ID       string      `json:"id"`
	Status   RoomStatus  `json:"status"`
	GameName *string     `json:"gameName"`
	Members  []uuid.UUID `json:"orderedPlayerIds"`
}
