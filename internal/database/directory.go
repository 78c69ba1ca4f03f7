// internal/database/directory.go
package database

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/google/uuid"
	"github.com/jason-s-yu/judgement/internal/models"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrRoomNotInLobby = errors.New("room is not in the lobby")
	ErrRoomCodeExists = errors.New("room code already exists")
)

// maxCodeAttempts bounds room-code regeneration on collision.
const maxCodeAttempts = 32

// Directory stores players, rooms and room membership.
type Directory interface {
	PlayerExists(ctx context.Context, id uuid.UUID) (bool, error)
	GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error)
	GetPlayers(ctx context.Context, ids []uuid.UUID) ([]models.Player, error)
	CreatePlayer(ctx context.Context, name *string) (uuid.UUID, error)
	SetPlayerName(ctx context.Context, id uuid.UUID, name string) error

	RoomExists(ctx context.Context, code string) (bool, error)
	GetRoom(ctx context.Context, code string) (*models.Room, error)
	GetRoomMembers(ctx context.Context, code string) ([]uuid.UUID, error)
	// AddMember appends playerID to the room. Adding an existing member is a no-op.
	AddMember(ctx context.Context, code string, playerID uuid.UUID) error
	RemoveMember(ctx context.Context, code string, playerID uuid.UUID) error
	CreateRoom(ctx context.Context) (string, error)
	DeleteRoom(ctx context.Context, code string) error
	// SetRoomGame selects a ruleset. Fails with ErrRoomNotInLobby once the game began.
	SetRoomGame(ctx context.Context, code string, gameName string) error
	// SetRoomStatus moves a room from LOBBY to GAME.
	SetRoomStatus(ctx context.Context, code string, status models.RoomStatus) error
}

const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateCode returns a random room code of uppercase letters.
func GenerateCode() (string, error) {
	code := make([]byte, models.RoomCodeLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", err
		}
		code[i] = codeCharset[num.Int64()]
	}
	return string(code), nil
}

// createWithUniqueCode retries insert with fresh codes until one does not collide.
func createWithUniqueCode(insert func(code string) error) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := GenerateCode()
		if err != nil {
			return "", err
		}
		err = insert(code)
		if errors.Is(err, ErrRoomCodeExists) {
			continue
		}
		if err != nil {
			return "", err
		}
		return code, nil
	}
	return "", ErrRoomCodeExists
}
