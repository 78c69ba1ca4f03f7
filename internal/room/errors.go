package room

import (
	"encoding/json"
	"errors"

	"github.com/jason-s-yu/judgement/internal/database"
	"github.com/jason-s-yu/judgement/internal/game"
)

var (
	ErrRoomNotFound      = errors.New("room does not exist")
	ErrNotInRoom         = errors.New("you are not in that room")
	ErrNoGameSelected    = errors.New("no game has been selected")
	ErrGameAlreadyChosen = errors.New("the game has already been confirmed")
	ErrNoActiveGame      = errors.New("there is no active game in this room")
	ErrUnknownGame       = errors.New("unknown game")
	ErrUnknownEvent      = errors.New("unknown event type")
	ErrBadEvent          = errors.New("malformed event")
)

var rejections = []error{
	ErrRoomNotFound, ErrNotInRoom, ErrNoGameSelected, ErrGameAlreadyChosen,
	ErrNoActiveGame, ErrUnknownGame, ErrUnknownEvent, ErrBadEvent,
	database.ErrNotFound, database.ErrRoomNotInLobby,
}

// IsRejection reports whether err is caused by the client's request rather
// than a server fault. Rejections are reported back to the actor verbatim.
func IsRejection(err error) bool {
	var gErr *game.Error
	var inErr *game.InputError
	var synErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &gErr) || errors.As(err, &inErr) || errors.As(err, &synErr) || errors.As(err, &typeErr) {
		return true
	}
	for _, r := range rejections {
		if errors.Is(err, r) {
			return true
		}
	}
	return false
}
