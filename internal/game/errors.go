// internal/game/errors.go
package game

import (
	"encoding/json"
	"fmt"
)

// Error is a rules violation: the payload was well formed but the move is
// not allowed. State is unchanged when one is returned.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }

// Errorf builds a rules violation.
func Errorf(format string, args ...any) *Error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

var (
	ErrAlreadyStarted = Errorf("game has already started")
	ErrNotStarted     = Errorf("game has not started")
	ErrComplete       = Errorf("game is complete")
	ErrPlayerNotFound = Errorf("player is not in this game")
	ErrNotYourTurn    = Errorf("it is not your turn")
	ErrNotHost        = Errorf("only the host can do that")
)

// InputError reports a payload that could not be decoded into Target.
type InputError struct {
	Payload json.RawMessage
	Target  string
	Err     error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input for %s: %v", e.Target, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }
