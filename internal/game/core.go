// internal/game/core.go
package game

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Name identifies a ruleset a room can select.
type Name string

const (
	Judgement Name = "JUDGEMENT"
)

// Valid reports whether n is a ruleset this server can run.
func (n Name) Valid() bool {
	return n == Judgement
}

// Status is the lifecycle of a game instance.
type Status string

const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusComplete   Status = "COMPLETE"
)

// PlayerType is the role of a room member within a game.
type PlayerType string

const (
	Player    PlayerType = "PLAYER"
	Spectator PlayerType = "SPECTATOR"
)

// Game is the contract every ruleset implements. Implementations are not
// safe for concurrent use; the owning room serializes access.
type Game interface {
	ID() uuid.UUID
	Name() Name
	Status() Status

	// AddPlayer attaches playerID and returns the role it was given.
	AddPlayer(playerID uuid.UUID) PlayerType
	// RemovePlayer detaches playerID and returns the role it held.
	RemovePlayer(playerID uuid.UUID) (PlayerType, error)
	PlayerType(playerID uuid.UUID) (PlayerType, bool)
	IsHost(playerID uuid.UUID) bool

	Start() error

	// ProcessRawInput decodes payload into the ruleset's action type and applies it.
	ProcessRawInput(playerID uuid.UUID, payload json.RawMessage) (Action, error)

	// BuildSnapshots returns the view of the game for each requested viewer.
	BuildSnapshots(playerIDs []uuid.UUID) map[uuid.UUID]any
}

// Core holds the roster and lifecycle shared by all rulesets.
type Core struct {
	id     uuid.UUID
	status Status
	order  []uuid.UUID
	roles  map[uuid.UUID]PlayerType
}

// NewCore returns an empty, not-started core with a fresh id.
func NewCore() Core {
	return Core{
		id:     uuid.New(),
		status: StatusNotStarted,
		roles:  make(map[uuid.UUID]PlayerType),
	}
}

func (c *Core) ID() uuid.UUID  { return c.id }
func (c *Core) Status() Status { return c.status }

// AddMember records playerID with role. Re-adding keeps the original role.
func (c *Core) AddMember(playerID uuid.UUID, role PlayerType) PlayerType {
	if existing, ok := c.roles[playerID]; ok {
		return existing
	}
	c.roles[playerID] = role
	c.order = append(c.order, playerID)
	return role
}

// RemoveMember drops playerID from the roster.
func (c *Core) RemoveMember(playerID uuid.UUID) (PlayerType, error) {
	role, ok := c.roles[playerID]
	if !ok {
		return "", ErrPlayerNotFound
	}
	delete(c.roles, playerID)
	for i, id := range c.order {
		if id == playerID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return role, nil
}

func (c *Core) PlayerType(playerID uuid.UUID) (PlayerType, bool) {
	role, ok := c.roles[playerID]
	return role, ok
}

// IsHost is true for the earliest member still in the roster.
func (c *Core) IsHost(playerID uuid.UUID) bool {
	return len(c.order) > 0 && c.order[0] == playerID
}

// Members returns every member in join order.
func (c *Core) Members() []uuid.UUID {
	out := make([]uuid.UUID, len(c.order))
	copy(out, c.order)
	return out
}

// MembersOfType returns the members holding role, in join order.
func (c *Core) MembersOfType(role PlayerType) []uuid.UUID {
	var out []uuid.UUID
	for _, id := range c.order {
		if c.roles[id] == role {
			out = append(out, id)
		}
	}
	return out
}

// Start moves the game from NOT_STARTED to IN_PROGRESS.
func (c *Core) Start() error {
	if c.status != StatusNotStarted {
		return ErrAlreadyStarted
	}
	c.status = StatusInProgress
	return nil
}

// Complete marks the game finished.
func (c *Core) Complete() {
	c.status = StatusComplete
}
