package models

import "github.com/google/uuid"

// Player is a durable identity. Name stays nil until the player picks one.
type Player struct {
	ID   uuid.UUID `json:"id"`
	Name *string   `json:"name"`
}

// DisplayName returns the chosen name or an empty string.
func (p Player) DisplayName() string {
	if p.Name == nil {
		return ""
	}
	return *p.Name
}
