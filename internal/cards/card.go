// internal/cards/card.go
package cards

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Suit is one of the four standard suits, encoded by its initial.
type Suit string

const (
	Diamonds Suit = "D"
	Spades   Suit = "S"
	Hearts   Suit = "H"
	Clubs    Suit = "C"
)

// Suits lists the suits in fresh-deck order.
var Suits = []Suit{Diamonds, Spades, Hearts, Clubs}

// Valid reports whether s names a known suit.
func (s Suit) Valid() bool {
	switch s {
	case Diamonds, Spades, Hearts, Clubs:
		return true
	}
	return false
}

const (
	MinRank = 1
	MaxRank = 13
)

// Card is an immutable (suit, rank) pair. Rank 1 is the ace and ranks low.
type Card struct {
	Suit Suit
	Rank int
}

// New builds a card, validating suit and rank.
func New(suit Suit, rank int) (Card, error) {
	if !suit.Valid() {
		return Card{}, fmt.Errorf("invalid suit %q", suit)
	}
	if rank < MinRank || rank > MaxRank {
		return Card{}, fmt.Errorf("rank %d out of bounds", rank)
	}
	return Card{Suit: suit, Rank: rank}, nil
}

// Parse decodes the short form produced by String, e.g. "S10", "HA", "DK".
func Parse(s string) (Card, error) {
	if len(s) < 2 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}
	suit := Suit(s[:1])
	var rank int
	switch r := s[1:]; r {
	case "A":
		rank = 1
	case "J":
		rank = 11
	case "Q":
		rank = 12
	case "K":
		rank = 13
	default:
		n, err := strconv.Atoi(r)
		if err != nil || n < 2 || n > 10 {
			return Card{}, fmt.Errorf("invalid rank in card %q", s)
		}
		rank = n
	}
	c, err := New(suit, rank)
	if err != nil {
		return Card{}, fmt.Errorf("invalid card %q: %w", s, err)
	}
	return c, nil
}

// String renders the card as suit initial followed by rank.
func (c Card) String() string {
	var r string
	switch c.Rank {
	case 1:
		r = "A"
	case 11:
		r = "J"
	case 12:
		r = "Q"
	case 13:
		r = "K"
	default:
		r = strconv.Itoa(c.Rank)
	}
	return string(c.Suit) + r
}

// Outranks compares ranks as plain integers.
func (c Card) Outranks(other Card) bool {
	return c.Rank > other.Rank
}

func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Card) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
