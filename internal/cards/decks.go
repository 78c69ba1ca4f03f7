// internal/cards/decks.go
package cards

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
)

// CardsPerDeck is the size of one standard deck.
const CardsPerDeck = 52

var (
	// ErrNotEnoughCards is returned when a draw exceeds the remaining cards.
	ErrNotEnoughCards = errors.New("not enough cards left in the deck")
	// ErrCardNotOwned is returned when replacing cards that were never drawn from this deck.
	ErrCardNotOwned = errors.New("card does not belong in this deck")
)

// Decks is a shoe of one or more standard decks. Index 0 is the top.
// It remembers which cards are out so only those can be returned.
type Decks struct {
	NumDecks int

	cards []Card
	drawn map[Card]int
}

// NewDecks builds an ordered shoe of numDecks decks.
func NewDecks(numDecks int) *Decks {
	if numDecks < 1 {
		numDecks = 1
	}
	d := &Decks{
		NumDecks: numDecks,
		cards:    make([]Card, 0, numDecks*CardsPerDeck),
		drawn:    make(map[Card]int),
	}
	for i := 0; i < numDecks; i++ {
		for _, suit := range Suits {
			for rank := MinRank; rank <= MaxRank; rank++ {
				d.cards = append(d.cards, Card{Suit: suit, Rank: rank})
			}
		}
	}
	return d
}

// Len is the number of cards still in the shoe.
func (d *Decks) Len() int { return len(d.cards) }

// Drawn is the number of cards currently out of the shoe.
func (d *Decks) Drawn() int {
	n := 0
	for _, c := range d.drawn {
		n += c
	}
	return n
}

// Cards returns a copy of the remaining cards, top first.
func (d *Decks) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}

// Shuffle performs a Fisher-Yates shuffle with r.
func (d *Decks) Shuffle(r *rand.Rand) {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Draw removes n cards from the top.
func (d *Decks) Draw(n int) ([]Card, error) {
	if n < 0 || n > len(d.cards) {
		return nil, fmt.Errorf("%w: requested %d, cards in deck: %d", ErrNotEnoughCards, n, len(d.cards))
	}
	out := make([]Card, n)
	copy(out, d.cards[:n])
	d.cards = d.cards[n:]
	for _, c := range out {
		d.drawn[c]++
	}
	return out, nil
}

// Replace puts cards back on top, keeping their order.
func (d *Decks) Replace(cards []Card) error {
	if err := d.reclaim(cards); err != nil {
		return err
	}
	top := make([]Card, 0, len(cards)+len(d.cards))
	top = append(top, cards...)
	d.cards = append(top, d.cards...)
	return nil
}

// ReplaceBottom puts cards back under the shoe.
func (d *Decks) ReplaceBottom(cards []Card) error {
	if err := d.reclaim(cards); err != nil {
		return err
	}
	d.cards = append(d.cards, cards...)
	return nil
}

// reclaim validates that every card was drawn from this shoe and marks them
// as returned. Nothing changes if any card is foreign.
func (d *Decks) reclaim(cards []Card) error {
	want := make(map[Card]int)
	for _, c := range cards {
		want[c]++
	}
	var invalid []string
	for c, n := range want {
		if n > d.drawn[c] {
			invalid = append(invalid, c.String())
		}
	}
	if len(invalid) > 0 {
		return fmt.Errorf("%w: [%s]", ErrCardNotOwned, strings.Join(invalid, ", "))
	}
	for c, n := range want {
		d.drawn[c] -= n
		if d.drawn[c] == 0 {
			delete(d.drawn, c)
		}
	}
	return nil
}
