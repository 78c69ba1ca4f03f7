package judgement

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/judgement/internal/cards"
	"github.com/jason-s-yu/judgement/internal/game"
)

// ErrEmptyPile is returned when resolving a trick with no cards.
var ErrEmptyPile = errors.New("can't find the winner of an empty pile")

// TrickResult records a resolved trick.
type TrickResult struct {
	Cards    []cards.Card `json:"cards"`
	WinnerID uuid.UUID    `json:"winnerId"`
}

// RoundResult records the outcome of a completed round.
type RoundResult struct {
	Round     int               `json:"round"`
	Bids      map[uuid.UUID]int `json:"bids"`
	WonTricks map[uuid.UUID]int `json:"wonTricks"`
	Gained    map[uuid.UUID]int `json:"gained"`
}

// ComputeWinningCard returns the pile index of the card that takes the trick.
// The first card sets the led suit. Trump beats any non-trump, and within a
// suit the higher rank wins. An exact duplicate of the current winner takes
// over only when lastDuplicateWins is set.
func ComputeWinningCard(pile []cards.Card, trump cards.Suit, lastDuplicateWins bool) (int, error) {
	if len(pile) == 0 {
		return 0, ErrEmptyPile
	}
	led := pile[0].Suit
	win := 0
	for i := 1; i < len(pile); i++ {
		c, w := pile[i], pile[win]
		switch {
		case c == w:
			if lastDuplicateWins {
				win = i
			}
		case c.Suit == trump:
			if w.Suit != trump || c.Outranks(w) {
				win = i
			}
		case c.Suit == led && w.Suit != trump && c.Outranks(w):
			win = i
		}
	}
	return win, nil
}

// tricksPerRound is also the hand size dealt at the start of round.
func (g *Game) tricksPerRound(round int) int {
	return g.settings.NumRounds - round
}

// startRound recycles last round's cards, shuffles and deals.
func (g *Game) startRound() error {
	g.pile = nil
	if len(g.discard) > 0 {
		if err := g.deck.ReplaceBottom(g.discard); err != nil {
			return fmt.Errorf("recycle discard pile: %w", err)
		}
		g.discard = nil
	}
	g.deck.Shuffle(g.rng)

	n := len(g.players)
	g.currentTrick = 0
	g.startIndex = g.currentRound % n
	g.turnIndex = g.startIndex

	handSize := g.tricksPerRound(g.currentRound)
	for i := 0; i < n; i++ {
		id := g.players[(g.startIndex+i)%n]
		st := g.states[id]
		st.bid = nil
		st.wonTricks = 0
		hand, err := g.deck.Draw(handSize)
		if err != nil {
			return fmt.Errorf("deal round %d: %w", g.currentRound, err)
		}
		st.hand = hand
	}
	g.phase = PhaseBidding
	return nil
}

func (g *Game) bid(playerID uuid.UUID, numHands int) error {
	if g.phase != PhaseBidding {
		return game.Errorf("bids are only accepted during bidding")
	}
	idx := g.indexOf(playerID)
	if idx != g.turnIndex {
		return game.ErrNotYourTurn
	}
	if numHands < 0 {
		return game.Errorf("bid must not be negative")
	}

	g.states[playerID].bid = &numHands
	g.turnIndex = (g.turnIndex + 1) % len(g.players)
	if g.turnIndex == g.startIndex {
		g.phase = PhasePlaying
	}
	return nil
}

func (g *Game) playCard(playerID uuid.UUID, card cards.Card) error {
	if g.phase != PhasePlaying {
		return game.Errorf("cards can only be played after bidding")
	}
	idx := g.indexOf(playerID)
	if idx != g.turnIndex {
		return game.ErrNotYourTurn
	}

	st := g.states[playerID]
	pos := -1
	for i, c := range st.hand {
		if c == card {
			pos = i
			break
		}
	}
	if pos < 0 {
		return game.Errorf("invalid card %s: not in hand", card)
	}
	if len(g.pile) > 0 {
		led := g.pile[0].Suit
		if card.Suit != led && holdsSuit(st.hand, led) {
			return game.Errorf("invalid card %s: must follow suit %s", card, led)
		}
	}

	st.hand = append(st.hand[:pos], st.hand[pos+1:]...)
	g.pile = append(g.pile, card)

	if len(g.pile) < len(g.players) {
		g.turnIndex = (g.turnIndex + 1) % len(g.players)
		return nil
	}
	return g.resolveTrick()
}

func holdsSuit(hand []cards.Card, suit cards.Suit) bool {
	for _, c := range hand {
		if c.Suit == suit {
			return true
		}
	}
	return false
}

func (g *Game) resolveTrick() error {
	rel, err := ComputeWinningCard(g.pile, g.TrumpSuit(), g.settings.LastDuplicateWins)
	if err != nil {
		return err
	}
	n := len(g.players)
	winner := (g.startIndex + rel) % n
	winnerID := g.players[winner]
	g.states[winnerID].wonTricks++

	trick := make([]cards.Card, len(g.pile))
	copy(trick, g.pile)
	g.lastTrick = &TrickResult{Cards: trick, WinnerID: winnerID}

	g.discard = append(g.discard, g.pile...)
	g.pile = nil
	g.currentTrick++

	if g.currentTrick < g.tricksPerRound(g.currentRound) {
		g.startIndex = winner
		g.turnIndex = winner
		return nil
	}
	return g.endRound()
}

func (g *Game) endRound() error {
	res := &RoundResult{
		Round:     g.currentRound,
		Bids:      make(map[uuid.UUID]int, len(g.players)),
		WonTricks: make(map[uuid.UUID]int, len(g.players)),
		Gained:    make(map[uuid.UUID]int, len(g.players)),
	}
	for _, id := range g.players {
		st := g.states[id]
		gained := 0
		if st.bid != nil && *st.bid == st.wonTricks {
			gained = *st.bid + 10
		}
		st.score += gained
		if st.bid != nil {
			res.Bids[id] = *st.bid
		}
		res.WonTricks[id] = st.wonTricks
		res.Gained[id] = gained

		st.bid = nil
		st.wonTricks = 0
	}
	g.lastRound = res

	g.currentRound++
	if g.currentRound < g.settings.NumRounds {
		return g.startRound()
	}
	g.Complete()
	return nil
}
