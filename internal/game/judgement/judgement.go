// Package judgement implements the Judgement trick-taking ruleset: players
// bid on the number of tricks they will take each round, hands shrink by one
// card per round, and the trump suit rotates.
package judgement

import (
	"encoding/json"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/judgement/internal/cards"
	"github.com/jason-s-yu/judgement/internal/game"
)

const (
	MinPlayers       = 2
	MaxDecks         = 8
	DefaultNumDecks  = 1
	DefaultNumRounds = 7
)

// Phase is the step within a round.
type Phase string

const (
	PhaseNotStarted Phase = "NOT_STARTED"
	PhaseBidding    Phase = "BIDDING"
	PhasePlaying    Phase = "PLAYING"
)

// TrumpRotation is indexed by round number mod 4.
var TrumpRotation = [4]cards.Suit{cards.Spades, cards.Diamonds, cards.Clubs, cards.Hearts}

// Settings are host-controlled and frozen once the game starts.
type Settings struct {
	NumDecks          int  `json:"numDecks"`
	NumRounds         int  `json:"numRounds"`
	LastDuplicateWins bool `json:"lastDuplicateWins"`
}

// MaxRounds is the largest round count the deck can deal for numPlayers.
func MaxRounds(numDecks, numPlayers int) int {
	if numPlayers < 1 {
		numPlayers = 1
	}
	return cards.CardsPerDeck * numDecks / numPlayers
}

type playerState struct {
	score     int
	wonTricks int
	bid       *int
	hand      []cards.Card
}

// Game is a single Judgement match. Not safe for concurrent use.
type Game struct {
	game.Core

	settings Settings
	phase    Phase

	// players is the turn order, fixed at Start.
	players []uuid.UUID
	states  map[uuid.UUID]*playerState

	deck    *cards.Decks
	pile    []cards.Card
	discard []cards.Card

	currentRound int
	currentTrick int
	startIndex   int
	turnIndex    int

	lastTrick *TrickResult
	lastRound *RoundResult

	rng *rand.Rand
}

// Option configures a Game.
type Option func(*Game)

// WithRand sets the shuffle source.
func WithRand(r *rand.Rand) Option {
	return func(g *Game) { g.rng = r }
}

// WithSettings overrides the default settings. Rounds are still clamped.
func WithSettings(s Settings) Option {
	return func(g *Game) { g.settings = s }
}

// New returns an empty game in NOT_STARTED.
func New(opts ...Option) *Game {
	g := &Game{
		Core:  game.NewCore(),
		phase: PhaseNotStarted,
		settings: Settings{
			NumDecks:  DefaultNumDecks,
			NumRounds: DefaultNumRounds,
		},
		states: make(map[uuid.UUID]*playerState),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if g.settings.NumDecks < 1 {
		g.settings.NumDecks = DefaultNumDecks
	}
	if g.settings.NumRounds < 1 {
		g.settings.NumRounds = DefaultNumRounds
	}
	g.clampRounds()
	return g
}

func (g *Game) Name() game.Name { return game.Judgement }

func (g *Game) Settings() Settings { return g.settings }
func (g *Game) Phase() Phase       { return g.phase }

// AddPlayer seats playerID. After the game starts newcomers only spectate.
func (g *Game) AddPlayer(playerID uuid.UUID) game.PlayerType {
	if g.Status() != game.StatusNotStarted {
		return g.AddMember(playerID, game.Spectator)
	}
	role := g.AddMember(playerID, game.Player)
	g.clampRounds()
	return role
}

// RemovePlayer detaches playerID. Seated players cannot leave a game in progress.
func (g *Game) RemovePlayer(playerID uuid.UUID) (game.PlayerType, error) {
	role, ok := g.PlayerType(playerID)
	if !ok {
		return "", game.ErrPlayerNotFound
	}
	if role == game.Player && g.Status() == game.StatusInProgress {
		return "", game.Errorf("players cannot leave a game in progress")
	}
	if _, err := g.RemoveMember(playerID); err != nil {
		return "", err
	}
	if g.Status() == game.StatusNotStarted {
		g.clampRounds()
	}
	return role, nil
}

// Start fixes the turn order and deals the first round.
func (g *Game) Start() error {
	if g.Status() != game.StatusNotStarted {
		return game.ErrAlreadyStarted
	}
	seated := g.MembersOfType(game.Player)
	if len(seated) < MinPlayers {
		return game.Errorf("at least %d players are needed to start", MinPlayers)
	}
	if g.settings.NumRounds < 1 {
		return game.Errorf("too many players for %d deck(s)", g.settings.NumDecks)
	}
	if err := g.Core.Start(); err != nil {
		return err
	}

	g.players = seated
	for _, id := range seated {
		g.states[id] = &playerState{}
	}
	g.deck = cards.NewDecks(g.settings.NumDecks)
	return g.startRound()
}

// ProcessRawInput decodes and applies a Judgement action.
func (g *Game) ProcessRawInput(playerID uuid.UUID, payload json.RawMessage) (game.Action, error) {
	action, err := actions.Decode(payload)
	if err != nil {
		return nil, err
	}
	return action, g.processInput(playerID, action)
}

func (g *Game) processInput(playerID uuid.UUID, action game.Action) error {
	role, ok := g.PlayerType(playerID)
	if !ok {
		return game.ErrPlayerNotFound
	}
	if role != game.Player {
		return game.Errorf("spectators cannot take actions")
	}

	if a, ok := action.(*UpdateSettingsAction); ok {
		return g.updateSettings(playerID, a)
	}

	switch g.Status() {
	case game.StatusNotStarted:
		return game.ErrNotStarted
	case game.StatusComplete:
		return game.ErrComplete
	}

	switch a := action.(type) {
	case *OrderCardsAction:
		return g.orderCards(playerID, *a.FromIndex, *a.ToIndex)
	case *BidHandsAction:
		return g.bid(playerID, *a.NumHands)
	case *PlayCardAction:
		return g.playCard(playerID, *a.Card)
	}
	return game.Errorf("unsupported action %s", action.ActionType())
}

func (g *Game) updateSettings(playerID uuid.UUID, a *UpdateSettingsAction) error {
	if !g.IsHost(playerID) {
		return game.ErrNotHost
	}
	if g.Status() != game.StatusNotStarted {
		return game.Errorf("settings cannot change after the game has started")
	}
	if a.NumDecks != nil {
		if *a.NumDecks > MaxDecks {
			return game.Errorf("at most %d decks are supported", MaxDecks)
		}
		g.settings.NumDecks = *a.NumDecks
	}
	if a.NumRounds != nil {
		g.settings.NumRounds = *a.NumRounds
	}
	if a.LastDuplicateWins != nil {
		g.settings.LastDuplicateWins = *a.LastDuplicateWins
	}
	g.clampRounds()
	return nil
}

func (g *Game) orderCards(playerID uuid.UUID, from, to int) error {
	st := g.states[playerID]
	if from < 0 || from >= len(st.hand) || to < 0 || to >= len(st.hand) {
		return game.Errorf("card index out of range")
	}
	c := st.hand[from]
	st.hand = append(st.hand[:from], st.hand[from+1:]...)
	st.hand = append(st.hand[:to], append([]cards.Card{c}, st.hand[to:]...)...)
	return nil
}

// clampRounds caps the round count to what the deck can deal the seated players.
func (g *Game) clampRounds() {
	n := len(g.MembersOfType(game.Player))
	if limit := MaxRounds(g.settings.NumDecks, n); g.settings.NumRounds > limit {
		g.settings.NumRounds = limit
	}
}

func (g *Game) indexOf(playerID uuid.UUID) int {
	for i, id := range g.players {
		if id == playerID {
			return i
		}
	}
	return -1
}

// TrumpSuit is the trump for the current round.
func (g *Game) TrumpSuit() cards.Suit {
	return TrumpRotation[g.currentRound%len(TrumpRotation)]
}
