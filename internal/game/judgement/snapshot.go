package judgement

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/judgement/internal/cards"
	"github.com/jason-s-yu/judgement/internal/game"
)

// PlayerState is the private part of a seated player's view.
type PlayerState struct {
	Score            int          `json:"score"`
	CurrentWonTricks int          `json:"currentWonTricks"`
	CurrentBid       *int         `json:"currentBid"`
	Hand             []cards.Card `json:"hand"`
}

// PublicPlayerState is what every viewer sees about each seated player.
type PublicPlayerState struct {
	PlayerID         uuid.UUID `json:"playerId"`
	Score            int       `json:"score"`
	CurrentWonTricks int       `json:"currentWonTricks"`
	CurrentBid       *int      `json:"currentBid"`
	HandSize         int       `json:"handSize"`
}

// Snapshot is one viewer's state of the game. Spectators get no PlayerState.
type Snapshot struct {
	GameName         game.Name           `json:"gameName"`
	Status           game.Status         `json:"status"`
	PlayerType       game.PlayerType     `json:"playerType"`
	OrderedPlayerIDs []uuid.UUID         `json:"orderedPlayerIds"`
	Settings         Settings            `json:"settings"`
	Phase            Phase               `json:"phase"`
	TrumpSuit        *cards.Suit         `json:"trumpSuit"`
	Pile             []cards.Card        `json:"pile"`
	CurrentRound     int                 `json:"currentRound"`
	CurrentTrick     int                 `json:"currentTrick"`
	StartPlayerIndex int                 `json:"startPlayerIndex"`
	CurrentTurnIndex int                 `json:"currentTurnIndex"`
	Players          []PublicPlayerState `json:"players"`
	LastTrick        *TrickResult        `json:"lastTrick,omitempty"`
	LastRound        *RoundResult        `json:"lastRound,omitempty"`
	PlayerState      *PlayerState        `json:"playerState,omitempty"`
}

// BuildSnapshots produces each viewer's snapshot from one shared public part.
// Unknown viewers get the spectator view.
func (g *Game) BuildSnapshots(playerIDs []uuid.UUID) map[uuid.UUID]any {
	public := g.publicSnapshot()
	out := make(map[uuid.UUID]any, len(playerIDs))
	for _, id := range playerIDs {
		snap := public
		snap.PlayerType = game.Spectator
		if role, ok := g.PlayerType(id); ok && role == game.Player {
			snap.PlayerType = game.Player
			snap.PlayerState = g.privateState(id)
		}
		out[id] = snap
	}
	return out
}

func (g *Game) publicSnapshot() Snapshot {
	ordered := g.players
	if g.Status() == game.StatusNotStarted {
		ordered = g.MembersOfType(game.Player)
	}
	ids := make([]uuid.UUID, len(ordered))
	copy(ids, ordered)

	pile := make([]cards.Card, len(g.pile))
	copy(pile, g.pile)

	snap := Snapshot{
		GameName:         game.Judgement,
		Status:           g.Status(),
		OrderedPlayerIDs: ids,
		Settings:         g.settings,
		Phase:            g.phase,
		Pile:             pile,
		CurrentRound:     g.currentRound,
		CurrentTrick:     g.currentTrick,
		StartPlayerIndex: g.startIndex,
		CurrentTurnIndex: g.turnIndex,
		LastTrick:        g.lastTrick,
		LastRound:        g.lastRound,
		Players:          make([]PublicPlayerState, 0, len(ids)),
	}
	if g.Status() == game.StatusInProgress {
		trump := g.TrumpSuit()
		snap.TrumpSuit = &trump
	}
	for _, id := range ids {
		pub := PublicPlayerState{PlayerID: id}
		if st, ok := g.states[id]; ok {
			pub.Score = st.score
			pub.CurrentWonTricks = st.wonTricks
			pub.CurrentBid = copyInt(st.bid)
			pub.HandSize = len(st.hand)
		}
		snap.Players = append(snap.Players, pub)
	}
	return snap
}

func (g *Game) privateState(playerID uuid.UUID) *PlayerState {
	ps := &PlayerState{Hand: []cards.Card{}}
	st, ok := g.states[playerID]
	if !ok {
		return ps
	}
	ps.Score = st.score
	ps.CurrentWonTricks = st.wonTricks
	ps.CurrentBid = copyInt(st.bid)
	ps.Hand = make([]cards.Card, len(st.hand))
	copy(ps.Hand, st.hand)
	return ps
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
