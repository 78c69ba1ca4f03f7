package judgement

import (
	"errors"

	"github.com/jason-s-yu/judgement/internal/cards"
	"github.com/jason-s-yu/judgement/internal/game"
)

const (
	ActionUpdateSettings = "UPDATE_SETTINGS"
	ActionOrderCards     = "ORDER_CARDS"
	ActionBidHands       = "BID_HANDS"
	ActionPlayCard       = "PLAY_CARD"
)

// UpdateSettingsAction changes deck or round count before the game starts.
// Nil fields are left unchanged.
type UpdateSettingsAction struct {
	Type              string `json:"actionType"`
	NumDecks          *int   `json:"numDecks"`
	NumRounds         *int   `json:"numRounds"`
	LastDuplicateWins *bool  `json:"lastDuplicateWins"`
}

// OrderCardsAction moves a card within the actor's hand.
type OrderCardsAction struct {
	Type      string `json:"actionType"`
	FromIndex *int   `json:"fromIndex"`
	ToIndex   *int   `json:"toIndex"`
}

// BidHandsAction declares how many tricks the actor expects to win.
type BidHandsAction struct {
	Type     string `json:"actionType"`
	NumHands *int   `json:"numHands"`
}

// PlayCardAction plays a card from the actor's hand onto the pile.
type PlayCardAction struct {
	Type string      `json:"actionType"`
	Card *cards.Card `json:"card"`
}

func (a *UpdateSettingsAction) ActionType() string { return ActionUpdateSettings }
func (a *OrderCardsAction) ActionType() string     { return ActionOrderCards }
func (a *BidHandsAction) ActionType() string       { return ActionBidHands }
func (a *PlayCardAction) ActionType() string       { return ActionPlayCard }

func (a *UpdateSettingsAction) Validate() error {
	if a.NumDecks != nil && *a.NumDecks < 1 {
		return errors.New("numDecks must be at least 1")
	}
	if a.NumRounds != nil && *a.NumRounds < 1 {
		return errors.New("numRounds must be at least 1")
	}
	return nil
}

func (a *OrderCardsAction) Validate() error {
	if a.FromIndex == nil || a.ToIndex == nil {
		return errors.New("fromIndex and toIndex are required")
	}
	return nil
}

func (a *BidHandsAction) Validate() error {
	if a.NumHands == nil {
		return errors.New("numHands is required")
	}
	return nil
}

func (a *PlayCardAction) Validate() error {
	if a.Card == nil {
		return errors.New("card is required")
	}
	return nil
}

var actions = newActionRegistry()

func newActionRegistry() *game.ActionRegistry[game.Action] {
	r := game.NewActionRegistry[game.Action]("JudgementAction")
	r.Register(ActionUpdateSettings, func() game.Action { return &UpdateSettingsAction{} })
	r.Register(ActionOrderCards, func() game.Action { return &OrderCardsAction{} })
	r.Register(ActionBidHands, func() game.Action { return &BidHandsAction{} })
	r.Register(ActionPlayCard, func() game.Action { return &PlayCardAction{} })
	return r
}
