package game

import (
	"slices"

	"github.com/lox/unoroom/internal/deck"
)

// PublicPlayer is what every viewer may know about a player.
type PublicPlayer struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CardCount    int    `json:"cardCount"`
	HasCalledUno bool   `json:"hasCalledUno"`
	IsSelf       bool   `json:"isSelf"`
	IsHost       bool   `json:"isHost"`
}

// PublicState is a room as seen by one player. It never contains another
// player's cards or the contents of the draw pile.
type PublicState struct {
	RoomID            string         `json:"roomId"`
	Players           []PublicPlayer `json:"players"`
	Hand              []deck.Card    `json:"hand"`
	DiscardTop        *deck.Card     `json:"discardTop,omitempty"`
	DeckCount         int            `json:"deckCount"`
	Stage             Stage          `json:"stage"`
	CurrentPlayerID   string         `json:"currentPlayerId,omitempty"`
	Direction         Direction      `json:"direction"`
	CurrentColor      deck.Color     `json:"currentColor,omitempty"`
	PendingDrawCount  int            `json:"pendingDrawCount"`
	PendingActionKind deck.Value     `json:"pendingActionKind,omitempty"`
	HostID            string         `json:"hostId"`
	WinnerID          string         `json:"winnerId,omitempty"`
	LastAction        *Action        `json:"lastAction,omitempty"`
	ViewerID          string         `json:"viewerId"`
}

// Sanitize projects room into the view of viewerID. It does not modify room.
func Sanitize(room *Room, viewerID string) (*PublicState, error) {
	viewer, _, ok := room.Player(viewerID)
	if !ok {
		return nil, NewError(CodeNotFound, "player not found in room")
	}

	state := &PublicState{
		RoomID:            room.ID,
		Players:           make([]PublicPlayer, 0, len(room.Players)),
		Hand:              slices.Clone(viewer.Hand),
		DeckCount:         len(room.DrawPile),
		Stage:             room.Stage,
		Direction:         room.Direction,
		CurrentColor:      room.CurrentColor,
		PendingDrawCount:  room.PendingDrawCount,
		PendingActionKind: room.PendingAction,
		HostID:            room.HostID,
		WinnerID:          room.WinnerID,
		ViewerID:          viewer.ID,
	}
	if state.Hand == nil {
		state.Hand = []deck.Card{}
	}

	for _, p := range room.Players {
		state.Players = append(state.Players, PublicPlayer{
			ID:           p.ID,
			Name:         p.Name,
			CardCount:    len(p.Hand),
			HasCalledUno: p.HasCalledUno,
			IsSelf:       p.ID == viewer.ID,
			IsHost:       room.IsHost(p.ID),
		})
	}

	if top, ok := room.DiscardTop(); ok {
		state.DiscardTop = &top
	}
	if current := room.CurrentPlayer(); current != nil {
		state.CurrentPlayerID = current.ID
	}
	state.LastAction = room.LastAction.clone()

	return state, nil
}

// IsTurn reports whether it is the viewer's turn.
func (s *PublicState) IsTurn() bool {
	return s.Stage == StagePlaying && s.CurrentPlayerID == s.ViewerID
}

// Self returns the viewer's public player entry.
func (s *PublicState) Self() (PublicPlayer, bool) {
	for _, p := range s.Players {
		if p.IsSelf {
			return p, true
		}
	}
	return PublicPlayer{}, false
}

// Playable returns the cards in the viewer's hand that may legally be played
// right now. It is empty when it is not the viewer's turn.
func (s *PublicState) Playable() []deck.Card {
	if !s.IsTurn() {
		return nil
	}

	var out []deck.Card
	for _, c := range s.Hand {
		switch {
		case s.PendingDrawCount > 0:
			if c.Value == s.PendingActionKind {
				out = append(out, c)
			}
		case c.Color == deck.Black, c.Color == s.CurrentColor:
			out = append(out, c)
		case s.DiscardTop != nil && s.DiscardTop.Value == c.Value:
			out = append(out, c)
		}
	}
	return out
}
