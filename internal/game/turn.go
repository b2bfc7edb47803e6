package game

import (
	"slices"

	"github.com/lox/unoroom/internal/deck"
)

// PlayCard plays cardID from the player's hand onto the discard pile.
// chosenColor is required for wild cards and ignored otherwise; pass
// deck.NoColor when it was not supplied.
func (e *Engine) PlayCard(room *Room, playerID, cardID string, chosenColor deck.Color) error {
	player, err := currentTurn(room, playerID)
	if err != nil {
		return err
	}

	idx := slices.IndexFunc(player.Hand, func(c deck.Card) bool { return c.ID == cardID })
	if idx < 0 {
		return NewError(CodeCardNotInHand, "card %s is not in your hand", cardID)
	}
	card := player.Hand[idx]

	if err := checkLegal(room, card); err != nil {
		return err
	}
	if card.IsWild() && !chosenColor.IsPlayable() {
		return NewError(CodeValidation, "choose red, blue, green or yellow for a wild card")
	}

	// Validation is complete; everything below mutates.
	player.Hand = slices.Delete(player.Hand, idx, idx+1)
	player.HasCalledUno = false

	played := card
	if card.IsWild() {
		played = card.WithColor(chosenColor)
	}
	room.DiscardPile = append(room.DiscardPile, played)
	room.CurrentColor = played.Color

	steps := 1
	switch card.Value {
	case deck.Skip:
		steps = 2
	case deck.Reverse:
		room.Direction = -room.Direction
		if len(room.Players) == 2 {
			steps = 2
		}
	case deck.DrawTwo, deck.WildDrawFour:
		room.PendingDrawCount += card.Value.DrawCount()
		room.PendingAction = card.Value
	}

	e.record(room, ActionPlay, player.ID, &ActionPayload{Card: &played})

	if len(player.Hand) == 0 {
		room.Stage = StageFinished
		room.WinnerID = player.ID
		room.PendingDrawCount = 0
		room.PendingAction = ""
		return nil
	}

	room.advance(steps)
	return nil
}

// DrawCard draws for the current player. With a pending penalty the player
// draws the whole stack; otherwise one card. Either way the turn passes.
func (e *Engine) DrawCard(room *Room, playerID string) error {
	player, err := currentTurn(room, playerID)
	if err != nil {
		return err
	}

	count, action := 1, ActionDraw
	if room.PendingDrawCount > 0 {
		count, action = room.PendingDrawCount, ActionResolveDraw
	}

	// Everything except the discard top can be drawn.
	if available := len(room.DrawPile) + len(room.DiscardPile) - 1; available < count {
		return NewError(CodeInvalidState, "no cards left to draw")
	}

	for range count {
		if len(room.DrawPile) == 0 {
			e.reshuffle(room)
		}
		top := len(room.DrawPile) - 1
		player.Hand = append(player.Hand, room.DrawPile[top])
		room.DrawPile = room.DrawPile[:top]
	}
	player.HasCalledUno = false

	room.PendingDrawCount = 0
	room.PendingAction = ""
	e.record(room, action, player.ID, &ActionPayload{Count: count})
	room.advance(1)
	return nil
}

// DeclareUno marks the player as having called UNO. Only valid while the
// player holds exactly one card; it does not require the player's turn.
func (e *Engine) DeclareUno(room *Room, playerID string) error {
	if room.Stage != StagePlaying {
		return NewError(CodeInvalidState, "game is not in progress")
	}
	player, _, ok := room.Player(playerID)
	if !ok {
		return NewError(CodeNotFound, "player not found")
	}
	if len(player.Hand) != 1 {
		return NewError(CodeIllegalPlay, "you can only call UNO with one card left")
	}

	player.HasCalledUno = true
	e.record(room, ActionUno, player.ID, nil)
	return nil
}

// CanPlay reports whether card may be played on the room's current state.
func CanPlay(room *Room, card deck.Card) bool {
	return checkLegal(room, card) == nil
}

func checkLegal(room *Room, card deck.Card) error {
	if room.PendingDrawCount > 0 {
		if card.Value != room.PendingAction {
			return NewError(CodeIllegalPlay, "you must draw %d cards or stack another %s", room.PendingDrawCount, room.PendingAction)
		}
		return nil
	}

	if card.Color == deck.Black || card.Color == room.CurrentColor {
		return nil
	}
	if top, ok := room.DiscardTop(); ok && top.Value == card.Value {
		return nil
	}
	return NewError(CodeIllegalPlay, "%s does not match the %s pile", card, room.CurrentColor)
}

func currentTurn(room *Room, playerID string) (*Player, error) {
	if room.Stage != StagePlaying {
		return nil, NewError(CodeInvalidState, "game is not in progress")
	}
	current := room.CurrentPlayer()
	if current == nil || current.ID != playerID {
		return nil, NewError(CodeNotYourTurn, "it is not your turn")
	}
	return current, nil
}

// reshuffle turns every discard except the top into a new shuffled draw pile.
func (e *Engine) reshuffle(room *Room) {
	top := len(room.DiscardPile) - 1
	pile := make([]deck.Card, 0, top)
	for _, c := range room.DiscardPile[:top] {
		pile = append(pile, c.Reset())
	}
	deck.Shuffle(pile, e.rng)

	room.DrawPile = append(room.DrawPile, pile...)
	room.DiscardPile = []deck.Card{room.DiscardPile[top]}
}

func (r *Room) advance(steps int) {
	n := len(r.Players)
	next := (r.CurrentPlayerIndex + steps*int(r.Direction)) % n
	if next < 0 {
		next += n
	}
	r.CurrentPlayerIndex = next
}
