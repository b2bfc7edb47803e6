package game

import (
	"fmt"
	"slices"
	"testing"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/lox/unoroom/internal/deck"
	"github.com/lox/unoroom/internal/randutil"
)

func newTestEngine(t *testing.T, seed int64) (*Engine, *quartz.Mock) {
	t.Helper()
	clock := quartz.NewMock(t)
	return NewEngine(randutil.New(seed), WithClock(clock)), clock
}

// startedRoom creates a room with n players (the first is the host) and starts it.
func startedRoom(t *testing.T, e *Engine, n int) *Room {
	t.Helper()
	room, hostID, err := e.CreateRoom("Host")
	require.NoError(t, err)
	for i := 1; i < n; i++ {
		_, err := e.Join(room, fmt.Sprintf("Guest %d", i))
		require.NoError(t, err)
	}
	require.NoError(t, e.Start(room, hostID))
	require.NoError(t, room.CheckInvariants())
	return room
}

// takeCard removes the card with id from whichever zone holds it. The discard
// top may not be taken.
func takeCard(t *testing.T, room *Room, id string) deck.Card {
	t.Helper()
	remove := func(cards []deck.Card) ([]deck.Card, deck.Card, bool) {
		i := slices.IndexFunc(cards, func(c deck.Card) bool { return c.ID == id })
		if i < 0 {
			return cards, deck.Card{}, false
		}
		c := cards[i]
		return slices.Delete(cards, i, i+1), c, true
	}

	if pile, c, ok := remove(room.DrawPile); ok {
		room.DrawPile = pile
		return c.Reset()
	}
	for _, p := range room.Players {
		if hand, c, ok := remove(p.Hand); ok {
			p.Hand = hand
			return c
		}
	}
	below := room.DiscardPile[:len(room.DiscardPile)-1]
	if pile, c, ok := remove(below); ok {
		room.DiscardPile = append(pile, room.DiscardPile[len(room.DiscardPile)-1])
		return c.Reset()
	}
	t.Fatalf("card %s not found outside the discard top", id)
	return deck.Card{}
}

// setHand replaces the hand of the player at idx with the given cards. The
// player's previous cards go to the bottom of the draw pile.
func setHand(t *testing.T, room *Room, idx int, ids ...string) {
	t.Helper()
	p := room.Players[idx]
	old := p.Hand
	p.Hand = nil
	room.DrawPile = append(slices.Clone(old), room.DrawPile...)
	for _, id := range ids {
		p.Hand = append(p.Hand, takeCard(t, room, id))
	}
	p.HasCalledUno = false
	require.NoError(t, room.CheckInvariants())
}

// setDiscardTop moves the card with id onto the discard pile and makes its
// color current.
func setDiscardTop(t *testing.T, room *Room, id string) {
	t.Helper()
	if top, ok := room.DiscardTop(); ok && top.ID == id {
		room.CurrentColor = top.Color
		return
	}
	c := takeCard(t, room, id)
	if c.IsWild() {
		c = c.WithColor(deck.Red)
	}
	room.DiscardPile = append(room.DiscardPile, c)
	room.CurrentColor = c.Color
	require.NoError(t, room.CheckInvariants())
}

func handSizes(room *Room) []int {
	sizes := make([]int, len(room.Players))
	for i, p := range room.Players {
		sizes[i] = len(p.Hand)
	}
	return sizes
}

func cardIDs(cards []deck.Card) []string {
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return ids
}
