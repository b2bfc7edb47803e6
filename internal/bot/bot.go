// Package bot contains automated UNO players.
package bot

import (
	"fmt"
	"slices"
	"sort"

	"github.com/lox/unoroom/internal/deck"
	"github.com/lox/unoroom/internal/game"
)

// Decision is what a strategy wants to do on its turn.
type Decision struct {
	Draw      bool
	CardID    string
	Color     deck.Color
	Reasoning string
}

func (d Decision) String() string {
	if d.Draw {
		return "draw"
	}
	if d.Color != deck.NoColor {
		return fmt.Sprintf("play %s as %s", d.CardID, d.Color)
	}
	return "play " + d.CardID
}

// Strategy chooses a move from the viewer's state. Decide is only called
// when it is the viewer's turn.
type Strategy interface {
	Name() string
	Decide(state *game.PublicState) Decision
}

// Source is the randomness strategies draw from.
type Source interface {
	IntN(n int) int
}

var strategies = map[string]func(rng Source) Strategy{
	"random":     func(rng Source) Strategy { return NewRandBot(rng) },
	"aggressive": func(rng Source) Strategy { return NewAggroBot(rng) },
	"saver":      func(rng Source) Strategy { return NewSaverBot(rng) },
}

// Names lists the available strategies.
func Names() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns the strategy called name.
func New(name string, rng Source) (Strategy, error) {
	factory, ok := strategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (available: %v)", name, Names())
	}
	return factory(rng), nil
}

// play builds a decision for card, picking a color for wilds.
func play(state *game.PublicState, card deck.Card, reasoning string) Decision {
	d := Decision{CardID: card.ID, Reasoning: reasoning}
	if card.IsWild() {
		d.Color = bestColor(state.Hand, card.ID)
	}
	return d
}

func draw(reasoning string) Decision {
	return Decision{Draw: true, Reasoning: reasoning}
}

// bestColor returns the color the hand holds most of, ignoring the card
// about to be played. Ties go to deck order.
func bestColor(hand []deck.Card, except string) deck.Color {
	counts := make(map[deck.Color]int, len(deck.Colors))
	for _, c := range hand {
		if c.ID != except && c.Color.IsPlayable() {
			counts[c.Color]++
		}
	}
	best := deck.Colors[0]
	for _, color := range deck.Colors[1:] {
		if counts[color] > counts[best] {
			best = color
		}
	}
	return best
}

// rank orders playable cards by preference, most preferred first. Cards
// with equal preference keep their hand order.
func rank(cards []deck.Card, score func(deck.Card) int) []deck.Card {
	out := slices.Clone(cards)
	slices.SortStableFunc(out, func(a, b deck.Card) int {
		return score(b) - score(a)
	})
	return out
}
