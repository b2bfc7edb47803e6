package bot

import (
	"github.com/lox/unoroom/internal/deck"
	"github.com/lox/unoroom/internal/game"
)

// RandBot plays a uniformly random legal card and draws when it has none.
type RandBot struct {
	rng Source
}

// NewRandBot creates a new RandBot instance
func NewRandBot(rng Source) *RandBot {
	return &RandBot{rng: rng}
}

func (r *RandBot) Name() string { return "random" }

func (r *RandBot) Decide(state *game.PublicState) Decision {
	playable := state.Playable()
	if len(playable) == 0 {
		return draw("rand-bot nothing playable")
	}
	card := playable[r.rng.IntN(len(playable))]
	d := Decision{CardID: card.ID, Reasoning: "rand-bot random card"}
	if card.IsWild() {
		d.Color = deck.Colors[r.rng.IntN(len(deck.Colors))]
	}
	return d
}
