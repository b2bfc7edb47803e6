package bot

import (
	"strconv"

	"github.com/lox/unoroom/internal/deck"
	"github.com/lox/unoroom/internal/game"
)

// AggroBot dumps its most damaging cards first: penalties, then skips and
// reverses, then high numbers. Wilds go last unless they are penalties.
type AggroBot struct {
	rng Source
}

// NewAggroBot creates a new AggroBot instance
func NewAggroBot(rng Source) *AggroBot {
	return &AggroBot{rng: rng}
}

func (a *AggroBot) Name() string { return "aggressive" }

func (a *AggroBot) Decide(state *game.PublicState) Decision {
	playable := state.Playable()
	if len(playable) == 0 {
		if state.PendingDrawCount > 0 {
			return draw("aggro-bot cannot stack, taking the penalty")
		}
		return draw("aggro-bot nothing playable")
	}

	ranked := rank(playable, aggroScore)
	best := ranked[0]

	// Break ties randomly so identical bots do not mirror each other.
	ties := 1
	for ties < len(ranked) && aggroScore(ranked[ties]) == aggroScore(best) {
		ties++
	}
	best = ranked[a.rng.IntN(ties)]

	return play(state, best, "aggro-bot highest impact card")
}

func aggroScore(c deck.Card) int {
	switch c.Value {
	case deck.WildDrawFour:
		return 100
	case deck.DrawTwo:
		return 90
	case deck.Skip, deck.Reverse:
		return 80
	case deck.Wild:
		return 0
	}
	n, err := strconv.Atoi(string(c.Value))
	if err != nil {
		return 0
	}
	return 10 + n
}
