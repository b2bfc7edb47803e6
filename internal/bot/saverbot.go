package bot

import (
	"github.com/lox/unoroom/internal/deck"
	"github.com/lox/unoroom/internal/game"
)

// SaverBot keeps its wilds for emergencies. It prefers cards of the color
// it holds most of, so that the pile stays in its favour, and only plays a
// wild when nothing else fits or an opponent is about to win.
type SaverBot struct {
	rng Source
}

// NewSaverBot creates a new SaverBot instance
func NewSaverBot(rng Source) *SaverBot {
	return &SaverBot{rng: rng}
}

func (s *SaverBot) Name() string { return "saver" }

func (s *SaverBot) Decide(state *game.PublicState) Decision {
	playable := state.Playable()
	if len(playable) == 0 {
		return draw("saver-bot nothing playable")
	}

	threatened := false
	for _, p := range state.Players {
		if !p.IsSelf && p.CardCount <= 2 {
			threatened = true
		}
	}

	main := bestColor(state.Hand, "")
	score := func(c deck.Card) int {
		switch {
		case c.IsWild() && threatened:
			return 50
		case c.IsWild():
			return -10
		case c.Color == main:
			return 20
		default:
			return 10
		}
	}

	ranked := rank(playable, score)
	if score(ranked[0]) < 0 && len(ranked) > 1 {
		// Only wilds; any of them will do.
		return play(state, ranked[s.rng.IntN(len(ranked))], "saver-bot forced to use a wild")
	}
	reason := "saver-bot keeps the pile on its main color"
	if ranked[0].IsWild() {
		reason = "saver-bot opponent close to winning"
	}
	return play(state, ranked[0], reason)
}
