package tui

import (
	"fmt"

	"github.com/lox/unoroom/internal/game"
)

// describeChanges returns log lines for what happened between two views.
func describeChanges(prev, next *game.PublicState) []string {
	var lines []string
	if prev == nil {
		if self, ok := next.Self(); ok {
			lines = append(lines, InfoStyle.Render(fmt.Sprintf("Joined room %s as %s.", next.RoomID, self.Name)))
		}
	}

	if next.Stage == game.StageLobby {
		known := make(map[string]bool)
		if prev != nil {
			for _, p := range prev.Players {
				known[p.ID] = true
			}
		}
		for _, p := range next.Players {
			if prev != nil && !known[p.ID] {
				lines = append(lines, GameLogStyle.Render(p.Name+" joined."))
			}
		}
	}

	if a := next.LastAction; a != nil && (prev == nil || !sameAction(prev.LastAction, a)) {
		lines = append(lines, describeAction(next, a))
	}

	if next.Stage == game.StageFinished && (prev == nil || prev.Stage != game.StageFinished) {
		lines = append(lines, SuccessStyle.Render(nameOf(next, next.WinnerID)+" wins the game!"))
	}
	return lines
}

func describeAction(s *game.PublicState, a *game.Action) string {
	who := nameOf(s, a.PlayerID)
	switch a.Type {
	case game.ActionStart:
		return HeaderStyle.Render(" " + who + " started the game ")
	case game.ActionPlay:
		if a.Payload == nil || a.Payload.Card == nil {
			return GameLogStyle.Render(who + " played a card")
		}
		card := *a.Payload.Card
		line := who + " played " + FormatCard(card.Reset())
		if card.IsWild() {
			line += " and chose " + CardStyle(card.Color).Render(string(card.Color))
		}
		return GameLogStyle.Render(line)
	case game.ActionDraw:
		return GameLogStyle.Render(who + " drew a card")
	case game.ActionResolveDraw:
		count := 0
		if a.Payload != nil {
			count = a.Payload.Count
		}
		return WarningStyle.Render(fmt.Sprintf("%s drew %d penalty cards", who, count))
	case game.ActionUno:
		return ActionsStyle.Render(who + " called UNO!")
	}
	return GameLogStyle.Render(fmt.Sprintf("%s: %s", who, a.Type))
}

func sameAction(a, b *game.Action) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Type == b.Type && a.PlayerID == b.PlayerID && a.Timestamp.Equal(b.Timestamp)
}

func nameOf(s *game.PublicState, id string) string {
	for _, p := range s.Players {
		if p.ID == id {
			if p.IsSelf {
				return "You"
			}
			return p.Name
		}
	}
	return id
}
