package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lox/unoroom/internal/deck"
	"github.com/lox/unoroom/internal/game"
)

// CommandKind identifies what the player asked for.
type CommandKind string

const (
	CommandPlay  CommandKind = "play"
	CommandDraw  CommandKind = "draw"
	CommandUno   CommandKind = "uno"
	CommandStart CommandKind = "start"
	CommandHelp  CommandKind = "help"
	CommandQuit  CommandKind = "quit"
)

// Command is a parsed line of input.
type Command struct {
	Kind   CommandKind
	CardID string
	Color  deck.Color
}

const helpText = "play <n|card-id> [color], draw, uno, start, help, quit"

// ParseCommand parses a line of input against the current view. Cards can
// be named by their 1-based position in the hand or by id. A color is
// required for wilds and rejected for everything else.
func ParseCommand(input string, state *game.PublicState) (Command, error) {
	parts := strings.Fields(strings.ToLower(input))
	if len(parts) == 0 {
		return Command{}, fmt.Errorf("enter a command: %s", helpText)
	}

	switch parts[0] {
	case "play", "p":
		return parsePlay(parts[1:], state)
	case "draw", "d":
		return Command{Kind: CommandDraw}, nil
	case "uno", "u":
		return Command{Kind: CommandUno}, nil
	case "start", "s":
		return Command{Kind: CommandStart}, nil
	case "help", "h", "?":
		return Command{Kind: CommandHelp}, nil
	case "quit", "q", "exit":
		return Command{Kind: CommandQuit}, nil
	}

	// A bare number or card id is shorthand for play.
	if _, ok := findCard(parts[0], state); ok {
		return parsePlay(parts, state)
	}
	return Command{}, fmt.Errorf("unknown command %q: %s", parts[0], helpText)
}

func parsePlay(args []string, state *game.PublicState) (Command, error) {
	if len(args) == 0 {
		return Command{}, fmt.Errorf("play which card? use a number from your hand")
	}
	card, ok := findCard(args[0], state)
	if !ok {
		return Command{}, fmt.Errorf("no card %q in your hand", args[0])
	}

	cmd := Command{Kind: CommandPlay, CardID: card.ID}
	switch {
	case card.IsWild() && len(args) < 2:
		return Command{}, fmt.Errorf("choose a color for %s: red, blue, green or yellow", card)
	case card.IsWild():
		color, err := deck.ParseColor(args[1])
		if err != nil {
			return Command{}, err
		}
		cmd.Color = color
	case len(args) > 1:
		return Command{}, fmt.Errorf("only wild cards take a color")
	}
	return cmd, nil
}

func findCard(ref string, state *game.PublicState) (deck.Card, bool) {
	if state == nil {
		return deck.Card{}, false
	}
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(state.Hand) {
			return deck.Card{}, false
		}
		return state.Hand[n-1], true
	}
	for _, c := range state.Hand {
		if c.ID == ref {
			return c, true
		}
	}
	return deck.Card{}, false
}
