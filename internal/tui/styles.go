package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/lox/unoroom/internal/deck"
)

// Static styles for content elements
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true)

	GameLogStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	HandInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	ActionsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true)

	PlayerInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	CurrentPlayerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#04B575")).
				Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFEAA7")).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

var cardStyles = map[deck.Color]lipgloss.Style{
	deck.Red:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
	deck.Blue:   lipgloss.NewStyle().Foreground(lipgloss.Color("#4D96FF")).Bold(true),
	deck.Green:  lipgloss.NewStyle().Foreground(lipgloss.Color("#6BCB77")).Bold(true),
	deck.Yellow: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD93D")).Bold(true),
	deck.Black:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#333333")).Bold(true),
}

// CardStyle returns the style for cards of the given color.
func CardStyle(c deck.Color) lipgloss.Style {
	if s, ok := cardStyles[c]; ok {
		return s
	}
	return PlayerInfoStyle
}
