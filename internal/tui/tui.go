// Package tui is a terminal client for a single seat in a room.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/unoroom/internal/deck"
	"github.com/lox/unoroom/internal/game"
)

// Actions is the subset of the HTTP client the TUI drives.
type Actions interface {
	Start(ctx context.Context, roomID, playerID string) error
	Play(ctx context.Context, roomID, playerID, cardID string, color deck.Color) error
	Draw(ctx context.Context, roomID, playerID string) error
	DeclareUno(ctx context.Context, roomID, playerID string) error
}

// stateMsg carries a new view of the room.
type stateMsg struct{ state *game.PublicState }

// closedMsg is sent when the state feed ends.
type closedMsg struct{}

// resultMsg reports the outcome of an action sent to the server.
type resultMsg struct {
	cmd Command
	err error
}

// Model is the Bubble Tea model for one player's seat
type Model struct {
	ctx      context.Context
	actions  Actions
	states   <-chan *game.PublicState
	roomID   string
	playerID string
	logger   *log.Logger

	// UI components
	logViewport viewport.Model
	actionInput textinput.Model

	state       *game.PublicState
	gameLog     []string
	focusedPane int // 0 = log, 1 = input
	quitting    bool
	closed      bool

	width       int
	height      int
	initialized bool
}

// NewModel creates a model that renders states from the feed and sends
// commands through actions.
func NewModel(ctx context.Context, actions Actions, states <-chan *game.PublicState, roomID, playerID string, logger *log.Logger) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "play 3, play 5 blue, draw, uno"
	ti.Focus()
	ti.CharLimit = 64
	ti.Width = 64
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	return &Model{
		ctx:         ctx,
		actions:     actions,
		states:      states,
		roomID:      roomID,
		playerID:    playerID,
		logger:      logger.WithPrefix("tui"),
		logViewport: vp,
		actionInput: ti,
		focusedPane: 1,
	}
}

// Init initializes the TUI model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForState())
}

func (m *Model) waitForState() tea.Cmd {
	return func() tea.Msg {
		state, ok := <-m.states
		if !ok {
			return closedMsg{}
		}
		return stateMsg{state: state}
	}
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case stateMsg:
		m.applyState(msg.state)
		cmds = append(cmds, m.waitForState())

	case closedMsg:
		m.closed = true
		m.AddLogEntry(WarningStyle.Render("Connection to the room closed. Ctrl+C to quit."))

	case resultMsg:
		if msg.err != nil {
			m.logger.Warn("Action rejected", "command", msg.cmd.Kind, "error", msg.err)
			m.AddLogEntry(ErrorStyle.Render(describeError(msg.err)))
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		case "tab":
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.actionInput.Focus()
			} else {
				m.focusedPane = 0
				m.actionInput.Blur()
			}
		case "enter":
			if m.focusedPane == 1 {
				input := strings.TrimSpace(m.actionInput.Value())
				m.actionInput.SetValue("")
				if cmd := m.processInput(input); cmd != nil {
					return m, cmd
				}
			}
		case "up", "k":
			if m.focusedPane == 0 {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == 0 {
				m.logViewport.ScrollDown(1)
			}
		case "home", "g":
			if m.focusedPane == 0 {
				m.logViewport.GotoTop()
			}
		case "end", "G":
			if m.focusedPane == 0 {
				m.logViewport.GotoBottom()
			}
		}
	}

	var cmd tea.Cmd
	if m.focusedPane == 1 {
		m.actionInput, cmd = m.actionInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// processInput parses a line and returns the command that performs it.
func (m *Model) processInput(input string) tea.Cmd {
	cmd, err := ParseCommand(input, m.state)
	if err != nil {
		m.AddLogEntry(ErrorStyle.Render(err.Error()))
		return nil
	}

	switch cmd.Kind {
	case CommandQuit:
		m.quitting = true
		return tea.Sequence(tea.ClearScreen, tea.Quit)
	case CommandHelp:
		m.AddLogEntry(InfoStyle.Render("Commands: " + helpText))
		return nil
	}
	return m.send(cmd)
}

// send performs cmd against the server off the UI goroutine.
func (m *Model) send(cmd Command) tea.Cmd {
	ctx, actions, roomID, playerID := m.ctx, m.actions, m.roomID, m.playerID
	return func() tea.Msg {
		var err error
		switch cmd.Kind {
		case CommandPlay:
			err = actions.Play(ctx, roomID, playerID, cmd.CardID, cmd.Color)
		case CommandDraw:
			err = actions.Draw(ctx, roomID, playerID)
		case CommandUno:
			err = actions.DeclareUno(ctx, roomID, playerID)
		case CommandStart:
			err = actions.Start(ctx, roomID, playerID)
		}
		return resultMsg{cmd: cmd, err: err}
	}
}

func (m *Model) applyState(state *game.PublicState) {
	prev := m.state
	m.state = state
	m.logger.Debug("State update", "stage", state.Stage, "current", state.CurrentPlayerID)

	for _, line := range describeChanges(prev, state) {
		m.AddLogEntry(line)
	}
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)
	actionPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.borderColor(1)).
		Width(max(m.width-2, 1)).
		Render(actionContent)

	sidebarContent := m.renderSidebarPane()
	sidebarWidth := max(lipgloss.Width(sidebarContent), 28)
	paneHeight := max(m.height-actionHeight-4, 1)
	sidebarPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(sidebarWidth).
		Height(paneHeight).
		Render(sidebarContent)

	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	m.logViewport.Width = max(m.width-sidebarWidth-4, 1)
	m.logViewport.Height = paneHeight
	if !m.initialized && m.logViewport.Width > 1 && m.logViewport.Height > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}
	logPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.borderColor(0)).
		Width(m.logViewport.Width).
		Height(paneHeight).
		Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

func (m *Model) borderColor(pane int) lipgloss.Color {
	if m.focusedPane == pane {
		return lipgloss.Color("#04B575")
	}
	return lipgloss.Color("#626262")
}

// renderSidebarPane shows the room and its players
func (m *Model) renderSidebarPane() string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render(" Room " + strings.ToUpper(m.roomID) + " "))
	b.WriteString("\n\n")

	s := m.state
	if s == nil {
		b.WriteString(InfoStyle.Render("Connecting..."))
		return b.String()
	}

	for _, p := range s.Players {
		marker := "  "
		style := PlayerInfoStyle
		if p.ID == s.CurrentPlayerID {
			marker = "▶ "
			style = CurrentPlayerStyle
		}
		line := fmt.Sprintf("%s%s (%d)", marker, p.Name, p.CardCount)
		if p.IsHost {
			line += " ★"
		}
		if p.HasCalledUno {
			line += " UNO!"
		}
		if p.IsSelf {
			line += " (you)"
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(InfoStyle.Render(fmt.Sprintf("Deck: %d cards", s.DeckCount)))
	b.WriteString("\n")
	if s.Stage == game.StagePlaying {
		dir := "clockwise"
		if s.Direction == game.CounterClockwise {
			dir = "counter-clockwise"
		}
		b.WriteString(InfoStyle.Render("Direction: " + dir))
		b.WriteString("\n")
	}
	return b.String()
}

// renderActionPane shows the discard pile, the hand and the input field
func (m *Model) renderActionPane() string {
	var b strings.Builder
	s := m.state

	switch {
	case s == nil:
		b.WriteString(HandInfoStyle.Render("Waiting for the room..."))
	case s.Stage == game.StageLobby:
		msg := "Waiting for the host to start."
		if s.HostID == m.playerID {
			msg = fmt.Sprintf("%d players joined. Type 'start' when everyone is here.", len(s.Players))
		}
		b.WriteString(HandInfoStyle.Render(msg))
	case s.Stage == game.StageFinished:
		b.WriteString(SuccessStyle.Render(m.winnerLine()))
	default:
		b.WriteString(m.renderTable())
	}
	b.WriteString("\n")

	if s != nil && len(s.Hand) > 0 {
		b.WriteString(m.renderHand())
		b.WriteString("\n")
	}

	b.WriteString(m.actionInput.View())
	b.WriteString("\n")

	help := "Tab to scroll log • Enter to submit • Ctrl+C to quit"
	if m.focusedPane == 0 {
		help = "Log focused: ↑↓ scroll, Home/End, Tab to input"
	}
	b.WriteString(InfoStyle.Render(help))
	return b.String()
}

func (m *Model) renderTable() string {
	s := m.state
	parts := []string{}
	if s.DiscardTop != nil {
		parts = append(parts, "Top: "+FormatCard(*s.DiscardTop))
	}
	if s.CurrentColor != "" {
		parts = append(parts, "Color: "+CardStyle(s.CurrentColor).Render(string(s.CurrentColor)))
	}
	if s.PendingDrawCount > 0 {
		parts = append(parts, WarningStyle.Render(fmt.Sprintf("Pending +%d", s.PendingDrawCount)))
	}
	if s.IsTurn() {
		parts = append(parts, ActionsStyle.Render("Your turn"))
	} else {
		parts = append(parts, InfoStyle.Render("Waiting for "+m.playerName(s.CurrentPlayerID)))
	}
	return strings.Join(parts, "  ")
}

func (m *Model) renderHand() string {
	s := m.state
	playable := make(map[string]bool)
	if s.IsTurn() {
		for _, c := range s.Playable() {
			playable[c.ID] = true
		}
	}

	cards := make([]string, len(s.Hand))
	for i, c := range s.Hand {
		label := fmt.Sprintf("%d:%s", i+1, FormatCard(c))
		if playable[c.ID] {
			label += ActionsStyle.Render("*")
		}
		cards[i] = label
	}
	return HandInfoStyle.Render("Hand: ") + strings.Join(cards, " ")
}

func (m *Model) winnerLine() string {
	if m.state.WinnerID == m.playerID {
		return "You won! 🎉"
	}
	return m.playerName(m.state.WinnerID) + " won the game."
}

func (m *Model) playerName(id string) string {
	if m.state != nil {
		for _, p := range m.state.Players {
			if p.ID == id {
				return p.Name
			}
		}
	}
	return id
}

// AddLogEntry adds an entry to the game log and scrolls to it
func (m *Model) AddLogEntry(entry string) {
	m.gameLog = append(m.gameLog, entry)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// Log returns the log entries so far.
func (m *Model) Log() []string {
	return append([]string(nil), m.gameLog...)
}

// State returns the most recent view, or nil before the first one arrives.
func (m *Model) State() *game.PublicState {
	return m.state
}

// FormatCard renders a card in its color.
func FormatCard(c deck.Card) string {
	return CardStyle(c.Color).Render("[" + c.String() + "]")
}

func describeError(err error) string {
	var gameErr *game.Error
	if errors.As(err, &gameErr) {
		return gameErr.Message
	}
	return err.Error()
}
