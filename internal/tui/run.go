package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/lox/unoroom/internal/client"
)

// Config selects the seat the terminal client plays.
type Config struct {
	RoomID   string
	PlayerID string
	LogFile  string
	LogLevel string
}

// NewFileLogger opens path for writing, truncating it, and returns a logger
// that writes there so the screen is left to the TUI.
func NewFileLogger(path, level string) (*log.Logger, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := log.New(f)
	switch level {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.WarnLevel)
	}
	logger.SetReportTimestamp(true)
	return logger, f, nil
}

// Run follows the room and runs the TUI until the player quits or ctx ends.
func Run(ctx context.Context, c *client.Client, cfg Config) error {
	logger, closer, err := NewFileLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Info("Starting TUI", "room_id", cfg.RoomID, "player_id", cfg.PlayerID)
	states := c.Follow(ctx, cfg.RoomID, cfg.PlayerID)
	model := NewModel(ctx, c, states, cfg.RoomID, cfg.PlayerID, logger)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
