package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lox/unoroom/cmd/unoroom/shared"
	"github.com/lox/unoroom/internal/client"
	"github.com/lox/unoroom/internal/server"
	"github.com/lox/unoroom/internal/tui"
)

type ClientCmd struct {
	Server   string `kong:"default='http://localhost:8080',help='Server URL'"`
	Name     string `kong:"default='',help='Display name (defaults to $USER or \"Player\")'"`
	Room     string `kong:"default='',help='Room code to join; creates a new room when empty'"`
	LogFile  string `kong:"default='unoroom-client.log',help='File the client logs to'"`
	LogLevel string `kong:"default='warn',help='Log level (debug|info|warn|error)'"`
}

func (c *ClientCmd) Run() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = os.Getenv("USER")
	}
	if name == "" {
		name = "Player"
	}

	ctx, cancel := shared.SetupSignalHandler()
	defer cancel()

	api, err := client.New(strings.TrimSpace(c.Server), client.WithLogger(zerolog.Nop()))
	if err != nil {
		return err
	}

	var joined server.JoinResponse
	if room := strings.TrimSpace(c.Room); room != "" {
		joined, err = api.Join(ctx, room, name)
	} else {
		joined, err = api.CreateRoom(ctx, name)
	}
	if err != nil {
		return fmt.Errorf("enter room: %w", err)
	}

	err = tui.Run(ctx, api, tui.Config{
		RoomID:   joined.RoomID,
		PlayerID: joined.PlayerID,
		LogFile:  c.LogFile,
		LogLevel: c.LogLevel,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Room %s, player id %s\n", strings.ToUpper(joined.RoomID), joined.PlayerID)
	return nil
}
