package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lox/unoroom/cmd/unoroom/shared"
	"github.com/lox/unoroom/internal/bot"
	"github.com/lox/unoroom/internal/client"
	"github.com/lox/unoroom/internal/game"
	"github.com/lox/unoroom/internal/randutil"
	"github.com/lox/unoroom/internal/server"
)

type BotCmd struct {
	Strategy string `arg:"" help:"Bot strategy (aggressive, random, saver)"`
	Server   string `default:"http://localhost:8080" help:"Server URL"`
	Room     string `default:"" help:"Room code to join; creates a new room when empty"`
	Count    int    `default:"1" help:"Number of bots to seat"`
	StartAt  int    `default:"0" help:"When creating a room, start once this many players have joined (default: --count)"`
	Seed     *int64 `help:"Deterministic RNG seed for bot decisions (optional)"`
	LogLevel string `default:"info" help:"Log level (debug|info|warn|error)"`
	LogJSON  bool   `help:"Output JSON logs instead of console format"`
}

func (c *BotCmd) Run() error {
	level, err := shared.ParseLevel(c.LogLevel, false)
	if err != nil {
		return err
	}
	logger := shared.SetupLogger(level)
	if c.LogJSON {
		logger = shared.SetupStructuredLogger(level)
	}
	if c.Count < 1 {
		return fmt.Errorf("count must be at least 1")
	}

	seed := int64(0)
	if c.Seed != nil {
		seed = *c.Seed
	} else if seed, err = randutil.NewSeed(); err != nil {
		return err
	}

	ctx, cancel := shared.SetupSignalHandlerWithLogger(logger)
	defer cancel()

	api, err := client.New(c.Server, client.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := api.WaitHealthy(ctx); err != nil {
		return fmt.Errorf("server not healthy: %w", err)
	}

	roomID := strings.TrimSpace(c.Room)
	host := ""
	runners := make([]*bot.Runner, 0, c.Count)
	for i := range c.Count {
		strategy, err := bot.New(c.Strategy, randutil.NewLocked(randutil.New(seed+int64(i))))
		if err != nil {
			return err
		}

		name := fmt.Sprintf("%s-bot-%d", c.Strategy, i+1)
		var joined server.JoinResponse
		if roomID == "" {
			joined, err = api.CreateRoom(ctx, name)
			host = joined.PlayerID
		} else {
			joined, err = api.Join(ctx, roomID, name)
		}
		if err != nil {
			return fmt.Errorf("seat %s: %w", name, err)
		}
		roomID = joined.RoomID
		runners = append(runners, bot.NewRunner(api, roomID, joined.PlayerID, strategy, logger))
	}

	logger.Info().Str("room_id", roomID).Int("bots", len(runners)).Msg("Bots seated")

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range runners {
		g.Go(func() error {
			_, err := r.Run(gctx)
			return err
		})
	}
	if host != "" {
		g.Go(func() error {
			return c.startWhenReady(gctx, api, roomID, host, logger)
		})
	}
	return g.Wait()
}

// startWhenReady starts the game as host once enough players are seated.
func (c *BotCmd) startWhenReady(ctx context.Context, api *client.Client, roomID, host string, logger zerolog.Logger) error {
	want := max(c.StartAt, c.Count, game.MinPlayers)
	for state := range api.Follow(ctx, roomID, host) {
		if state.Stage != game.StageLobby {
			return nil
		}
		if len(state.Players) < want {
			logger.Info().Int("players", len(state.Players)).Int("waiting_for", want).Msg("Waiting for players")
			continue
		}
		logger.Info().Int("players", len(state.Players)).Msg("Starting game")
		return api.Start(ctx, roomID, host)
	}
	return ctx.Err()
}
