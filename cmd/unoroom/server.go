package main

import (
	"fmt"

	"github.com/lox/unoroom/cmd/unoroom/shared"
	"github.com/lox/unoroom/internal/game"
	"github.com/lox/unoroom/internal/gameid"
	"github.com/lox/unoroom/internal/randutil"
	"github.com/lox/unoroom/internal/server"
	"github.com/lox/unoroom/internal/store"
)

// ServerCmd runs the HTTP server. Flags override the config file.
type ServerCmd struct {
	Config     string `kong:"default='unoroom.hcl',help='HCL config file (missing file uses defaults)'"`
	Addr       string `kong:"help='Listen address (host:port), overrides the config file'"`
	Debug      bool   `kong:"help='Enable debug logging'"`
	LogLevel   string `kong:"help='Log level (debug|info|warn|error)'"`
	Storage    string `kong:"help='Room storage backend (memory|file|sqlite)'"`
	Path       string `kong:"help='Storage path for the file or sqlite backend'"`
	MaxPlayers int    `kong:"help='Maximum players per room'"`
	Seed       *int64 `kong:"help='Deterministic shuffle seed (room codes and player ids stay random)'"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	err = cfg.Apply(server.Overrides{
		Addr:       c.Addr,
		LogLevel:   c.LogLevel,
		Backend:    c.Storage,
		Path:       c.Path,
		MaxPlayers: c.MaxPlayers,
	})
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := shared.ParseLevel(cfg.Server.LogLevel, c.Debug)
	if err != nil {
		return err
	}
	logger := shared.SetupFormattedLogger(cfg.Server.LogFormat, level)

	// Setup RNG and seed
	var seed int64
	if c.Seed != nil {
		seed = *c.Seed
		logger.Info().Int64("seed", seed).Msg("Using deterministic seed")
	} else {
		if seed, err = randutil.NewSeed(); err != nil {
			return err
		}
		logger.Info().Int64("seed", seed).Msg("Using random seed")
	}

	backend, err := store.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return err
	}
	hub := server.NewHub()
	rooms := store.NewManager(backend, logger,
		store.WithIdleTimeout(cfg.IdleTimeout()),
		store.WithOnChange(hub.Notify),
	)
	defer rooms.Close()

	// Setup graceful shutdown
	ctx, cancel := shared.SetupSignalHandlerWithLogger(logger)
	defer cancel()

	restored, err := rooms.Restore(ctx)
	if err != nil {
		return fmt.Errorf("restore rooms: %w", err)
	}

	engine := newEngine(seed)
	s := server.New(engine, rooms, hub, logger,
		server.WithMaxPlayers(cfg.Rooms.MaxPlayers),
		server.WithSweepInterval(cfg.SweepInterval()),
	)

	logger.Info().
		Str("address", cfg.ListenAddress()).
		Str("storage", cfg.Storage.Backend).
		Str("storage_path", cfg.Storage.Path).
		Int("max_players", cfg.Rooms.MaxPlayers).
		Dur("idle_timeout", cfg.IdleTimeout()).
		Dur("sweep_interval", cfg.SweepInterval()).
		Int("restored_rooms", restored).
		Msg("Starting unoroom server")

	return s.ListenAndServe(ctx, cfg.ListenAddress())
}

// newEngine shuffles from the seeded source but draws room codes and player
// ids from crypto/rand, so a known seed does not reveal player ids.
func newEngine(seed int64) *game.Engine {
	return game.NewEngine(randutil.NewLocked(randutil.New(seed)),
		game.WithIDGenerator(gameid.NewGenerator(nil)))
}
