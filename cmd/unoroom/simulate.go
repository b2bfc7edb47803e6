package main

import (
	"fmt"
	"os"
	"time"

	"github.com/lox/unoroom/cmd/unoroom/shared"
	"github.com/lox/unoroom/internal/randutil"
	"github.com/lox/unoroom/internal/simulator"
)

type SimulateCmd struct {
	Games      int           `default:"1000" help:"Number of games to play"`
	Players    int           `default:"4" help:"Players per game"`
	Strategies []string      `default:"aggressive,random,saver" help:"Strategies assigned to seats round-robin"`
	Seed       *int64        `help:"Base seed; game n uses seed+n (optional)"`
	Parallel   int           `default:"4" help:"Games to run concurrently"`
	MaxTurns   int           `default:"2000" help:"Moves before a game counts as stalled"`
	Timeout    time.Duration `default:"10s" help:"Per-game timeout"`
	Debug      bool          `help:"Enable debug logging"`
}

func (c *SimulateCmd) Run() error {
	level, _ := shared.ParseLevel("warn", c.Debug)
	logger := shared.SetupLogger(level)

	var seed int64
	if c.Seed != nil {
		seed = *c.Seed
	} else {
		var err error
		if seed, err = randutil.NewSeed(); err != nil {
			return err
		}
	}

	ctx, cancel := shared.SetupSignalHandlerWithLogger(logger)
	defer cancel()

	sim, err := simulator.New(simulator.Config{
		Games:      c.Games,
		Players:    c.Players,
		Strategies: c.Strategies,
		Seed:       seed,
		Parallel:   c.Parallel,
		MaxTurns:   c.MaxTurns,
		Timeout:    c.Timeout,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	start := time.Now()
	stats, err := sim.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Simulated %d games of %d players in %v (seed %d)\n", stats.Games, c.Players, time.Since(start).Round(time.Millisecond), seed)
	simulator.PrintSummary(os.Stdout, stats)
	return nil
}
