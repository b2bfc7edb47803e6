// Package simulator plays complete games between bot strategies in process,
// going through the same store and engine the server uses.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lox/unoroom/internal/bot"
	"github.com/lox/unoroom/internal/game"
	"github.com/lox/unoroom/internal/gameid"
	"github.com/lox/unoroom/internal/randutil"
	"github.com/lox/unoroom/internal/statistics"
	"github.com/lox/unoroom/internal/store"
)

const (
	DefaultMaxTurns = 2000
	DefaultTimeout  = 10 * time.Second
)

// Config holds configuration for running simulations
type Config struct {
	Games      int
	Players    int
	Strategies []string // Assigned to seats round-robin, rotating each game
	Seed       int64
	Parallel   int
	MaxTurns   int           // Moves before a game is counted as stalled
	Timeout    time.Duration // Per game
	Logger     zerolog.Logger
}

// Simulator runs UNO game simulations
type Simulator struct {
	config Config
	rooms  *store.Manager
	logger zerolog.Logger
}

// New creates a new simulator with the given configuration
func New(config Config) (*Simulator, error) {
	if config.Games <= 0 {
		return nil, fmt.Errorf("games must be positive, got %d", config.Games)
	}
	if config.Players < game.MinPlayers || config.Players > game.MaxPlayers {
		return nil, fmt.Errorf("players must be between %d and %d, got %d", game.MinPlayers, game.MaxPlayers, config.Players)
	}
	if len(config.Strategies) == 0 {
		config.Strategies = bot.Names()
	}
	for _, name := range config.Strategies {
		if _, err := bot.New(name, randutil.New(0)); err != nil {
			return nil, err
		}
	}
	if config.Parallel <= 0 {
		config.Parallel = 1
	}
	if config.MaxTurns <= 0 {
		config.MaxTurns = DefaultMaxTurns
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	logger := config.Logger.With().Str("component", "simulator").Logger()
	return &Simulator{
		config: config,
		rooms:  store.NewManager(store.NewMemoryBackend(), logger),
		logger: logger,
	}, nil
}

// Run plays every game and returns the aggregated results. Games run
// concurrently but results are collected in game order, so a seed always
// produces the same statistics.
func (s *Simulator) Run(ctx context.Context) (*statistics.Statistics, error) {
	defer s.rooms.Close()

	results := make([]statistics.GameResult, s.config.Games)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Parallel)

	for n := range s.config.Games {
		g.Go(func() error {
			result, err := s.playGameWithTimeout(gctx, n)
			if err != nil {
				return fmt.Errorf("game %d (seed %d): %w", n+1, result.Seed, err)
			}
			results[n] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &statistics.Statistics{}
	for _, r := range results {
		stats.Add(r)
	}
	if err := stats.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}
	return stats, nil
}

// Seats returns the strategy for each seat of game n.
func (s *Simulator) Seats(n int) []string {
	seats := make([]string, s.config.Players)
	for i := range seats {
		seats[i] = s.config.Strategies[(n+i)%len(s.config.Strategies)]
	}
	return seats
}

func (s *Simulator) playGameWithTimeout(ctx context.Context, n int) (statistics.GameResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	result, err := s.playGame(ctx, n)
	if errors.Is(err, context.DeadlineExceeded) {
		return result, fmt.Errorf("game timed out after %v: %w", s.config.Timeout, err)
	}
	return result, err
}

// playGame simulates a single game. Each move is applied through
// store.Manager.Update, so every committed state passes CheckInvariants.
func (s *Simulator) playGame(ctx context.Context, n int) (statistics.GameResult, error) {
	seed := s.config.Seed + int64(n)
	seats := s.Seats(n)
	result := statistics.GameResult{Seed: seed, Seats: seats, WinnerSeat: -1}
	logger := s.logger.With().Int("game", n+1).Int64("seed", seed).Logger()

	// The seed drives the shuffle only; identifiers come from crypto/rand.
	engine := game.NewEngine(randutil.New(seed), game.WithIDGenerator(gameid.NewGenerator(nil)))
	strategies := make([]bot.Strategy, len(seats))
	for i, name := range seats {
		strategy, err := bot.New(name, randutil.New(seed^int64(i+1)<<32))
		if err != nil {
			return result, err
		}
		strategies[i] = strategy
	}

	roomID, playerIDs, err := s.setup(ctx, engine, seats)
	if err != nil {
		return result, err
	}
	defer func() {
		if err := s.rooms.Delete(context.WithoutCancel(ctx), roomID); err != nil {
			logger.Warn().Err(err).Str("room_id", roomID).Msg("Failed to delete simulated room")
		}
	}()

	seatOf := make(map[string]int, len(playerIDs))
	for i, id := range playerIDs {
		seatOf[id] = i
	}

	for result.Turns < s.config.MaxTurns {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		var state *game.PublicState
		err := s.rooms.View(ctx, roomID, func(room *game.Room) error {
			current := room.CurrentPlayer()
			if current == nil {
				state = &game.PublicState{Stage: room.Stage, WinnerID: room.WinnerID}
				if room.Stage == game.StageFinished {
					for _, p := range room.Players {
						result.CardsRemaining += len(p.Hand)
					}
				}
				return nil
			}
			var err error
			state, err = game.Sanitize(room, current.ID)
			return err
		})
		if err != nil {
			return result, err
		}

		if state.Stage == game.StageFinished {
			result.WinnerSeat = seatOf[state.WinnerID]
			logger.Debug().
				Int("turns", result.Turns).
				Str("winner", result.WinnerStrategy()).
				Msg("Game finished")
			return result, nil
		}

		playerID := state.CurrentPlayerID
		decision := strategies[seatOf[playerID]].Decide(state)
		err = s.rooms.Update(ctx, roomID, func(room *game.Room) error {
			return apply(engine, room, playerID, decision)
		})
		switch {
		case err == nil:
			result.Turns++
		case errors.Is(err, game.ErrInvalidState):
			// Every card is in a hand and nothing can be drawn.
			logger.Debug().Err(err).Int("turns", result.Turns).Msg("Game stalled")
			result.Stalled = true
			return result, nil
		default:
			return result, fmt.Errorf("turn %d, %s by %s: %w", result.Turns+1, decision, seats[seatOf[playerID]], err)
		}
	}

	logger.Debug().Int("turns", result.Turns).Msg("Game hit the move limit")
	result.Stalled = true
	return result, nil
}

func (s *Simulator) setup(ctx context.Context, engine *game.Engine, seats []string) (string, []string, error) {
	room, hostID, err := engine.CreateRoom("Seat 1 " + seats[0])
	if err != nil {
		return "", nil, err
	}
	playerIDs := []string{hostID}
	for i, name := range seats[1:] {
		id, err := engine.Join(room, fmt.Sprintf("Seat %d %s", i+2, name))
		if err != nil {
			return "", nil, err
		}
		playerIDs = append(playerIDs, id)
	}

	for {
		err = s.rooms.Create(ctx, room)
		if !errors.Is(err, store.ErrRoomExists) {
			break
		}
		room.ID = engine.NewRoomID()
	}
	if err != nil {
		return "", nil, err
	}

	err = s.rooms.Update(ctx, room.ID, func(room *game.Room) error {
		return engine.Start(room, hostID)
	})
	if err != nil {
		return "", nil, fmt.Errorf("start: %w", err)
	}
	return room.ID, playerIDs, nil
}

// apply performs one decision, calling UNO when a play leaves a single card.
func apply(engine *game.Engine, room *game.Room, playerID string, d bot.Decision) error {
	if d.Draw {
		return engine.DrawCard(room, playerID)
	}
	if err := engine.PlayCard(room, playerID, d.CardID, d.Color); err != nil {
		return err
	}
	if p, _, ok := room.Player(playerID); ok && room.Stage == game.StagePlaying && len(p.Hand) == 1 {
		return engine.DeclareUno(room, playerID)
	}
	return nil
}

// PrintSummary writes a summary of simulation results
func PrintSummary(w io.Writer, stats *statistics.Statistics) {
	low, high := stats.ConfidenceInterval95()

	fmt.Fprintf(w, "\n=== RESULTS ===\n")
	fmt.Fprintf(w, "Games played: %d (%d finished, %d stalled)\n", stats.Games, stats.Finished, stats.Stalled)

	fmt.Fprintf(w, "\n=== GAME LENGTH ===\n")
	fmt.Fprintf(w, "Mean: %.2f turns (95%% CI [%.2f, %.2f])\n", stats.Mean(), low, high)
	fmt.Fprintf(w, "Median: %.1f turns, Std Dev: %.2f, Max: %d\n", stats.Median(), stats.StdDev(), stats.MaxTurns)
	fmt.Fprintf(w, "Percentiles: P5=%.1f, P25=%.1f, P75=%.1f, P95=%.1f\n",
		stats.Percentile(0.05), stats.Percentile(0.25), stats.Percentile(0.75), stats.Percentile(0.95))
	if stats.Finished > 0 {
		fmt.Fprintf(w, "Cards left in losing hands: %.2f per game\n", float64(stats.SumCards)/float64(stats.Finished))
	}

	fmt.Fprintf(w, "\n=== STRATEGIES ===\n")
	for _, name := range stats.StrategyNames() {
		st := stats.Strategy[name]
		lo, hi := stats.WinRateInterval95(name)
		fmt.Fprintf(w, "%-12s %5d wins / %5d seats  %5.1f%%  [%.1f%%, %.1f%%]\n",
			name, st.Wins, st.Seats, st.WinRate()*100, lo*100, hi*100)
	}

	fmt.Fprintf(w, "\n=== SEATS ===\n")
	rates := make([]string, len(stats.SeatGames))
	for i := range stats.SeatGames {
		rates[i] = fmt.Sprintf("seat %d %.1f%%", i+1, stats.SeatWinRate(i)*100)
	}
	fmt.Fprintln(w, strings.Join(rates, ", "))
}
