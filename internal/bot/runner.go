package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lox/unoroom/internal/client"
	"github.com/lox/unoroom/internal/game"
)

// ErrRoomClosed is returned when the room disappears before the game ends.
var ErrRoomClosed = errors.New("room closed before the game finished")

// Runner plays one seat of a remote room with a strategy.
type Runner struct {
	ID       string
	client   *client.Client
	roomID   string
	playerID string
	strategy Strategy
	logger   zerolog.Logger
}

// NewRunner creates a runner for an already joined player.
func NewRunner(c *client.Client, roomID, playerID string, strategy Strategy, logger zerolog.Logger) *Runner {
	id := uuid.NewString()
	return &Runner{
		ID:       id,
		client:   c,
		roomID:   roomID,
		playerID: playerID,
		strategy: strategy,
		logger: logger.With().
			Str("component", "bot").
			Str("bot_id", id).
			Str("strategy", strategy.Name()).
			Str("room_id", roomID).
			Str("player_id", playerID).
			Logger(),
	}
}

// Run plays until the game finishes and returns the final state.
func (r *Runner) Run(ctx context.Context) (*game.PublicState, error) {
	for state := range r.client.Follow(ctx, r.roomID, r.playerID) {
		if state.Stage == game.StageFinished {
			r.logger.Info().Str("winner_id", state.WinnerID).Bool("won", state.WinnerID == r.playerID).Msg("Game finished")
			return state, nil
		}
		if !state.IsTurn() {
			continue
		}
		if err := r.act(ctx, state); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, ErrRoomClosed
}

func (r *Runner) act(ctx context.Context, state *game.PublicState) error {
	decision := r.strategy.Decide(state)
	r.logger.Debug().
		Str("decision", decision.String()).
		Str("reasoning", decision.Reasoning).
		Int("hand", len(state.Hand)).
		Msg("Bot decision")

	var err error
	if decision.Draw {
		err = r.client.Draw(ctx, r.roomID, r.playerID)
	} else {
		err = r.client.Play(ctx, r.roomID, r.playerID, decision.CardID, decision.Color)
		if err == nil && len(state.Hand) == 2 {
			err = r.client.DeclareUno(ctx, r.roomID, r.playerID)
		}
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, game.ErrNotYourTurn):
		// Acted on a stale state; the next one will tell.
		r.logger.Debug().Err(err).Msg("Stale state")
		return nil
	case errors.Is(err, game.ErrIllegalPlay), errors.Is(err, game.ErrValidation), errors.Is(err, game.ErrCardNotInHand):
		r.logger.Warn().Err(err).Str("decision", decision.String()).Msg("Rejected move, drawing instead")
		if err := r.client.Draw(ctx, r.roomID, r.playerID); err != nil && !errors.Is(err, game.ErrNotYourTurn) {
			return fmt.Errorf("fallback draw: %w", err)
		}
		return nil
	case errors.Is(err, game.ErrInvalidState):
		// Game ended or the piles ran dry; the next state will show which.
		r.logger.Debug().Err(err).Msg("Move not possible")
		return nil
	default:
		return fmt.Errorf("%s: %w", decision, err)
	}
}
