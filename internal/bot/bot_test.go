package bot

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/lox/unoroom/internal/client"
	"github.com/lox/unoroom/internal/deck"
	"github.com/lox/unoroom/internal/game"
	"github.com/lox/unoroom/internal/randutil"
	"github.com/lox/unoroom/internal/server"
)

func card(color deck.Color, value deck.Value, n int) deck.Card {
	return deck.NewCard(color, value, n)
}

// turnState builds a view where it is the viewer's turn with the given hand
// and discard top.
func turnState(top deck.Card, hand ...deck.Card) *game.PublicState {
	return &game.PublicState{
		Stage:           game.StagePlaying,
		ViewerID:        "me",
		CurrentPlayerID: "me",
		CurrentColor:    top.Color,
		DiscardTop:      &top,
		Hand:            hand,
		Players: []game.PublicPlayer{
			{ID: "me", CardCount: len(hand), IsSelf: true},
			{ID: "them", CardCount: 7},
		},
	}
}

func TestNewStrategy(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"aggressive", "random", "saver"}, Names())

	for _, name := range Names() {
		s, err := New(name, randutil.New(1))
		require.NoError(t, err)
		assert.Equal(t, name, s.Name())
	}

	_, err := New("psychic", randutil.New(1))
	assert.ErrorContains(t, err, "unknown strategy")
}

func TestStrategiesDrawWhenStuck(t *testing.T) {
	t.Parallel()
	state := turnState(card(deck.Red, deck.Five, 1), card(deck.Blue, deck.Two, 1), card(deck.Green, deck.Skip, 1))

	for _, name := range Names() {
		s, err := New(name, randutil.New(2))
		require.NoError(t, err)
		d := s.Decide(state)
		assert.True(t, d.Draw, name)
		assert.NotEmpty(t, d.Reasoning)
	}
}

func TestStrategiesOnlyPlayLegalCards(t *testing.T) {
	t.Parallel()
	for _, name := range Names() {
		s, err := New(name, randutil.New(3))
		require.NoError(t, err)
		for range 50 {
			state := turnState(card(deck.Red, deck.Five, 1),
				card(deck.Red, deck.Seven, 1),
				card(deck.Blue, deck.Five, 2),
				card(deck.Black, deck.Wild, 1),
				card(deck.Green, deck.Two, 1),
			)
			d := s.Decide(state)
			require.False(t, d.Draw, name)
			assert.NotEqual(t, "green-2-1", d.CardID, name)
			if d.CardID == "black-wild-1" {
				assert.True(t, d.Color.IsPlayable(), name)
			}
		}
	}
}

func TestStrategiesStackPenalties(t *testing.T) {
	t.Parallel()
	state := turnState(card(deck.Red, deck.DrawTwo, 1),
		card(deck.Red, deck.Seven, 1),
		card(deck.Blue, deck.DrawTwo, 2),
	)
	state.PendingDrawCount = 2
	state.PendingActionKind = deck.DrawTwo

	for _, name := range Names() {
		s, err := New(name, randutil.New(4))
		require.NoError(t, err)
		d := s.Decide(state)
		assert.Equal(t, "blue-draw-two-2", d.CardID, name)
	}
}

func TestAggroBotPrefersPenalties(t *testing.T) {
	t.Parallel()
	bot := NewAggroBot(randutil.New(5))
	state := turnState(card(deck.Red, deck.Five, 1),
		card(deck.Red, deck.Nine, 1),
		card(deck.Red, deck.Skip, 1),
		card(deck.Black, deck.WildDrawFour, 1),
		card(deck.Blue, deck.Three, 1),
	)
	d := bot.Decide(state)
	assert.Equal(t, "black-wild-draw-four-1", d.CardID)
	assert.Equal(t, deck.Red, d.Color, "picks the color it holds most of")
}

func TestSaverBotKeepsWilds(t *testing.T) {
	t.Parallel()
	bot := NewSaverBot(randutil.New(6))
	hand := []deck.Card{
		card(deck.Black, deck.Wild, 1),
		card(deck.Blue, deck.Five, 1),
		card(deck.Red, deck.Seven, 1),
		card(deck.Red, deck.Eight, 1),
	}
	state := turnState(card(deck.Red, deck.Five, 2), hand...)

	d := bot.Decide(state)
	assert.Equal(t, "red-7-1", d.CardID, "main color before value match, wild held back")

	// An opponent on two cards makes the wild worth spending.
	state.Players[1].CardCount = 2
	d = bot.Decide(state)
	assert.Equal(t, "black-wild-1", d.CardID)
	assert.Equal(t, deck.Red, d.Color)
}

func TestBestColor(t *testing.T) {
	t.Parallel()
	hand := []deck.Card{
		card(deck.Green, deck.One, 1),
		card(deck.Green, deck.Two, 1),
		card(deck.Yellow, deck.Three, 1),
		card(deck.Black, deck.Wild, 1),
	}
	assert.Equal(t, deck.Green, bestColor(hand, ""))
	assert.Equal(t, deck.Yellow, bestColor(hand[2:], ""))
	assert.Equal(t, deck.Red, bestColor(hand[3:], ""), "no colored cards falls back to deck order")
	assert.Equal(t, deck.Red, bestColor(nil, ""))
}

func TestRunnersPlayAFullGame(t *testing.T) {
	t.Parallel()
	s, _ := server.NewTestServer(t, 21)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := client.New(ts.URL)
	require.NoError(t, err)

	host, err := c.CreateRoom(ctx, "Aggro")
	require.NoError(t, err)
	guest, err := c.Join(ctx, host.RoomID, "Saver")
	require.NoError(t, err)

	runners := []*Runner{
		NewRunner(c, host.RoomID, host.PlayerID, NewAggroBot(randutil.NewLocked(randutil.New(1))), zerolog.Nop()),
		NewRunner(c, host.RoomID, guest.PlayerID, NewSaverBot(randutil.NewLocked(randutil.New(2))), zerolog.Nop()),
	}
	assert.NotEqual(t, runners[0].ID, runners[1].ID)

	results := make([]*game.PublicState, len(runners))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range runners {
		g.Go(func() error {
			final, err := r.Run(gctx)
			results[i] = final
			return err
		})
	}

	require.NoError(t, c.Start(ctx, host.RoomID, host.PlayerID))
	require.NoError(t, g.Wait())

	for _, final := range results {
		require.NotNil(t, final)
		assert.Equal(t, game.StageFinished, final.Stage)
		assert.Contains(t, []string{host.PlayerID, guest.PlayerID}, final.WinnerID)
	}
	assert.Equal(t, results[0].WinnerID, results[1].WinnerID)
}
