package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/unoroom/internal/game"
)

func TestNewEngineKeepsIDsOutOfTheSeed(t *testing.T) {
	t.Parallel()

	start := func(e *game.Engine) *game.Room {
		room, hostID, err := e.CreateRoom("Host")
		require.NoError(t, err)
		_, err = e.Join(room, "Guest")
		require.NoError(t, err)
		require.NoError(t, e.Start(room, hostID))
		return room
	}

	a := start(newEngine(42))
	b := start(newEngine(42))

	assert.Equal(t, a.DrawPile, b.DrawPile, "shuffles follow the seed")
	assert.Equal(t, a.DiscardPile, b.DiscardPile)
	assert.NotEqual(t, a.ID, b.ID, "room codes do not")
	assert.NotEqual(t, a.HostID, b.HostID, "player ids do not")
	assert.NotEqual(t, a.Players[1].ID, b.Players[1].ID)
}
