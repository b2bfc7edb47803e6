package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/unoroom/internal/game"
	"github.com/lox/unoroom/internal/randutil"
)

func TestBackends(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		open func(t *testing.T) Backend
	}{
		{name: "memory", open: func(t *testing.T) Backend { return NewMemoryBackend() }},
		{name: "file", open: func(t *testing.T) Backend {
			b, err := Open(BackendFile, filepath.Join(t.TempDir(), "rooms"))
			require.NoError(t, err)
			return b
		}},
		{name: "sqlite", open: func(t *testing.T) Backend {
			b, err := Open(BackendSQLite, filepath.Join(t.TempDir(), "rooms.db"))
			require.NoError(t, err)
			return b
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			b := tt.open(t)
			defer b.Close()

			engine := game.NewEngine(randutil.New(3), game.WithClock(quartz.NewMock(t)))
			room, hostID, err := engine.CreateRoom("Host")
			require.NoError(t, err)
			_, err = engine.Join(room, "Guest")
			require.NoError(t, err)
			require.NoError(t, engine.Start(room, hostID))
			require.NoError(t, b.Save(ctx, room))

			// Saving again replaces the stored document.
			require.NoError(t, engine.DrawCard(room, hostID))
			require.NoError(t, b.Save(ctx, room))

			loaded, err := b.Load(ctx)
			require.NoError(t, err)
			require.Len(t, loaded, 1)
			got := loaded[0]
			assert.Equal(t, room.ID, got.ID)
			assert.Equal(t, room.Stage, got.Stage)
			assert.Equal(t, room.DrawPile, got.DrawPile)
			assert.Equal(t, room.DiscardPile, got.DiscardPile)
			assert.Equal(t, room.CurrentPlayerIndex, got.CurrentPlayerIndex)
			assert.Equal(t, room.CurrentColor, got.CurrentColor)
			require.Len(t, got.Players, 2)
			assert.Equal(t, room.Players[0].Hand, got.Players[0].Hand)
			assert.Equal(t, game.ActionDraw, got.LastAction.Type)
			assert.True(t, room.UpdatedAt.Equal(got.UpdatedAt))
			assert.NoError(t, got.CheckInvariants())

			require.NoError(t, b.Delete(ctx, room.ID))
			require.NoError(t, b.Delete(ctx, room.ID), "deleting twice is not an error")
			loaded, err = b.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, loaded)
		})
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	t.Parallel()
	_, err := Open("redis", "")
	assert.ErrorContains(t, err, "unknown storage backend")

	_, err = Open(BackendSQLite, " ")
	assert.Error(t, err)
}

func TestFileBackendSkipsForeignFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	b, err := NewFileBackend(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "abc.json.tmp.123"), []byte("{"), 0o644))

	rooms, err := b.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "room.json")

	require.NoError(t, writeFileAtomic(path, []byte("first"), 0o600))
	require.NoError(t, writeFileAtomic(path, []byte("second"), 0o600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}
