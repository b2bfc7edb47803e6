package server

import (
	"io"
	"testing"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/lox/unoroom/internal/game"
	"github.com/lox/unoroom/internal/randutil"
	"github.com/lox/unoroom/internal/store"
)

// testLogger creates a logger that discards output for tests
func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard).Level(zerolog.Disabled)
}

// NewTestServer wires a server over an in-memory store with a seeded engine
// and a mock clock. It is exported for other packages' tests.
func NewTestServer(t testing.TB, seed int64, opts ...Option) (*Server, *store.Manager) {
	t.Helper()
	clock := quartz.NewMock(t)
	hub := NewHub()
	rooms := store.NewManager(store.NewMemoryBackend(), testLogger(),
		store.WithClock(clock),
		store.WithOnChange(hub.Notify),
	)
	engine := game.NewEngine(randutil.NewLocked(randutil.New(seed)), game.WithClock(clock))
	return New(engine, rooms, hub, testLogger(), opts...), rooms
}
