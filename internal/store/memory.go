package store

import (
	"context"
	"sync"

	"github.com/lox/unoroom/internal/game"
)

// MemoryBackend keeps saved rooms in a map. Rooms do not survive a restart.
type MemoryBackend struct {
	mu    sync.Mutex
	rooms map[string]*game.Room
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{rooms: make(map[string]*game.Room)}
}

func (b *MemoryBackend) Load(context.Context) ([]*game.Room, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rooms := make([]*game.Room, 0, len(b.rooms))
	for _, r := range b.rooms {
		rooms = append(rooms, r.Clone())
	}
	return rooms, nil
}

func (b *MemoryBackend) Save(_ context.Context, room *game.Room) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rooms[room.ID] = room.Clone()
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.rooms, id)
	return nil
}

func (b *MemoryBackend) Close() error { return nil }
