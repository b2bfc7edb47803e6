// Package store keeps rooms in memory, serializes mutations per room and
// persists every committed change through a Backend.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/lox/unoroom/internal/game"
)

var (
	// ErrRoomNotFound is returned for unknown or expired room ids.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomExists is returned when creating a room whose id is taken.
	ErrRoomExists = errors.New("room already exists")
)

// Backend persists rooms. Implementations must be safe for concurrent use
// across different room ids; the Manager never saves the same room twice
// concurrently.
type Backend interface {
	Load(ctx context.Context) ([]*game.Room, error)
	Save(ctx context.Context, room *game.Room) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the clock used for idle tracking.
func WithClock(clock quartz.Clock) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

// WithIdleTimeout sets how long a room may go without a mutation before the
// janitor removes it. Zero disables expiry.
func WithIdleTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.idleTimeout = d
	}
}

// WithOnChange registers a callback invoked after every committed create,
// update or delete, outside of the room lock.
func WithOnChange(fn func(roomID string)) Option {
	return func(m *Manager) {
		m.onChange = append(m.onChange, fn)
	}
}

type entry struct {
	mu      sync.RWMutex
	room    *game.Room
	touched time.Time
	deleted bool
}

// Manager is the room container. Each room has its own lock; the map lock is
// held only for lookup and insert.
type Manager struct {
	logger      zerolog.Logger
	backend     Backend
	clock       quartz.Clock
	idleTimeout time.Duration
	onChange    []func(roomID string)

	mu    sync.RWMutex
	rooms map[string]*entry
}

// NewManager creates a manager over backend.
func NewManager(backend Backend, logger zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{
		logger:  logger.With().Str("component", "store").Logger(),
		backend: backend,
		clock:   quartz.NewReal(),
		rooms:   make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Restore loads every persisted room into memory. Rooms that fail their
// invariants are skipped and logged.
func (m *Manager) Restore(ctx context.Context) (int, error) {
	rooms, err := m.backend.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load rooms: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	restored := 0
	for _, room := range rooms {
		if err := room.CheckInvariants(); err != nil {
			m.logger.Warn().Err(err).Str("room_id", room.ID).Msg("Skipping corrupt room")
			continue
		}
		m.rooms[room.ID] = &entry{room: room, touched: room.UpdatedAt}
		restored++
	}
	m.logger.Info().Int("rooms", restored).Msg("Restored rooms")
	return restored, nil
}

// Create stores a new room.
func (m *Manager) Create(ctx context.Context, room *game.Room) error {
	if err := room.CheckInvariants(); err != nil {
		return err
	}
	if err := m.insert(ctx, room); err != nil {
		return err
	}

	m.logger.Debug().Str("room_id", room.ID).Msg("Room created")
	m.notify(room.ID)
	return nil
}

func (m *Manager) insert(ctx context.Context, room *game.Room) error {
	m.mu.Lock()
	if _, ok := m.rooms[room.ID]; ok {
		m.mu.Unlock()
		return ErrRoomExists
	}
	e := &entry{room: room.Clone(), touched: m.clock.Now()}
	e.mu.Lock()
	defer e.mu.Unlock()
	m.rooms[room.ID] = e
	m.mu.Unlock()

	if err := m.backend.Save(ctx, e.room); err != nil {
		e.deleted = true
		m.remove(room.ID, e)
		return fmt.Errorf("save room %s: %w", room.ID, err)
	}
	return nil
}

// Update runs fn against a copy of the room under the room's exclusive lock.
// The copy replaces the stored room only when fn succeeds, the result passes
// CheckInvariants and the backend saves it. Otherwise the room is unchanged.
// The lock is released even if fn panics.
func (m *Manager) Update(ctx context.Context, id string, fn func(room *game.Room) error) error {
	e, ok := m.lookup(id)
	if !ok {
		return ErrRoomNotFound
	}
	if err := m.commit(ctx, id, e, fn); err != nil {
		return err
	}

	m.notify(id)
	return nil
}

func (m *Manager) commit(ctx context.Context, id string, e *entry, fn func(room *game.Room) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return ErrRoomNotFound
	}

	next := e.room.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := next.CheckInvariants(); err != nil {
		m.logger.Error().Err(err).Str("room_id", id).Msg("Rejected mutation")
		return err
	}
	if err := m.backend.Save(ctx, next); err != nil {
		return fmt.Errorf("save room %s: %w", id, err)
	}
	e.room = next
	e.touched = m.clock.Now()
	return nil
}

// View runs fn under the room's shared lock. fn must not modify the room or
// retain references to it.
func (m *Manager) View(_ context.Context, id string, fn func(room *game.Room) error) error {
	e, ok := m.lookup(id)
	if !ok {
		return ErrRoomNotFound
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.deleted {
		return ErrRoomNotFound
	}
	return fn(e.room)
}

// Delete removes a room from memory and from the backend.
func (m *Manager) Delete(ctx context.Context, id string) error {
	e, ok := m.lookup(id)
	if !ok {
		return ErrRoomNotFound
	}
	if _, err := m.retire(ctx, id, e, nil); err != nil {
		return err
	}

	m.remove(id, e)
	m.notify(id)
	return nil
}

// retire marks e deleted and removes it from the backend. When keep is set
// and reports true for the entry, nothing happens and retire returns false.
func (m *Manager) retire(ctx context.Context, id string, e *entry, keep func(e *entry) bool) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return false, ErrRoomNotFound
	}
	if keep != nil && keep(e) {
		return false, nil
	}
	if err := m.backend.Delete(ctx, id); err != nil {
		return false, fmt.Errorf("delete room %s: %w", id, err)
	}
	e.deleted = true
	return true, nil
}

// Len returns the number of live rooms.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// IDs returns the live room ids in sorted order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	ids := make([]string, 0, len(m.rooms))
	for id := range m.rooms {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Sweep deletes rooms that have not been mutated within the idle timeout and
// returns how many were removed.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	if m.idleTimeout <= 0 {
		return 0, nil
	}
	now := m.clock.Now()
	fresh := func(e *entry) bool {
		return now.Sub(e.touched) < m.idleTimeout
	}

	m.mu.RLock()
	candidates := make(map[string]*entry, len(m.rooms))
	for id, e := range m.rooms {
		candidates[id] = e
	}
	m.mu.RUnlock()

	var errs []error
	removed := 0
	for id, e := range candidates {
		retired, err := m.retire(ctx, id, e, fresh)
		if errors.Is(err, ErrRoomNotFound) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !retired {
			continue
		}
		m.remove(id, e)
		m.notify(id)
		removed++
		m.logger.Info().Str("room_id", id).Time("last_update", e.touched).Msg("Expired idle room")
	}
	return removed, errors.Join(errs...)
}

// RunJanitor sweeps idle rooms every interval until ctx is cancelled.
func (m *Manager) RunJanitor(ctx context.Context, interval time.Duration) error {
	if m.idleTimeout <= 0 || interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := m.clock.NewTicker(interval, "janitor")
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := m.Sweep(ctx); err != nil {
				m.logger.Error().Err(err).Msg("Sweep failed")
			}
		}
	}
}

// Close closes the backend.
func (m *Manager) Close() error {
	return m.backend.Close()
}

func (m *Manager) lookup(id string) (*entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.rooms[id]
	return e, ok
}

// remove drops id from the map if it still refers to e.
func (m *Manager) remove(id string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rooms[id] == e {
		delete(m.rooms, id)
	}
}

func (m *Manager) notify(id string) {
	for _, fn := range m.onChange {
		fn(id)
	}
}
