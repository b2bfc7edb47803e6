package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// watcher is one websocket subscribed to a room's state.
type watcher struct {
	roomID   string
	playerID string
	conn     *websocket.Conn
	changed  chan struct{}
	done     chan struct{}
	once     sync.Once
}

func newWatcher(roomID, playerID string, conn *websocket.Conn) *watcher {
	return &watcher{
		roomID:   roomID,
		playerID: playerID,
		conn:     conn,
		changed:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// signal marks the room as changed without blocking. Consecutive changes
// collapse into one pending notification.
func (w *watcher) signal() {
	select {
	case w.changed <- struct{}{}:
	default:
	}
}

func (w *watcher) close() {
	w.once.Do(func() {
		close(w.done)
		_ = w.conn.Close()
	})
}

// Hub tracks websocket watchers per room.
type Hub struct {
	mu       sync.RWMutex
	watchers map[string]map[*watcher]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{watchers: make(map[string]map[*watcher]struct{})}
}

func (h *Hub) register(w *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.watchers[w.roomID]
	if !ok {
		set = make(map[*watcher]struct{})
		h.watchers[w.roomID] = set
	}
	set[w] = struct{}{}
}

func (h *Hub) unregister(w *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.watchers[w.roomID]
	delete(set, w)
	if len(set) == 0 {
		delete(h.watchers, w.roomID)
	}
}

// Notify wakes every watcher of roomID.
func (h *Hub) Notify(roomID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for w := range h.watchers[roomID] {
		w.signal()
	}
}

// Count returns the number of watchers of roomID.
func (h *Hub) Count(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers[roomID])
}

// CloseAll disconnects every watcher.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	var all []*watcher
	for _, set := range h.watchers {
		for w := range set {
			all = append(all, w)
		}
	}
	h.mu.RUnlock()

	for _, w := range all {
		w.close()
	}
}
