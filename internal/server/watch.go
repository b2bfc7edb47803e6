package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// handleWatch upgrades to a websocket and pushes the viewer's state after
// every committed change to the room. Errors are reported as plain HTTP
// responses before the upgrade.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	id, err := roomID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		s.writeError(w, r, badRequest("playerId is required"))
		return
	}
	if _, err := s.snapshot(r, id, playerID); err != nil {
		s.writeError(w, r, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	wt := newWatcher(id, playerID, conn)
	s.hub.register(wt)
	defer s.hub.unregister(wt)
	defer wt.close()

	logger := s.logger.With().Str("room_id", id).Str("player_id", playerID).Logger()
	logger.Debug().Msg("Watcher connected")

	go s.readLoop(wt, logger)
	s.writeLoop(r, wt, logger)
	logger.Debug().Msg("Watcher disconnected")
}

// readLoop discards client messages and keeps the read deadline fresh. It
// closes the watcher when the peer goes away.
func (s *Server) readLoop(wt *watcher, logger zerolog.Logger) {
	defer wt.close()

	_ = wt.conn.SetReadDeadline(time.Now().Add(pongWait))
	wt.conn.SetPongHandler(func(string) error {
		return wt.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := wt.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug().Err(err).Msg("Unexpected WebSocket close")
			}
			return
		}
	}
}

func (s *Server) writeLoop(r *http.Request, wt *watcher, logger zerolog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	// Initial frame.
	wt.signal()

	for {
		select {
		case <-wt.done:
			return
		case <-wt.changed:
			state, err := s.snapshot(r, wt.roomID, wt.playerID)
			if err != nil {
				// The room expired or the player vanished.
				_ = wt.conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = wt.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, err.Error()))
				return
			}
			_ = wt.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wt.conn.WriteJSON(state); err != nil {
				logger.Debug().Err(err).Msg("Write failed")
				return
			}
		case <-ticker.C:
			_ = wt.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wt.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
