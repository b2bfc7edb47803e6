package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"

	"github.com/lox/unoroom/internal/game"
)

// Watch opens a websocket to the room and delivers every state the server
// pushes. The channel is closed when ctx is cancelled or the connection ends.
func (c *Client) Watch(ctx context.Context, roomID, playerID string) (<-chan *game.PublicState, error) {
	u := *c.baseURL
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = roomPath(roomID, "ws")
	u.RawQuery = url.Values{"playerId": {playerID}}.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			if resp.StatusCode != 0 && resp.StatusCode != http.StatusSwitchingProtocols {
				return nil, decodeError(resp)
			}
		}
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	states := make(chan *game.PublicState, 1)
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	go func() {
		defer close(states)
		defer conn.Close()
		for {
			var state game.PublicState
			if err := conn.ReadJSON(&state); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && ctx.Err() == nil {
					c.logger.Debug().Err(err).Str("room_id", roomID).Msg("Watch ended")
				}
				return
			}
			// Keep only the newest state if the reader is slow.
			select {
			case states <- &state:
			default:
				select {
				case <-states:
				default:
				}
				states <- &state
			}
		}
	}()
	return states, nil
}

// Follow delivers the room state as it changes. It uses Watch when the
// server accepts websockets and otherwise polls State at the poll interval.
// The channel is closed when ctx is cancelled, the room disappears, or the
// viewer is no longer a member.
func (c *Client) Follow(ctx context.Context, roomID, playerID string) <-chan *game.PublicState {
	out := make(chan *game.PublicState)
	go func() {
		defer close(out)

		if states, err := c.Watch(ctx, roomID, playerID); err == nil {
			for state := range states {
				select {
				case out <- state:
				case <-ctx.Done():
					return
				}
			}
			if ctx.Err() != nil {
				return
			}
			c.logger.Debug().Str("room_id", roomID).Msg("Watch closed, falling back to polling")
		} else {
			c.logger.Debug().Err(err).Str("room_id", roomID).Msg("Watch unavailable, polling")
		}

		c.poll(ctx, roomID, playerID, out)
	}()
	return out
}

func (c *Client) poll(ctx context.Context, roomID, playerID string, out chan<- *game.PublicState) {
	ticker := c.clock.NewTicker(c.pollInterval, "poll")
	defer ticker.Stop()

	var last []byte
	for {
		state, err := c.State(ctx, roomID, playerID)
		switch {
		case err == nil:
			// Only deliver states that differ from the previous one.
			if data, _ := json.Marshal(state); !bytes.Equal(data, last) {
				last = data
				select {
				case out <- state:
				case <-ctx.Done():
					return
				}
			}
		case IsNotFound(err), isGone(err):
			return
		default:
			c.logger.Debug().Err(err).Msg("Poll failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// isGone reports whether the viewer is no longer part of the room.
func isGone(err error) bool {
	code, ok := game.CodeOf(err)
	return ok && code == game.CodeNotFound
}
