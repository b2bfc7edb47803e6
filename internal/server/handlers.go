package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/lox/unoroom/internal/deck"
	"github.com/lox/unoroom/internal/game"
	"github.com/lox/unoroom/internal/gameid"
	"github.com/lox/unoroom/internal/store"
)

// NameRequest is the body of create and join.
type NameRequest struct {
	Name string `json:"name"`
}

// PlayerRequest is the body of start, draw and uno.
type PlayerRequest struct {
	PlayerID string `json:"playerId"`
}

// PlayRequest is the body of play.
type PlayRequest struct {
	PlayerID    string     `json:"playerId"`
	CardID      string     `json:"cardId"`
	ChosenColor deck.Color `json:"chosenColor,omitempty"`
}

// JoinResponse is returned by create and join.
type JoinResponse struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
}

// OKResponse is returned by actions that carry no data.
type OKResponse struct {
	OK bool `json:"ok"`
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid request body")
	}
	return nil
}

// roomID normalizes the room code in the path. Malformed codes cannot name
// a room and are reported as missing.
func roomID(r *http.Request) (string, error) {
	id := strings.ToLower(strings.TrimSpace(r.PathValue("roomId")))
	if gameid.ValidateRoomCode(id) != nil {
		return "", store.ErrRoomNotFound
	}
	return id, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	room, hostID, err := s.engine.CreateRoom(req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	for attempt := 1; ; attempt++ {
		err = s.rooms.Create(r.Context(), room)
		if !errors.Is(err, store.ErrRoomExists) || attempt == createAttempts {
			break
		}
		room.ID = s.engine.NewRoomID()
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info().Str("room_id", room.ID).Str("host_id", hostID).Msg("Room created")
	writeJSON(w, http.StatusOK, JoinResponse{RoomID: room.ID, PlayerID: hostID})
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	id, err := roomID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req NameRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	var playerID string
	err = s.rooms.Update(r.Context(), id, func(room *game.Room) error {
		if room.Stage == game.StageLobby && s.maxPlayers > 0 && len(room.Players) >= s.maxPlayers {
			return game.NewError(game.CodeInvalidState, "room is full")
		}
		var err error
		playerID, err = s.engine.Join(room, req.Name)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info().Str("room_id", id).Str("player_id", playerID).Msg("Player joined")
	writeJSON(w, http.StatusOK, JoinResponse{RoomID: id, PlayerID: playerID})
}

// playerAction decodes a PlayerRequest and applies fn to the room.
func (s *Server) playerAction(w http.ResponseWriter, r *http.Request, fn func(room *game.Room, playerID string) error) {
	id, err := roomID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req PlayerRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.PlayerID == "" {
		s.writeError(w, r, badRequest("playerId is required"))
		return
	}

	err = s.rooms.Update(r.Context(), id, func(room *game.Room) error {
		return fn(room, req.PlayerID)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.playerAction(w, r, s.engine.Start)
}

func (s *Server) handleDraw(w http.ResponseWriter, r *http.Request) {
	s.playerAction(w, r, s.engine.DrawCard)
}

func (s *Server) handleUno(w http.ResponseWriter, r *http.Request) {
	s.playerAction(w, r, s.engine.DeclareUno)
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	id, err := roomID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req PlayRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.PlayerID == "" || req.CardID == "" {
		s.writeError(w, r, badRequest("playerId and cardId are required"))
		return
	}

	err = s.rooms.Update(r.Context(), id, func(room *game.Room) error {
		return s.engine.PlayCard(room, req.PlayerID, req.CardID, req.ChosenColor)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
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

	state, err := s.snapshot(r, id, playerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) snapshot(r *http.Request, id, playerID string) (*game.PublicState, error) {
	var state *game.PublicState
	err := s.rooms.View(r.Context(), id, func(room *game.Room) error {
		var err error
		state, err = game.Sanitize(room, playerID)
		return err
	})
	return state, err
}
