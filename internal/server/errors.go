package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/lox/unoroom/internal/game"
	"github.com/lox/unoroom/internal/store"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string    `json:"error"`
	Code  game.Code `json:"code,omitempty"`
}

// statusFor maps an error to its HTTP status and public body. Anything that
// is not a rule violation or a missing room is an internal error.
func statusFor(err error) (int, errorResponse) {
	if errors.Is(err, store.ErrRoomNotFound) {
		return http.StatusNotFound, errorResponse{Error: "room not found", Code: game.CodeNotFound}
	}
	var ge *game.Error
	if errors.As(err, &ge) {
		return http.StatusBadRequest, errorResponse{Error: ge.Message, Code: ge.Code}
	}
	return http.StatusInternalServerError, errorResponse{Error: "internal error"}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := statusFor(err)
	logger := zerolog.Ctx(r.Context())
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Msg("Request failed")
	} else {
		logger.Debug().Err(err).Int("status", status).Msg("Request rejected")
	}
	writeJSON(w, status, body)
}

// badRequest reports a malformed request.
func badRequest(msg string) error {
	return game.NewError(game.CodeValidation, "%s", msg)
}
