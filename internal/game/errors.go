package game

import (
	"errors"
	"fmt"
)

// Code is a machine-readable rule violation code.
type Code string

const (
	CodeValidation       Code = "validation_error"
	CodeInvalidState     Code = "invalid_state"
	CodeUnauthorized     Code = "unauthorized"
	CodeNotYourTurn      Code = "not_your_turn"
	CodeCardNotInHand    Code = "card_not_in_hand"
	CodeIllegalPlay      Code = "illegal_play"
	CodeNotFound         Code = "not_found"
	CodeNotEnoughPlayers Code = "not_enough_players"
)

// Error is a recoverable rule or precondition violation.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error with the same code, so callers can compare against
// the sentinels below regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrValidation       = &Error{Code: CodeValidation, Message: "invalid input"}
	ErrInvalidState     = &Error{Code: CodeInvalidState, Message: "invalid state"}
	ErrUnauthorized     = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrNotYourTurn      = &Error{Code: CodeNotYourTurn, Message: "not your turn"}
	ErrCardNotInHand    = &Error{Code: CodeCardNotInHand, Message: "card not in hand"}
	ErrIllegalPlay      = &Error{Code: CodeIllegalPlay, Message: "illegal play"}
	ErrNotFound         = &Error{Code: CodeNotFound, Message: "not found"}
	ErrNotEnoughPlayers = &Error{Code: CodeNotEnoughPlayers, Message: "not enough players"}
)

// ErrInvariant marks a broken room invariant. It is a defect, not a rule
// violation, and is never an *Error.
var ErrInvariant = errors.New("room invariant violated")

// NewError returns a rule violation with a formatted message.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the rule violation code carried by err, if any.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}
