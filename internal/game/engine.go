package game

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/coder/quartz"

	"github.com/lox/unoroom/internal/deck"
	"github.com/lox/unoroom/internal/gameid"
)

const (
	// HandSize is the number of cards dealt to each player at start.
	HandSize = 7
	// MinPlayers is the fewest players a game can start with.
	MinPlayers = 2
	// MaxPlayers is the most players one deck can deal to while leaving a
	// card to open the discard pile.
	MaxPlayers = (deck.Size - 1) / HandSize
	// MaxNameLength is the longest display name kept, in runes.
	MaxNameLength = 24
)

// EngineOption configures an Engine during creation.
type EngineOption func(*Engine)

// WithClock sets the clock used to stamp actions.
func WithClock(clock quartz.Clock) EngineOption {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithIDGenerator sets the generator used for room codes and player ids.
func WithIDGenerator(ids *gameid.Generator) EngineOption {
	return func(e *Engine) {
		e.ids = ids
	}
}

// Engine applies UNO rules to rooms. It holds no room state of its own.
type Engine struct {
	rng   deck.Source
	clock quartz.Clock
	ids   *gameid.Generator
}

// NewEngine creates an engine with a required random source. The source is
// used for shuffling and, unless WithIDGenerator is given, for identifiers.
func NewEngine(rng deck.Source, opts ...EngineOption) *Engine {
	if rng == nil {
		panic("rng is required for engine creation")
	}

	e := &Engine{
		rng:   rng,
		clock: quartz.NewReal(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.ids == nil {
		e.ids = gameid.NewGenerator(rng)
	}
	return e
}

// CreateRoom creates a room in the lobby stage with the named host as its
// only player. It returns the room and the host's player id.
func (e *Engine) CreateRoom(hostName string) (*Room, string, error) {
	name, err := normalizeName(hostName)
	if err != nil {
		return nil, "", err
	}

	now := e.clock.Now()
	host := &Player{ID: e.ids.PlayerID(name), Name: name, Hand: []deck.Card{}}
	room := &Room{
		ID:          e.ids.RoomCode(),
		Players:     []*Player{host},
		DrawPile:    []deck.Card{},
		DiscardPile: []deck.Card{},
		Direction:   Clockwise,
		Stage:       StageLobby,
		HostID:      host.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return room, host.ID, nil
}

// NewRoomID returns a fresh room code, for callers that need to retry after
// a collision.
func (e *Engine) NewRoomID() string {
	return e.ids.RoomCode()
}

// Join adds a named player to a room in the lobby stage and returns the new
// player's id.
func (e *Engine) Join(room *Room, playerName string) (string, error) {
	name, err := normalizeName(playerName)
	if err != nil {
		return "", err
	}
	if room.Stage != StageLobby {
		return "", NewError(CodeInvalidState, "game already started")
	}

	id := e.ids.PlayerID(name)
	for {
		if _, _, taken := room.Player(id); !taken {
			break
		}
		id = e.ids.PlayerID(name)
	}

	room.Players = append(room.Players, &Player{ID: id, Name: name, Hand: []deck.Card{}})
	room.UpdatedAt = e.clock.Now()
	return id, nil
}

// Start deals a new game. Only the host may start, from the lobby, with
// between MinPlayers and MaxPlayers players.
func (e *Engine) Start(room *Room, playerID string) error {
	if !room.IsHost(playerID) {
		return NewError(CodeUnauthorized, "only the host can start the game")
	}
	if room.Stage != StageLobby {
		return NewError(CodeInvalidState, "game already started")
	}
	if len(room.Players) < MinPlayers {
		return NewError(CodeNotEnoughPlayers, "need at least %d players to start", MinPlayers)
	}
	if len(room.Players) > MaxPlayers {
		return NewError(CodeInvalidState, "too many players for one deck (max %d)", MaxPlayers)
	}

	draw, hands := e.deal(len(room.Players))

	// An opening wild goes back into the pile until a coloured card turns up.
	for draw[len(draw)-1].IsWild() {
		wild := draw[len(draw)-1]
		copy(draw[1:], draw[:len(draw)-1])
		draw[0] = wild
		deck.Shuffle(draw, e.rng)
	}
	first := draw[len(draw)-1]
	draw = draw[:len(draw)-1]

	for i, p := range room.Players {
		p.Hand = hands[i]
		p.HasCalledUno = false
	}
	room.DrawPile = draw
	room.DiscardPile = []deck.Card{first}
	room.CurrentColor = first.Color
	room.CurrentPlayerIndex = 0
	room.Direction = Clockwise
	room.PendingDrawCount = 0
	room.PendingAction = ""
	room.WinnerID = ""
	room.Stage = StagePlaying
	e.record(room, ActionStart, playerID, nil)
	return nil
}

// deal shuffles a fresh deck and deals n hands from it. A deal that leaves
// only wilds behind has no opening card and is dealt again.
func (e *Engine) deal(n int) ([]deck.Card, [][]deck.Card) {
	for {
		draw := deck.NewShuffled(e.rng)
		hands := make([][]deck.Card, n)
		for range HandSize {
			for i := range hands {
				hands[i] = append(hands[i], draw[len(draw)-1])
				draw = draw[:len(draw)-1]
			}
		}
		if slices.ContainsFunc(draw, func(c deck.Card) bool { return !c.IsWild() }) {
			return draw, hands
		}
	}
}

func (e *Engine) record(room *Room, typ ActionType, playerID string, payload *ActionPayload) {
	now := e.clock.Now()
	room.LastAction = &Action{
		Type:      typ,
		PlayerID:  playerID,
		Payload:   payload,
		Timestamp: now,
	}
	room.UpdatedAt = now
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", NewError(CodeValidation, "name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		name = strings.TrimSpace(string([]rune(name)[:MaxNameLength]))
	}
	return name, nil
}
