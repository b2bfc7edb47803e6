package game

import (
	"fmt"
	"time"

	"github.com/lox/unoroom/internal/deck"
)

// Stage is the coarse lifecycle phase of a room.
type Stage string

const (
	StageLobby    Stage = "lobby"
	StagePlaying  Stage = "playing"
	StageFinished Stage = "finished"
)

// Direction is the signed step applied to the turn pointer.
type Direction int

const (
	Clockwise        Direction = 1
	CounterClockwise Direction = -1
)

// ActionType identifies the kind of the last action taken in a room.
type ActionType string

const (
	ActionStart       ActionType = "start"
	ActionPlay        ActionType = "play"
	ActionDraw        ActionType = "draw"
	ActionResolveDraw ActionType = "resolve-draw"
	ActionUno         ActionType = "uno"
)

// ActionPayload carries the details of an action. Only the fields relevant
// to the action type are set.
type ActionPayload struct {
	Card  *deck.Card `json:"card,omitempty"`
	Count int        `json:"count,omitempty"`
}

// Action records the most recent action for display.
type Action struct {
	Type      ActionType     `json:"type"`
	PlayerID  string         `json:"playerId"`
	Payload   *ActionPayload `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Player is a participant in a room.
type Player struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Hand         []deck.Card `json:"hand"`
	HasCalledUno bool        `json:"hasCalledUno"`
}

// Room is the authoritative state of one game. The last element of
// DrawPile is the next card drawn; the last element of DiscardPile is the
// active card.
type Room struct {
	ID                 string      `json:"id"`
	Players            []*Player   `json:"players"`
	DrawPile           []deck.Card `json:"drawPile"`
	DiscardPile        []deck.Card `json:"discardPile"`
	CurrentPlayerIndex int         `json:"currentPlayerIndex"`
	Direction          Direction   `json:"direction"`
	CurrentColor       deck.Color  `json:"currentColor,omitempty"`
	PendingDrawCount   int         `json:"pendingDrawCount"`
	PendingAction      deck.Value  `json:"pendingActionKind,omitempty"`
	Stage              Stage       `json:"stage"`
	HostID             string      `json:"hostId"`
	WinnerID           string      `json:"winnerId,omitempty"`
	LastAction         *Action     `json:"lastAction,omitempty"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
}

// Player returns the player with the given id.
func (r *Room) Player(id string) (*Player, int, bool) {
	for i, p := range r.Players {
		if p.ID == id {
			return p, i, true
		}
	}
	return nil, -1, false
}

// CurrentPlayer returns the player whose turn it is, or nil outside of play.
func (r *Room) CurrentPlayer() *Player {
	if r.Stage != StagePlaying || r.CurrentPlayerIndex < 0 || r.CurrentPlayerIndex >= len(r.Players) {
		return nil
	}
	return r.Players[r.CurrentPlayerIndex]
}

// DiscardTop returns the active card.
func (r *Room) DiscardTop() (deck.Card, bool) {
	if len(r.DiscardPile) == 0 {
		return deck.Card{}, false
	}
	return r.DiscardPile[len(r.DiscardPile)-1], true
}

// IsHost reports whether id is the room's host.
func (r *Room) IsHost(id string) bool {
	return id != "" && r.HostID == id
}

// Clone returns a deep copy of the room.
func (r *Room) Clone() *Room {
	c := *r
	c.Players = make([]*Player, len(r.Players))
	for i, p := range r.Players {
		cp := *p
		cp.Hand = append([]deck.Card(nil), p.Hand...)
		c.Players[i] = &cp
	}
	c.DrawPile = append([]deck.Card(nil), r.DrawPile...)
	c.DiscardPile = append([]deck.Card(nil), r.DiscardPile...)
	c.LastAction = r.LastAction.clone()
	return &c
}

func (a *Action) clone() *Action {
	if a == nil {
		return nil
	}
	c := *a
	if a.Payload != nil {
		p := *a.Payload
		if p.Card != nil {
			card := *p.Card
			p.Card = &card
		}
		c.Payload = &p
	}
	return &c
}

// CardCount returns the number of cards across all zones.
func (r *Room) CardCount() int {
	n := len(r.DrawPile) + len(r.DiscardPile)
	for _, p := range r.Players {
		n += len(p.Hand)
	}
	return n
}

// CheckInvariants verifies the structural invariants of the room. A non-nil
// result wraps ErrInvariant and indicates a defect.
func (r *Room) CheckInvariants() error {
	if len(r.Players) == 0 {
		return fmt.Errorf("%w: room has no players", ErrInvariant)
	}
	if _, _, ok := r.Player(r.HostID); !ok {
		return fmt.Errorf("%w: host %q is not a player", ErrInvariant, r.HostID)
	}

	if (r.PendingDrawCount > 0) != (r.PendingAction != "") {
		return fmt.Errorf("%w: pending draw %d with action %q", ErrInvariant, r.PendingDrawCount, r.PendingAction)
	}
	if r.PendingAction != "" && !r.PendingAction.IsDraw() {
		return fmt.Errorf("%w: pending action %q is not a draw", ErrInvariant, r.PendingAction)
	}

	for _, p := range r.Players {
		if p.HasCalledUno && len(p.Hand) != 1 {
			return fmt.Errorf("%w: player %s called uno holding %d cards", ErrInvariant, p.ID, len(p.Hand))
		}
	}

	if r.Stage == StageLobby {
		return nil
	}

	if r.Stage == StagePlaying {
		if r.CurrentPlayerIndex < 0 || r.CurrentPlayerIndex >= len(r.Players) {
			return fmt.Errorf("%w: current player index %d out of range", ErrInvariant, r.CurrentPlayerIndex)
		}
		top, ok := r.DiscardTop()
		if !ok {
			return fmt.Errorf("%w: empty discard pile", ErrInvariant)
		}
		if top.Color == deck.Black {
			return fmt.Errorf("%w: unresolved wild %s on discard pile", ErrInvariant, top.ID)
		}
		if !r.CurrentColor.IsPlayable() {
			return fmt.Errorf("%w: current color %q", ErrInvariant, r.CurrentColor)
		}
	}

	if r.Direction != Clockwise && r.Direction != CounterClockwise {
		return fmt.Errorf("%w: direction %d", ErrInvariant, r.Direction)
	}

	return r.checkConservation()
}

func (r *Room) checkConservation() error {
	want := make(map[string]deck.Card, deck.Size)
	for _, c := range deck.New() {
		want[c.ID] = c
	}

	seen := make(map[string]bool, deck.Size)
	check := func(zone string, cards []deck.Card) error {
		for _, c := range cards {
			orig, ok := want[c.ID]
			if !ok {
				return fmt.Errorf("%w: unknown card %s in %s", ErrInvariant, c.ID, zone)
			}
			if seen[c.ID] {
				return fmt.Errorf("%w: duplicate card %s in %s", ErrInvariant, c.ID, zone)
			}
			if c.Value != orig.Value || c.Reset().Color != orig.Color {
				return fmt.Errorf("%w: card %s altered in %s", ErrInvariant, c.ID, zone)
			}
			seen[c.ID] = true
		}
		return nil
	}

	if err := check("draw pile", r.DrawPile); err != nil {
		return err
	}
	if err := check("discard pile", r.DiscardPile); err != nil {
		return err
	}
	for _, p := range r.Players {
		if err := check("hand of "+p.ID, p.Hand); err != nil {
			return err
		}
	}

	if len(seen) != deck.Size {
		return fmt.Errorf("%w: %d of %d cards accounted for", ErrInvariant, len(seen), deck.Size)
	}
	return nil
}
