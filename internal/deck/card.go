package deck

import "fmt"

// Color represents a card color. Black is reserved for wild cards.
type Color string

const (
	Red    Color = "red"
	Blue   Color = "blue"
	Green  Color = "green"
	Yellow Color = "yellow"
	Black  Color = "black"
)

// NoColor is the zero Color, used when an optional color was not supplied.
const NoColor Color = ""

// Colors lists the four playable colors in deck order.
var Colors = []Color{Red, Blue, Green, Yellow}

// IsPlayable returns true for the four colors a wild can be resolved to.
func (c Color) IsPlayable() bool {
	switch c {
	case Red, Blue, Green, Yellow:
		return true
	default:
		return false
	}
}

// ParseColor parses a color name. Only the four playable colors are accepted.
func ParseColor(s string) (Color, error) {
	c := Color(s)
	if !c.IsPlayable() {
		return NoColor, fmt.Errorf("invalid color %q", s)
	}
	return c, nil
}

// Value represents the face of a card.
type Value string

const (
	Zero         Value = "0"
	One          Value = "1"
	Two          Value = "2"
	Three        Value = "3"
	Four         Value = "4"
	Five         Value = "5"
	Six          Value = "6"
	Seven        Value = "7"
	Eight        Value = "8"
	Nine         Value = "9"
	Skip         Value = "skip"
	Reverse      Value = "reverse"
	DrawTwo      Value = "draw-two"
	Wild         Value = "wild"
	WildDrawFour Value = "wild-draw-four"
)

// Numbers lists the number faces from zero to nine.
var Numbers = []Value{Zero, One, Two, Three, Four, Five, Six, Seven, Eight, Nine}

// IsWild returns true for wild and wild-draw-four.
func (v Value) IsWild() bool {
	return v == Wild || v == WildDrawFour
}

// IsDraw returns true for the values that create a pending draw.
func (v Value) IsDraw() bool {
	return v == DrawTwo || v == WildDrawFour
}

// DrawCount returns the number of cards the value adds to a pending draw.
func (v Value) DrawCount() int {
	switch v {
	case DrawTwo:
		return 2
	case WildDrawFour:
		return 4
	default:
		return 0
	}
}

// Card represents a single physical card.
type Card struct {
	ID    string `json:"id"`
	Color Color  `json:"color"`
	Value Value  `json:"value"`
}

// NewCard creates a card with an identity derived from its face and copy number.
func NewCard(color Color, value Value, copyNum int) Card {
	return Card{
		ID:    fmt.Sprintf("%s-%s-%d", color, value, copyNum),
		Color: color,
		Value: value,
	}
}

// String returns a human readable form (e.g. "red 7")
func (c Card) String() string {
	return fmt.Sprintf("%s %s", c.Color, c.Value)
}

// IsWild returns true if the card is a wild or wild-draw-four.
func (c Card) IsWild() bool {
	return c.Value.IsWild()
}

// WithColor returns a copy of a wild card resolved to the chosen color.
// Non-wild cards are returned unchanged.
func (c Card) WithColor(color Color) Card {
	if !c.IsWild() {
		return c
	}
	c.Color = color
	return c
}

// Reset restores a resolved wild to its printed black color.
func (c Card) Reset() Card {
	if c.IsWild() {
		c.Color = Black
	}
	return c
}
