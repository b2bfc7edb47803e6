package deck

// Size is the number of cards in a complete deck.
const Size = 108

// Source is the randomness used for shuffling. *math/rand/v2.Rand satisfies it.
type Source interface {
	IntN(n int) int
}

// New returns the canonical, unshuffled 108-card deck.
//
// Per color: one 0, two each of 1-9, skip, reverse and draw-two. Plus four
// wild and four wild-draw-four cards.
func New() []Card {
	cards := make([]Card, 0, Size)

	for _, color := range Colors {
		cards = append(cards, NewCard(color, Zero, 1))
		for _, v := range Numbers[1:] {
			cards = append(cards, NewCard(color, v, 1), NewCard(color, v, 2))
		}
		for _, v := range []Value{Skip, Reverse, DrawTwo} {
			cards = append(cards, NewCard(color, v, 1), NewCard(color, v, 2))
		}
	}

	for i := 1; i <= 4; i++ {
		cards = append(cards, NewCard(Black, Wild, i), NewCard(Black, WildDrawFour, i))
	}

	return cards
}

// Shuffle shuffles cards in place using Fisher-Yates
func Shuffle(cards []Card, src Source) {
	for i := len(cards) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// NewShuffled returns a freshly built deck shuffled with src.
func NewShuffled(src Source) []Card {
	cards := New()
	Shuffle(cards, src)
	return cards
}
