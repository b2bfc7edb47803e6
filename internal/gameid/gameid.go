// Package gameid generates room codes and player identifiers.
package gameid

import (
	"crypto/rand"
	"fmt"
	"strings"
	"unicode"
)

// Base32 alphabet used for codes (Crockford's base32)
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

const (
	// RoomCodeLength is the length of a room code.
	RoomCodeLength = 6
	playerSuffix   = 8
	maxSlugLength  = 16
)

// RandSource interface for dependency injection of randomness
type RandSource interface {
	IntN(n int) int
}

// Generator handles ID generation with configurable randomness
type Generator struct {
	randSource RandSource
}

// NewGenerator creates a new generator with optional RandSource. A nil
// source uses crypto/rand.
func NewGenerator(randSource RandSource) *Generator {
	return &Generator{randSource: randSource}
}

// RoomCode returns a new six character room code.
func (g *Generator) RoomCode() string {
	return g.random(RoomCodeLength)
}

// PlayerID returns an identifier derived from the player's display name,
// e.g. "alice-k3v9x0qa".
func (g *Generator) PlayerID(name string) string {
	slug := Slug(name)
	if slug == "" {
		slug = "player"
	}
	return slug + "-" + g.random(playerSuffix)
}

func (g *Generator) random(n int) string {
	out := make([]byte, n)

	if g.randSource != nil {
		// Use provided RandSource for deterministic testing
		for i := range out {
			out[i] = alphabet[g.randSource.IntN(len(alphabet))]
		}
		return string(out)
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic("failed to generate random bytes: " + err.Error())
	}
	for i, b := range buf {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(out)
}

// Slug lowercases name and keeps letters and digits, collapsing everything
// else into single dashes.
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
		if b.Len() >= maxSlugLength {
			break
		}
	}
	return strings.Trim(b.String(), "-")
}

// ValidateRoomCode checks if a room code is well formed
func ValidateRoomCode(code string) error {
	if len(code) != RoomCodeLength {
		return fmt.Errorf("room code must be exactly %d characters, got %d", RoomCodeLength, len(code))
	}

	for i, char := range code {
		if !strings.ContainsRune(alphabet, char) {
			return fmt.Errorf("invalid character %c at position %d", char, i)
		}
	}

	return nil
}
