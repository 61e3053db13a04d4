// Package password generates account passwords for onboarded users.
//
// Passwords are drawn uniformly from Alphabet and rejected until they contain
// at least one upper-case letter, one lower-case letter, one digit and one
// character from Punctuation.
package password

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
)

const (
	lowercase = "abcdefghijklmnopqrstuvwxyz"
	uppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits    = "0123456789"

	// Punctuation is the fixed set of symbols a password may contain.
	Punctuation = "!@#$%^&*()-_=+"
	// Alphabet is the union every character is sampled from.
	Alphabet = lowercase + uppercase + digits + Punctuation

	// MinLength is the shortest length that can satisfy all four classes.
	MinLength = 4
	// DefaultLength matches the length used by the course presets.
	DefaultLength = 10
)

// ErrLengthTooShort is returned for lengths below MinLength.
var ErrLengthTooShort = errors.New("password: length too short")

// Generator samples passwords from a random source.
type Generator struct {
	src io.Reader
}

// New returns a generator reading randomness from src. A nil src uses crypto/rand.
func New(src io.Reader) *Generator {
	if src == nil {
		src = rand.Reader
	}
	return &Generator{src: src}
}

// Generate returns a password of exactly length characters.
func (g *Generator) Generate(length int) (string, error) {
	if length < MinLength {
		return "", fmt.Errorf("%w: got %d, need at least %d", ErrLengthTooShort, length, MinLength)
	}
	limit := big.NewInt(int64(len(Alphabet)))
	buf := make([]byte, length)
	for {
		for i := range buf {
			n, err := rand.Int(g.src, limit)
			if err != nil {
				return "", fmt.Errorf("password: read random source: %w", err)
			}
			buf[i] = Alphabet[n.Int64()]
		}
		if candidate := string(buf); Valid(candidate) {
			return candidate, nil
		}
	}
}

// Valid reports whether pw satisfies the composition rules.
func Valid(pw string) bool {
	var upper, lower, digit, punct bool
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(Punctuation, r):
			punct = true
		}
	}
	return upper && lower && digit && punct
}
