package shortcode

import (
	"fmt"
	"log"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet is the 62-character set short codes are drawn from.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

const (
	// DefaultLength is the standard short code length.
	DefaultLength = 6
	// FallbackLength is used after repeated collisions.
	FallbackLength = 8

	maxAttempts = 10
)

// CodeChecker answers whether a candidate code is already taken.
type CodeChecker interface {
	ExistsByShortCode(code string) (bool, error)
}

// Generator produces random short codes and resolves collisions against
// the store.
type Generator struct {
	checker CodeChecker
	length  int
}

// NewGenerator creates a generator drawing codes of the given length.
// Lengths below 1 fall back to DefaultLength.
func NewGenerator(checker CodeChecker, length int) *Generator {
	if length < 1 {
		length = DefaultLength
	}
	return &Generator{
		checker: checker,
		length:  length,
	}
}

// Generate draws length characters uniformly at random from Alphabet.
func Generate(length int) (string, error) {
	code, err := gonanoid.Generate(Alphabet, length)
	if err != nil {
		return "", fmt.Errorf("failed to generate short code: %w", err)
	}
	return code, nil
}

// GenerateUnique returns a code absent from the store at check time. It
// tries up to 10 standard-length draws; if every draw collides it returns
// one longer draw without re-checking. That final code is a best-effort
// candidate only, and the store's unique constraint rejects it if it races
// with another insert.
func (g *Generator) GenerateUnique() (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := Generate(g.length)
		if err != nil {
			return "", err
		}

		exists, err := g.checker.ExistsByShortCode(code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}

		log.Printf("Warning: Short code collision on attempt %d: %s", attempt+1, code)
	}

	log.Printf("Warning: %d short code collisions, falling back to length %d", maxAttempts, FallbackLength)
	return Generate(FallbackLength)
}
