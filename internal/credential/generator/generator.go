// Package generator produces human-enterable voting codes.
package generator

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
)

// maxLoadFactor bounds how much of the numeric code space an election may
// consume. Past this point collision retries degrade sharply and guessing
// odds creep up, so issuance fails with a capacity error instead.
const maxLoadFactor = 0.1

// collisionRetries is the per-code retry budget on digest collision.
const collisionRetries = 10

// Generator draws random numeric codes of a fixed length.
type Generator struct {
	length int
	space  int64
}

// New creates a generator for codes of the given digit length.
func New(length int) *Generator {
	if length < 4 {
		length = 4
	}
	return &Generator{
		length: length,
		space:  int64(math.Pow10(length)),
	}
}

// Length returns the configured code length in digits.
func (g *Generator) Length() int { return g.length }

// Capacity returns how many codes an election may hold before issuance
// must be refused.
func (g *Generator) Capacity() int64 {
	return int64(float64(g.space) * maxLoadFactor)
}

// Retries returns the per-code collision retry budget.
func (g *Generator) Retries() int { return collisionRetries }

// Code draws one uniformly random code, zero-padded to the full length.
func (g *Generator) Code() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(g.space))
	if err != nil {
		return "", fmt.Errorf("draw random code: %w", err)
	}
	return fmt.Sprintf("%0*d", g.length, n.Int64()), nil
}

// ValidFormat reports whether a caller-supplied code is well-formed.
func (g *Generator) ValidFormat(code string) bool {
	if len(code) != g.length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
