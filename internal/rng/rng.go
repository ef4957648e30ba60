// Package rng supplies the randomness the game's fairness depends on.
// Role assignment must be unguessable by the players passing the device
// around, so draws come from the operating system's CSPRNG rather than a
// seeded generator.
package rng

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// Source yields uniform integers. It exists as an interface so tests can
// script the draws deterministically.
type Source interface {
	// IntN returns an integer in [0, n). Panics if n <= 0; callers
	// guarantee non-empty pools.
	IntN(n int) int
}

// Crypto draws from crypto/rand.
type Crypto struct{}

func (Crypto) IntN(n int) int {
	if n <= 0 {
		panic(fmt.Sprintf("rng: IntN called with n=%d", n))
	}
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand never fails on supported platforms; if the OS
		// entropy source is broken there is nothing sane to fall back to.
		panic(fmt.Sprintf("rng: entropy source unavailable: %v", err))
	}
	return int(binary.BigEndian.Uint32(buf[:]) % uint32(n))
}

// Percent returns a draw in [0, 100), used for the special-mode rolls.
func Percent(src Source) int {
	return src.IntN(100)
}

// Shuffle returns a fresh uniformly-random permutation of in using
// Fisher-Yates. The input is never mutated.
func Shuffle[T any](src Source, in []T) []T {
	out := append([]T(nil), in...)
	for i := len(out) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
