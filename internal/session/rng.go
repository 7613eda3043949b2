package session

import (
	"crypto/sha256"
	"encoding/binary"
	"strings"
)

// rng is a Mulberry32 generator. It is small, fast and, given the same
// seed, yields the same sequence on every platform. It is not suitable for
// anything security related.
type rng struct {
	state uint32
}

func newRNG(seed uint32) *rng {
	return &rng{state: seed}
}

// Float64 returns the next value in [0, 1).
func (r *rng) Float64() float64 {
	r.state += 0x6d2b79f5
	t := r.state
	x := (t ^ (t >> 15)) * (t | 1)
	x ^= x + (x^(x>>7))*(x|61)
	return float64(x^(x>>14)) / 4294967296
}

// Intn returns a value in [0, n). n must be positive.
func (r *rng) Intn(n int) int {
	return int(r.Float64() * float64(n))
}

// shuffle permutes s in place with a Fisher–Yates pass driven by r.
func shuffle[T any](s []T, r *rng) {
	for i := len(s) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

// seedFrom hashes parts joined with "|" and returns the first four bytes of
// the SHA-256 digest as a big-endian integer.
func seedFrom(parts ...string) uint32 {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return binary.BigEndian.Uint32(sum[:4])
}
