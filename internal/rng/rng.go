// Package rng derives independent, reproducible random streams for each
// pipeline stage from a single world seed, in the spirit of the teacher's
// rand.New(rand.NewSource(seed)) convention in tectonics.go, but extended
// so sibling stages never share or perturb each other's stream.
package rng

import (
	"hash/fnv"
	"math/rand"
)

// Stream derives a *rand.Rand for a named stage from the world seed.
// The same (seed, label) pair always yields the same stream, which is
// what makes generate/reapply/editRecompute deterministic (spec P6).
func Stream(seed int64, label string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(label))
	mixed := seed ^ int64(h.Sum64())
	return rand.New(rand.NewSource(mixed))
}

// SubStream derives a further substream from an already-derived stream,
// used when a stage needs independent randomness per iteration (e.g. one
// stream per hotspot chain) without perturbing the parent stream.
func SubStream(parent *rand.Rand, index int) *rand.Rand {
	seed := parent.Int63() ^ int64(uint64(index)*0x9E3779B97F4A7C15)
	return rand.New(rand.NewSource(seed))
}
