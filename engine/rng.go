package engine

import "math/rand"

// RNG is a seeded source for the random route planner. The same seed
// always yields the same walk, so a planned path can be reproduced from
// the seed reported with it.
type RNG struct {
	seed  int64
	src   *rand.Rand
	draws int64
}

// NewRNG creates a deterministic RNG from a seed.
func NewRNG(seed int64) *RNG {
	return &RNG{seed: seed, src: rand.New(rand.NewSource(seed))}
}

// WeightedSelect picks an index with probability proportional to its
// weight. Non-positive weights are never picked; -1 means nothing could be.
func (r *RNG) WeightedSelect(weights []int) int {
	total := 0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total == 0 {
		return -1
	}
	r.draws++
	roll := r.src.Intn(total)
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if roll < w {
			return i
		}
		roll -= w
	}
	return -1
}

// Seed returns the seed the RNG was created with.
func (r *RNG) Seed() int64 { return r.seed }

// Draws returns how many selections have been made.
func (r *RNG) Draws() int64 { return r.draws }
