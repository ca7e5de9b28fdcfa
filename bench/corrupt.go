// Package bench measures codec throughput and recovery behavior the
// way the storage pipeline exercises it, and renders the results as a
// JSON report plus HTML charts.
package bench

import (
	"math/rand"

	"github.com/dnastore/dnars/pipeline"
)

// Corruptor injects reproducible damage into encoded artifacts. Same
// seed, same damage.
type Corruptor struct {
	rng *rand.Rand
}

func NewCorruptor(seed int64) *Corruptor {
	return &Corruptor{rng: rand.New(rand.NewSource(seed))}
}

// Substitute flips count distinct symbols of the block to different
// values and returns the damaged positions.
func (c *Corruptor) Substitute(block []byte, count int) []int {
	if count > len(block) {
		count = len(block)
	}
	positions := c.rng.Perm(len(block))[:count]
	for _, p := range positions {
		block[p] ^= byte(1 + c.rng.Intn(255))
	}
	return positions
}

// Erase zeroes count distinct symbols and returns their positions,
// simulating known-location dropouts.
func (c *Corruptor) Erase(block []byte, count int) []int {
	if count > len(block) {
		count = len(block)
	}
	positions := c.rng.Perm(len(block))[:count]
	for _, p := range positions {
		block[p] = 0
	}
	return positions
}

// CorruptArtifact applies perBlock substitutions to every block.
func (c *Corruptor) CorruptArtifact(art *pipeline.Artifact, perBlock int) {
	for i := range art.Blocks {
		c.Substitute(art.Blocks[i], perBlock)
	}
}
