package behavior

import (
	"math/rand"

	"github.com/kalsim-labs/kalsim/core"
)

// Stage 6: network structure. The adjacency used by the social stage is
// built once per run from the run seed: a ring lattice with a few random
// shortcuts, so every agent has local ties plus occasional long-range ones.
// The structure is static for the lifetime of the run.

const (
	ringNeighbors  = 2    // ties on each side of the ring
	shortcutChance = 0.15 // probability of one extra long-range tie
)

// BuildNetwork returns a tie list per agent for a population of n agents.
func BuildNetwork(n int, seed int64) [][]core.AgentTie {
	rng := rand.New(rand.NewSource(seed))
	ties := make([][]core.AgentTie, n)

	for i := 0; i < n; i++ {
		for k := 1; k <= ringNeighbors; k++ {
			j := (i + k) % n
			if j == i {
				continue
			}
			strength := 0.4 + rng.Float64()*0.5
			ties[i] = append(ties[i], core.AgentTie{AgentID: j, Strength: strength})
			ties[j] = append(ties[j], core.AgentTie{AgentID: i, Strength: strength})
		}
	}

	for i := 0; i < n; i++ {
		if rng.Float64() < shortcutChance && n > 2*ringNeighbors+1 {
			j := rng.Intn(n)
			if j != i {
				ties[i] = append(ties[i], core.AgentTie{AgentID: j, Strength: 0.2 + rng.Float64()*0.3})
			}
		}
	}

	return ties
}
