package behavior

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildNetworkDeterministic(t *testing.T) {
	a := BuildNetwork(20, 7)
	b := BuildNetwork(20, 7)
	assert.Equal(t, a, b)

	c := BuildNetwork(20, 8)
	assert.NotEqual(t, a, c, "different seeds should produce different tie strengths")
}

func TestBuildNetworkRingTies(t *testing.T) {
	n := 10
	ties := BuildNetwork(n, 1)
	require.Len(t, ties, n)

	for i := 0; i < n; i++ {
		neighbors := make(map[int]bool)
		for _, tie := range ties[i] {
			assert.NotEqual(t, i, tie.AgentID, "no self ties")
			assert.Greater(t, tie.Strength, 0.0)
			assert.LessOrEqual(t, tie.Strength, 1.0)
			neighbors[tie.AgentID] = true
		}
		// Ring lattice guarantees both immediate neighbors.
		assert.True(t, neighbors[(i+1)%n], "agent %d missing next ring neighbor", i)
		assert.True(t, neighbors[(i-1+n)%n], "agent %d missing prev ring neighbor", i)
	}
}

func TestBuildNetworkTinyPopulation(t *testing.T) {
	ties := BuildNetwork(1, 1)
	require.Len(t, ties, 1)
	assert.Empty(t, ties[0])

	ties = BuildNetwork(2, 1)
	require.Len(t, ties, 2)
	for i, agentTies := range ties {
		for _, tie := range agentTies {
			assert.NotEqual(t, i, tie.AgentID)
		}
	}
}
