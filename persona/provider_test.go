package persona

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalsim-labs/kalsim/behavior"
	"github.com/kalsim-labs/kalsim/core"
)

func TestSyntheticDeterministic(t *testing.T) {
	a, err := (&Synthetic{Seed: 42}).Generate(25, "gme")
	require.NoError(t, err)
	b, err := (&Synthetic{Seed: 42}).Generate(25, "gme")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := (&Synthetic{Seed: 43}).Generate(25, "gme")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestSyntheticPersonasPassAgentValidation(t *testing.T) {
	personas, err := (&Synthetic{Seed: 42}).Generate(100, "gme")
	require.NoError(t, err)
	require.Len(t, personas, 100)

	for i, trait := range personas {
		assert.NotEmpty(t, trait.Name)
		_, err := behavior.NewAgent(i, trait, 42)
		assert.NoError(t, err, "persona %d must construct a valid agent", i)
	}
}

func TestNormalizeFillsNameAndGroupOnly(t *testing.T) {
	trait := core.PersonaTrait{
		PersonalityTraits: []string{"contrarian"},
	}
	out := Normalize(trait, 4)

	assert.Equal(t, "Agent_4", out.Name)
	assert.Equal(t, behavior.GroupContrarian, out.Layers.IdentityGroup)
	// Numeric layer params stay zero: custom agents must supply them.
	assert.Zero(t, out.Layers.ArousalBaseline)
	assert.Zero(t, out.Layers.PostThreshold)
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	trait := core.PersonaTrait{
		Name:   "DiamondHands",
		Layers: core.LayerParams{IdentityGroup: behavior.GroupHerd},
	}
	out := Normalize(trait, 0)
	assert.Equal(t, "DiamondHands", out.Name)
	assert.Equal(t, behavior.GroupHerd, out.Layers.IdentityGroup)
}
