// Package persona supplies per-agent trait bundles. Two providers share one
// normalized schema: a synthetic generator deterministic from the run seed,
// and an external source gated by an explicit research opt-in that falls
// back to the synthetic path on any failure.
package persona

import (
	"fmt"
	"math/rand"

	"github.com/kalsim-labs/kalsim/behavior"
	"github.com/kalsim-labs/kalsim/core"
)

// Provider generates persona trait bundles for a run.
type Provider interface {
	Generate(count int, topic string) ([]core.PersonaTrait, error)
}

var personalityTypes = [][]string{
	{"risk-seeking", "impulsive", "optimistic"},
	{"cautious", "analytical", "skeptical"},
	{"trend-following", "social", "enthusiastic"},
	{"contrarian", "independent", "patient"},
	{"emotional", "reactive", "community-focused"},
}

var interestSets = [][]string{
	{"stocks", "crypto", "reddit"},
	{"gaming", "memes", "investing"},
	{"finance", "technology", "social media"},
	{"trading", "entertainment", "news"},
}

var riskLevels = []string{"low", "moderate", "high"}
var outlooks = []string{"bullish", "neutral", "bearish"}
var trustLevels = []string{"low", "moderate", "high"}

// Synthetic generates archetype-based personas from a seed. Identical
// (seed, count) always produces identical trait bundles.
type Synthetic struct {
	Seed int64
}

// Generate returns count personas. It never fails.
func (s *Synthetic) Generate(count int, topic string) ([]core.PersonaTrait, error) {
	rng := rand.New(rand.NewSource(s.Seed))
	personas := make([]core.PersonaTrait, 0, count)

	for i := 0; i < count; i++ {
		trait := core.PersonaTrait{
			Name:              fmt.Sprintf("User_%03d", i),
			PersonalityTraits: personalityTypes[rng.Intn(len(personalityTypes))],
			Interests:         interestSets[rng.Intn(len(interestSets))],
			Beliefs: core.Beliefs{
				RiskTolerance:       riskLevels[rng.Intn(len(riskLevels))],
				MarketOutlook:       outlooks[rng.Intn(len(outlooks))],
				TrustInInstitutions: trustLevels[rng.Intn(len(trustLevels))],
			},
			Social: core.Social{
				FollowerCount:  10 + rng.Intn(9991),
				InfluenceScore: rng.Float64(),
			},
			Layers: core.LayerParams{
				ArousalBaseline: 0.3 + rng.Float64()*0.4,
				ValenceBaseline: -0.3 + rng.Float64()*0.8,
				BiasCoefficient: 0.5 + rng.Float64(),
				Sociability:     0.2 + rng.Float64()*0.8,
				PostThreshold:   0.35 + rng.Float64()*0.4,
			},
		}
		trait.Layers.IdentityGroup = behavior.AssignIdentityGroup(trait)
		personas = append(personas, trait)
	}

	return personas, nil
}

// Normalize fills gaps in an externally sourced or custom persona so it can
// pass agent construction: a missing name gets a default, and a missing
// identity group is derived from the other traits. Numeric layer parameters
// are deliberately NOT defaulted for custom agents; a caller that supplies
// its own personas must supply them completely.
func Normalize(trait core.PersonaTrait, index int) core.PersonaTrait {
	if trait.Name == "" {
		trait.Name = fmt.Sprintf("Agent_%d", index)
	}
	if trait.Layers.IdentityGroup == "" {
		trait.Layers.IdentityGroup = behavior.AssignIdentityGroup(trait)
	}
	return trait
}
