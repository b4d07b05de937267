package behavior

import (
	"strings"

	"github.com/kalsim-labs/kalsim/core"
)

// Stage 5: collective identity. Group affiliation scales how much the social
// signal from stage 4 is allowed to move personal belief.

// Identity groups, from strongest to weakest social coupling.
const (
	GroupHerd       = "HERD"
	GroupRetail     = "RETAIL"
	GroupSkeptic    = "SKEPTIC"
	GroupContrarian = "CONTRARIAN"
	GroupNeutral    = "NEUTRAL"
)

// groupSocialWeight is the in-group trust each affiliation places in peer
// signals relative to personal belief.
func groupSocialWeight(group string) float64 {
	switch group {
	case GroupHerd:
		return 0.85
	case GroupRetail:
		return 0.6
	case GroupNeutral:
		return 0.5
	case GroupSkeptic:
		return 0.35
	case GroupContrarian:
		return 0.15
	default:
		return 0.5
	}
}

// AssignIdentityGroup derives a group tag from persona traits when the
// persona doesn't carry one explicitly.
func AssignIdentityGroup(trait core.PersonaTrait) string {
	traits := make(map[string]bool)
	for _, t := range trait.PersonalityTraits {
		traits[strings.ToLower(t)] = true
	}
	interests := make(map[string]bool)
	for _, i := range trait.Interests {
		interests[strings.ToLower(i)] = true
	}

	herdSignals := 0
	for _, ind := range []string{"memes", "reddit", "crypto", "social media"} {
		if interests[ind] {
			herdSignals++
		}
	}

	switch {
	case herdSignals >= 2, herdSignals >= 1 && trait.Beliefs.RiskTolerance == "high":
		return GroupHerd
	case traits["contrarian"], traits["independent"]:
		return GroupContrarian
	case traits["skeptical"], trait.Beliefs.TrustInInstitutions == "low":
		return GroupSkeptic
	case traits["analytical"] && trait.Beliefs.TrustInInstitutions == "high":
		return GroupRetail
	default:
		return GroupNeutral
	}
}

// Identity folds the peer sentiment into belief, weighted by the group's
// social coupling and the strength of the social signal observed this step.
func Identity(st State, p core.LayerParams) State {
	if st.SocialSignal == 0 {
		return st
	}

	weight := groupSocialWeight(p.IdentityGroup) * st.SocialSignal
	peerBelief := (st.PeerSentiment + 1) / 2
	st.Belief = clamp(st.Belief+(peerBelief-st.Belief)*weight, 0, 1)
	return st
}
