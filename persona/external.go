package persona

import (
	"encoding/json"
	"log"
	"regexp"
	"strings"

	"github.com/kalsim-labs/kalsim/core"
)

// Fetcher is the external persona-source capability. Payloads arrive as raw
// JSON objects because upstream datasets are loosely shaped.
type Fetcher interface {
	FetchPersonas(topic string, count int) ([]map[string]any, error)
}

// restrictedContentFields are payload keys that suggest raw social content.
// They are stripped before traits reach the behavior engine.
var restrictedContentFields = map[string]bool{
	"text": true, "tweet": true, "tweets": true,
	"post": true, "posts": true, "body": true,
	"timeline": true, "message": true, "messages": true,
}

var camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// isRestrictedField reports whether a field name suggests raw social content,
// matching snake_case, kebab-case and camelCase variants.
func isRestrictedField(name string) bool {
	normalized := camelBoundary.ReplaceAllString(name, "${1}_${2}")
	for _, tok := range strings.Split(strings.ToLower(strings.ReplaceAll(normalized, "-", "_")), "_") {
		if tok != "" && restrictedContentFields[tok] {
			return true
		}
	}
	return false
}

// SanitizePayload drops restricted content fields from a raw persona payload.
// It returns the dropped field names for audit logging.
func SanitizePayload(payload map[string]any) (map[string]any, []string) {
	cleaned := make(map[string]any, len(payload))
	var dropped []string
	for k, v := range payload {
		if isRestrictedField(k) {
			dropped = append(dropped, k)
			continue
		}
		cleaned[k] = v
	}
	return cleaned, dropped
}

// External wraps a Fetcher behind the research opt-in. When disabled, or
// when the fetch fails or comes back short, it falls back to the synthetic
// provider. It never blocks or fails a run.
type External struct {
	Fetcher  Fetcher
	OptIn    bool
	Fallback *Synthetic
}

// Generate fetches personas from the external source, sanitizes them, and
// tops up with synthetic fallback so exactly count personas are returned.
func (e *External) Generate(count int, topic string) ([]core.PersonaTrait, error) {
	if !e.OptIn || e.Fetcher == nil {
		if !e.OptIn {
			log.Println("External persona source disabled (research mode off); using synthetic personas")
		}
		return e.Fallback.Generate(count, topic)
	}

	payloads, err := e.Fetcher.FetchPersonas(topic, count)
	if err != nil {
		log.Printf("Warning: external persona fetch failed: %v; falling back to synthetic personas", err)
		return e.Fallback.Generate(count, topic)
	}

	synthetic, _ := e.Fallback.Generate(count, topic)

	personas := make([]core.PersonaTrait, 0, count)
	for i, payload := range payloads {
		if len(personas) == count {
			break
		}
		cleaned, dropped := SanitizePayload(payload)
		if len(dropped) > 0 {
			log.Printf("Compliance: dropped restricted content fields from persona payload: %s", strings.Join(dropped, ", "))
		}

		trait, ok := decodeTrait(cleaned)
		if !ok {
			continue
		}
		trait = Normalize(trait, i)
		// External payloads rarely carry layer parameters; backfill from the
		// synthetic persona at the same index so construction can validate.
		suppliedLayers, _ := cleaned["layers"].(map[string]any)
		trait.Layers = backfillLayers(trait.Layers, synthetic[len(personas)].Layers, suppliedLayers)
		personas = append(personas, trait)
	}

	// Top up when the source returned fewer usable personas than requested.
	for len(personas) < count {
		personas = append(personas, synthetic[len(personas)])
	}

	log.Printf("Loaded %d personas from external source for topic %q", len(personas), topic)
	return personas, nil
}

func decodeTrait(payload map[string]any) (core.PersonaTrait, bool) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return core.PersonaTrait{}, false
	}
	var trait core.PersonaTrait
	if err := json.Unmarshal(raw, &trait); err != nil {
		return core.PersonaTrait{}, false
	}
	return trait, true
}

// backfillLayers fills in layer parameters the payload did not supply.
// Presence is checked against the raw payload because zero is a legitimate
// valence baseline; for the strictly positive parameters a supplied zero is
// still replaced so an external persona never fails agent construction.
func backfillLayers(p, defaults core.LayerParams, supplied map[string]any) core.LayerParams {
	has := func(key string) bool {
		_, ok := supplied[key]
		return ok
	}
	if p.ArousalBaseline == 0 {
		p.ArousalBaseline = defaults.ArousalBaseline
	}
	if p.ValenceBaseline == 0 && !has("valence_baseline") {
		p.ValenceBaseline = defaults.ValenceBaseline
	}
	if p.BiasCoefficient == 0 {
		p.BiasCoefficient = defaults.BiasCoefficient
	}
	if p.Sociability == 0 {
		p.Sociability = defaults.Sociability
	}
	if p.PostThreshold == 0 {
		p.PostThreshold = defaults.PostThreshold
	}
	if p.IdentityGroup == "" {
		p.IdentityGroup = defaults.IdentityGroup
	}
	return p
}
