package market

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/ericgreene/go-serp"
)

// TrendSeed is the one-shot external context consulted at run start. It
// never enters the step loop, so step latency stays independent of network
// conditions.
type TrendSeed struct {
	Topic     string
	BasePrice float64
	Headlines []string
}

// NeutralTrendSeed is the fallback when no external source is available.
func NeutralTrendSeed(topic string) TrendSeed {
	return TrendSeed{Topic: topic, BasePrice: DefaultBasePrice}
}

// TrendFetcher fetches trend context for a topic. Implementations must be
// safe to fail: the caller always recovers with NeutralTrendSeed.
type TrendFetcher interface {
	FetchTrend(topic string) (TrendSeed, error)
}

// SerpTrendFetcher looks the topic up via SerpAPI web search and turns the
// organic results into topic context for the content producer. A price hint
// is parsed out of result snippets when one is present.
type SerpTrendFetcher struct {
	APIKey     string
	MaxResults int
}

// FetchTrend performs one web search for the topic.
func (f *SerpTrendFetcher) FetchTrend(topic string) (TrendSeed, error) {
	if f.APIKey == "" {
		return TrendSeed{}, fmt.Errorf("SERP_API_KEY not set")
	}

	maxResults := f.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}

	parameter := map[string]string{
		"q":    topic + " prediction market odds",
		"key":  f.APIKey,
		"num":  strconv.Itoa(maxResults),
		"safe": "active",
	}

	query := serp.NewGoogleSearch(parameter)
	results, err := query.GetJSON()
	if err != nil {
		return TrendSeed{}, err
	}

	seed := TrendSeed{Topic: topic, BasePrice: DefaultBasePrice}
	for _, result := range results.OrganicResults {
		if result.Snippet != "" {
			seed.Headlines = append(seed.Headlines, result.Snippet)
		}
		if price, ok := parsePriceHint(result.Snippet); ok && seed.BasePrice == DefaultBasePrice {
			seed.BasePrice = price
		}
	}

	if len(seed.Headlines) == 0 {
		return TrendSeed{}, fmt.Errorf("no organic results for topic %q", topic)
	}
	return seed, nil
}

// parsePriceHint extracts the first plausible "$N" or "N%" figure from a
// snippet and maps it onto a starting price.
func parsePriceHint(snippet string) (float64, bool) {
	for _, tok := range strings.Fields(snippet) {
		tok = strings.Trim(tok, ".,;:()")
		var raw string
		switch {
		case strings.HasPrefix(tok, "$"):
			raw = strings.TrimPrefix(tok, "$")
		case strings.HasSuffix(tok, "%"):
			raw = strings.TrimSuffix(tok, "%")
		default:
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
		if err != nil || v < PriceFloor || v > 10000 {
			continue
		}
		return v, true
	}
	return 0, false
}

// SeedTrend resolves the run's trend seed, recovering locally on failure.
// Called exactly once per run, before the first step.
func SeedTrend(fetcher TrendFetcher, topic string) (TrendSeed, error) {
	if fetcher == nil {
		return NeutralTrendSeed(topic), nil
	}
	seed, err := fetcher.FetchTrend(topic)
	if err != nil {
		log.Printf("Warning: trend fetch for %q failed: %v; using neutral defaults", topic, err)
		return NeutralTrendSeed(topic), err
	}
	return seed, nil
}
