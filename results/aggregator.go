// Package results turns a completed action log and price series into summary
// statistics and chart points. Aggregation is a pure function: identical
// inputs always yield identical outputs, and nothing here mutates its inputs.
package results

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/kalsim-labs/kalsim/core"
)

// TrackedKeywords are the case-normalized tokens counted across post content.
var TrackedKeywords = []string{
	"odds", "bet", "bets", "market", "bullish", "bearish",
	"moon", "hold", "buy", "sell", "crash", "squeeze",
	"momentum", "hype", "conviction",
}

// PositiveKeywords and NegativeKeywords drive the text-level sentiment
// score, independent of the model-produced sentiment on each entry.
var PositiveKeywords = []string{
	"moon", "rocket", "diamond hands", "hold", "buy", "bullish",
	"gains", "squeeze", "strong", "winning", "up", "climbing",
}

var NegativeKeywords = []string{
	"sell", "crash", "dump", "bearish", "loss", "paper hands",
	"falling", "down", "fear", "panic", "drop", "crater", "fading",
}

var (
	trackedPatterns = compilePatterns(TrackedKeywords)
	positivePattern = compileAlternation(PositiveKeywords)
	negativePattern = compileAlternation(NegativeKeywords)
)

func compileAlternation(keywords []string) *regexp.Regexp {
	escaped := make([]string, len(keywords))
	for i, kw := range keywords {
		escaped[i] = regexp.QuoteMeta(kw)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(escaped, "|") + `)\b`)
}

// ScoreContent rates a text in [-1, 1] from its positive vs negative
// keyword matches. Text with no hits scores neutral.
func ScoreContent(text string) float64 {
	pos := len(positivePattern.FindAllStringIndex(text, -1))
	neg := len(negativePattern.FindAllStringIndex(text, -1))
	total := pos + neg
	if total == 0 {
		return 0
	}
	score := float64(pos-neg) / float64(total)
	if score > 1 {
		return 1
	}
	if score < -1 {
		return -1
	}
	return score
}

func compilePatterns(keywords []string) map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(keywords))
	for _, kw := range keywords {
		patterns[kw] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(kw) + `\b`)
	}
	return patterns
}

// CountKeywords returns per-keyword occurrence counts in the text.
func CountKeywords(text string) map[string]int {
	counts := make(map[string]int)
	for kw, pattern := range trackedPatterns {
		if n := len(pattern.FindAllStringIndex(text, -1)); n > 0 {
			counts[strings.ToLower(kw)] += n
		}
	}
	return counts
}

// Aggregate computes the run summary and chart series. The log is expected in
// (day, step, agent id) order; the price series has one record per step.
func Aggregate(log []core.ActionLogEntry, prices []core.MarketState) (core.ResultsSummary, []core.ChartPoint) {
	summary := core.ResultsSummary{
		KeywordTotals: make(map[string]int),
	}

	// Per-step entry buckets for peak detection and chart sentiment.
	type stepKey struct{ day, step int }
	perStep := make(map[stepKey][]core.ActionLogEntry)

	var sentimentSum, contentSum float64
	for i, entry := range log {
		if entry.ActionType != core.ActionPost {
			continue
		}
		summary.TotalPosts++
		sentimentSum += entry.Sentiment
		contentSum += ScoreContent(entry.Content)

		if summary.TotalPosts == 1 || entry.Sentiment > summary.MaxSentiment {
			summary.MaxSentiment = entry.Sentiment
		}
		if summary.TotalPosts == 1 || entry.Sentiment < summary.MinSentiment {
			summary.MinSentiment = entry.Sentiment
		}

		for kw, n := range CountKeywords(entry.Content) {
			summary.KeywordTotals[kw] += n
		}

		key := stepKey{entry.Day, entry.Step}
		perStep[key] = append(perStep[key], log[i])
	}

	summary.TotalActions = len(log)
	summary.TimePeriods = len(prices)
	if summary.TotalPosts > 0 {
		summary.AvgSentiment = sentimentSum / float64(summary.TotalPosts)
		summary.ContentSentiment = contentSum / float64(summary.TotalPosts)
	}

	// Peak activity: the step with the most entries, ties broken by the
	// earliest timestamp.
	var peakCount int
	for _, ms := range prices {
		entries := perStep[stepKey{ms.Day, ms.Step}]
		if len(entries) > peakCount {
			peakCount = len(entries)
			summary.PeakActivityTimestamp = ms.Timestamp
		}
	}

	chart := make([]core.ChartPoint, 0, len(prices))
	for _, ms := range prices {
		entries := perStep[stepKey{ms.Day, ms.Step}]
		var stepSentiment float64
		if len(entries) > 0 {
			for _, e := range entries {
				stepSentiment += e.Sentiment
			}
			stepSentiment /= float64(len(entries))
		}
		chart = append(chart, core.ChartPoint{
			Timestamp: ms.Timestamp,
			Sentiment: stepSentiment,
			Price:     ms.Price,
		})
	}

	return summary, chart
}

// SortLog orders entries by (day, step, agent id). Parallel step evaluation
// may append out of order; the log is always re-sorted before being exposed.
func SortLog(log []core.ActionLogEntry) {
	sort.SliceStable(log, func(i, j int) bool {
		if log[i].Day != log[j].Day {
			return log[i].Day < log[j].Day
		}
		if log[i].Step != log[j].Step {
			return log[i].Step < log[j].Step
		}
		return log[i].AgentID < log[j].AgentID
	})
}

// FormatSummary renders a one-line human-readable digest for logs.
func FormatSummary(s core.ResultsSummary) string {
	return fmt.Sprintf("posts=%d avg_sentiment=%.3f periods=%d keywords=%d",
		s.TotalPosts, s.AvgSentiment, s.TimePeriods, len(s.KeywordTotals))
}
