// Package ai generates post content for agents. The templated producer is
// deterministic and always available; the OpenAI producer is opt-in and
// falls back to templates on any failure.
package ai

import (
	"fmt"
	"math/rand"
	"strings"
)

// Producer turns a deterministic seed and a sentiment score into post text.
type Producer interface {
	Produce(seed int64, sentiment float64, topic string) string
}

var bullishTemplates = []string{
	"%s is heating up! I'm all in on this one.",
	"The odds on %s keep climbing. Momentum is real.",
	"Just added to my %s position. This is going up.",
	"Everyone sleeping on %s is going to regret it.",
	"%s - make your bets now or regret later!",
	"Strong conviction on %s. Holding through everything.",
}

var bearishTemplates = []string{
	"The %s hype is overdone. I'm fading this.",
	"Odds on %s look inflated. Selling into strength.",
	"%s is going to crater once the crowd wakes up.",
	"Getting out of %s before the drop. Good luck holding.",
	"Paper-thin case for %s. Don't chase it.",
	"%s looks like a top to me. Stepping aside.",
}

var neutralTemplates = []string{
	"What do you think about %s?",
	"Just saw the latest on %s. Thoughts?",
	"The odds on %s are interesting. Anyone tracking this?",
	"Keeping an eye on %s. Market could go either way.",
	"Does anyone have insight on %s?",
	"Watching %s closely before I commit either way.",
}

// TemplateProducer is the deterministic default. The same (seed, sentiment,
// topic) always yields the same text, which keeps mock-mode runs
// byte-identical across invocations.
type TemplateProducer struct {
	// Headlines optionally supplies run-start trend context woven into a
	// fraction of posts.
	Headlines []string
}

// Produce picks a sentiment-bucketed template using the seed.
func (p *TemplateProducer) Produce(seed int64, sentiment float64, topic string) string {
	rng := rand.New(rand.NewSource(seed))
	if topic == "" {
		topic = "the market"
	}

	var templates []string
	switch {
	case sentiment > 0.2:
		templates = bullishTemplates
	case sentiment < -0.2:
		templates = bearishTemplates
	default:
		templates = neutralTemplates
	}

	text := fmt.Sprintf(templates[rng.Intn(len(templates))], topic)

	if len(p.Headlines) > 0 && rng.Float64() < 0.25 {
		headline := p.Headlines[rng.Intn(len(p.Headlines))]
		text = text + " Saw this: " + truncate(headline, 80)
	}

	return truncate(text, 280)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := strings.TrimRight(s[:n], " ")
	return cut
}
