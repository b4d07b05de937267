package ai

import (
	"context"
	"fmt"
	"log"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// LLMConfig holds configuration for LLM interactions.
type LLMConfig struct {
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// DefaultLLMConfig returns standard LLM configuration.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Model:       openai.GPT3Dot5Turbo,
		MaxTokens:   120,
		Temperature: 0.8,
		Timeout:     20 * time.Second,
	}
}

// OpenAIProducer generates post text via the OpenAI chat API. Any failure
// falls back to the templated producer so a run never stalls on the LLM.
type OpenAIProducer struct {
	client   *openai.Client
	config   LLMConfig
	fallback *TemplateProducer
}

// NewOpenAIProducer returns nil when no API key is configured; callers then
// use the template producer directly.
func NewOpenAIProducer(apiKey string, fallback *TemplateProducer) *OpenAIProducer {
	if apiKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set, using templated content")
		return nil
	}
	return &OpenAIProducer{
		client:   openai.NewClient(apiKey),
		config:   DefaultLLMConfig(),
		fallback: fallback,
	}
}

// Produce asks the LLM for a short post matching the sentiment toward the
// topic. The seed keeps the fallback deterministic even when the LLM fails.
func (p *OpenAIProducer) Produce(seed int64, sentiment float64, topic string) string {
	tone := "neutral and curious"
	if sentiment > 0.2 {
		tone = "enthusiastic and bullish"
	} else if sentiment < -0.2 {
		tone = "doubtful and bearish"
	}

	prompt := fmt.Sprintf(
		"Write one short social media post (max 280 chars) about the prediction market topic %q. "+
			"Tone: %s. No hashtags, no quotation marks, no preamble.",
		topic, tone,
	)

	text, err := p.queryLLM(prompt)
	if err != nil {
		log.Printf("LLM content generation failed, using template: %v", err)
		return p.fallback.Produce(seed, sentiment, topic)
	}
	return truncate(text, 280)
}

// queryLLM sends a request to OpenAI's API.
func (p *OpenAIProducer) queryLLM(prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.Timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:       p.config.Model,
			MaxTokens:   p.config.MaxTokens,
			Temperature: p.config.Temperature,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: "You write terse social media posts about prediction markets."},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		},
	)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}
