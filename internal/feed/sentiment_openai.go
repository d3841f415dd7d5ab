package feed

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const sentimentPrompt = `Rate the current sentiment for the Indian equity market (NIFTY 50) on a scale from 0.0 (extremely bearish) to 1.0 (extremely bullish), considering recent index direction, global cues and volatility. Reply with only the number.`

// OpenAISentiment scores market sentiment via a chat completion.
// Callers treat any failure as neutral; this type only reports it.
type OpenAISentiment struct {
	client *openai.Client
	model  string
}

// NewOpenAISentiment creates a sentiment provider backed by OpenAI.
func NewOpenAISentiment(apiKey, model string) *OpenAISentiment {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAISentiment{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// GetMarketSentiment returns a sentiment score in [0, 1].
func (s *OpenAISentiment) GetMarketSentiment(ctx context.Context) (float64, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: sentimentPrompt},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("sentiment completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return 0, fmt.Errorf("no response from openai")
	}

	return parseSentimentScore(resp.Choices[0].Message.Content)
}

// parseSentimentScore extracts a 0-1 score from the model reply,
// tolerating surrounding prose.
func parseSentimentScore(reply string) (float64, error) {
	for _, field := range strings.Fields(strings.TrimSpace(reply)) {
		field = strings.Trim(field, ".,:;")
		score, err := strconv.ParseFloat(field, 64)
		if err != nil {
			continue
		}
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		return score, nil
	}
	return 0, fmt.Errorf("no numeric score in sentiment reply %q", reply)
}
