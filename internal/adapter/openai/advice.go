// Package openai implements the advice generator against an
// OpenAI-compatible chat completion API.
package openai

import (
	"context"
	"errors"
	"fmt"

	"medtrack/internal/app"

	gopenai "github.com/sashabaranov/go-openai"
)

// AdviceClient generates adherence advice via chat completions.
type AdviceClient struct {
	client *gopenai.Client
	model  string
}

var _ app.AdviceGenerator = (*AdviceClient)(nil)

// New creates an AdviceClient. baseURL may be empty for the default API.
func New(apiKey, baseURL, model string) *AdviceClient {
	cfg := gopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &AdviceClient{client: gopenai.NewClientWithConfig(cfg), model: model}
}

const systemPrompt = "You are a supportive medication adherence assistant. " +
	"Given a patient's adherence summary, reply with one short, encouraging, " +
	"practical paragraph. Do not give medical advice about the drug itself."

// Generate asks the model for one advice paragraph based on the summary.
func (c *AdviceClient) Generate(ctx context.Context, medicineName string, sum app.AdviceSummary) (string, error) {
	user := fmt.Sprintf(
		"Medicine: %s. Over the last %d days the patient logged %d events: %d taken, %d snoozed, %d skipped. Adherence rate: %.2f%%.",
		medicineName, sum.Days, sum.TotalLogged, sum.TotalTaken, sum.TotalSnoozed, sum.TotalSkipped, sum.Rate,
	)
	resp, err := c.client.CreateChatCompletion(ctx, gopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []gopenai.ChatCompletionMessage{
			{Role: gopenai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: gopenai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}
