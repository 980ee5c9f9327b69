package reschedule

import (
	"context"
	"errors"
	"net/http"
	"time"

	"flightwx/internal/errs"

	"github.com/sashabaranov/go-openai"
)

// Generator proposes reschedule slots for a context and returns its raw structured output.
// The output is untrusted until it passes Validate.
type Generator interface {
	Generate(ctx context.Context, c Context) ([]byte, error)
}

// OpenAIGenerator asks a chat-completion model for suggestions in JSON-object mode.
type OpenAIGenerator struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIGenerator creates a generator. An empty baseURL uses the public API.
func NewOpenAIGenerator(apiKey, baseURL, model string, timeout time.Duration, httpClient *http.Client) *OpenAIGenerator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &OpenAIGenerator{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, c Context) ([]byte, error) {
	prompt, err := RenderPrompt(c)
	if err != nil {
		return nil, &errs.Error{Kind: errs.KindInternal, Op: "render prompt", Err: err}
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.7,
	})
	if err != nil {
		return nil, &errs.Error{Kind: errs.KindProvider, Op: "generate suggestions", Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &errs.Error{Kind: errs.KindProvider, Op: "generate suggestions", Err: errors.New("model returned no choices")}
	}

	return []byte(resp.Choices[0].Message.Content), nil
}
