package ai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/fivol/ai-threads/internal/errors"
)

// Provider base URLs for OpenAI-compatible APIs. An unrecognized provider
// string is treated as a base URL itself.
const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"

	openRouterBaseURL = "https://openrouter.ai/api/v1"
)

// Client is the production Gateway backed by an OpenAI-compatible API.
type Client struct {
	client *openai.Client
}

// NewClient creates a client for the given provider and API key.
func NewClient(provider, apiKey string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	switch provider {
	case ProviderOpenAI, "":
		// default base URL
	case ProviderOpenRouter:
		cfg.BaseURL = openRouterBaseURL
	default:
		cfg.BaseURL = provider
	}
	return &Client{client: openai.NewClientWithConfig(cfg)}
}

// GenerateThoughts requests Count continuation candidates for the given
// context and parses them out of the reply.
func (c *Client) GenerateThoughts(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: generateSystemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: strings.Join(req.Context, "\n\n")},
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.NewProvider(err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.NewNoCandidates()
	}

	thoughts := ParseCandidates(resp.Choices[0].Message.Content, req.Count)
	if len(thoughts) == 0 {
		return nil, errors.NewNoCandidates()
	}

	return &GenerateResult{
		Thoughts:  thoughts,
		TokensIn:  resp.Usage.PromptTokens,
		TokensOut: resp.Usage.CompletionTokens,
	}, nil
}

// GenerateTitle requests a short title summarizing the selected thoughts.
func (c *Client) GenerateTitle(ctx context.Context, req TitleRequest) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "Write a short title (at most six words) for the line of " +
					"thinking below. Reply with the title only, no quotes.",
			},
			{Role: openai.ChatMessageRoleUser, Content: strings.Join(req.Selected, "\n\n")},
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", errors.NewProvider(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.NewNoCandidates()
	}

	title := CleanTitle(resp.Choices[0].Message.Content)
	if title == "" {
		return "", errors.NewNoCandidates()
	}
	return title, nil
}

// generateSystemPrompt assembles the system message from the global prompt,
// the thread prompt, and the candidate-count instruction.
func generateSystemPrompt(req GenerateRequest) string {
	var b strings.Builder
	if p := strings.TrimSpace(req.GlobalPrompt); p != "" {
		b.WriteString(p)
		b.WriteString("\n\n")
	}
	if p := strings.TrimSpace(req.ThreadPrompt); p != "" {
		b.WriteString(p)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b,
		"Continue the user's line of thinking with %d distinct next thoughts. "+
			"Reply with a numbered list, one thought per item, nothing else.",
		req.Count)
	return b.String()
}
