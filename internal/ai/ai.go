// Package ai provides the gateway to language-model providers. The store
// talks to the Gateway interface only; the OpenAI-compatible client here is
// the production implementation, and tests substitute fakes.
package ai

import "context"

// GenerateRequest contains everything needed to request continuation
// candidates for a thread.
type GenerateRequest struct {
	// Context is the thread's selected thoughts, in order.
	Context []string

	// GlobalPrompt is the user's store-wide instruction, may be empty.
	GlobalPrompt string

	// ThreadPrompt is the per-thread instruction, may be empty.
	ThreadPrompt string

	// Model is the provider model identifier.
	Model string

	// Count is the number of candidates requested.
	Count int
}

// GenerateResult contains parsed candidates and token usage for one request.
type GenerateResult struct {
	Thoughts  []string
	TokensIn  int
	TokensOut int
}

// TitleRequest contains everything needed to request a short thread title.
type TitleRequest struct {
	// Selected is the thread's selected thoughts, in order.
	Selected []string

	// Model is the provider model identifier.
	Model string
}

// Gateway is the provider-facing contract. Both calls respect context
// cancellation; an aborted call returns the context's error.
type Gateway interface {
	GenerateThoughts(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
	GenerateTitle(ctx context.Context, req TitleRequest) (string, error)
}
