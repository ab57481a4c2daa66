package ai

import "context"

// Resolver builds a Client per call from the current provider credentials,
// so settings edits in a long-lived session take effect without a restart.
type Resolver struct {
	credentials func() (provider, apiKey string)
}

// NewResolver creates a Resolver over a credentials snapshot function.
func NewResolver(credentials func() (provider, apiKey string)) *Resolver {
	return &Resolver{credentials: credentials}
}

func (r *Resolver) GenerateThoughts(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	provider, apiKey := r.credentials()
	return NewClient(provider, apiKey).GenerateThoughts(ctx, req)
}

func (r *Resolver) GenerateTitle(ctx context.Context, req TitleRequest) (string, error) {
	provider, apiKey := r.credentials()
	return NewClient(provider, apiKey).GenerateTitle(ctx, req)
}
