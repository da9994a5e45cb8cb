package loader

import (
	"context"

	"github.com/giantswarm/bailian-loader/internal/llm"
)

// Factory constructs a client from a ClientConfig. Returned errors are
// classified with llm.Classify to decide whether to ask for a new key.
type Factory func(ctx context.Context, cfg ClientConfig) (llm.Client, error)

// NewOpenAIFactory returns a Factory building go-openai backed clients.
// With verify set, the key is checked against GET /models before the client
// is returned, so a rejected key surfaces as an auth error at load time.
func NewOpenAIFactory(verify bool) Factory {
	return func(ctx context.Context, cfg ClientConfig) (llm.Client, error) {
		client := llm.NewOpenAIClient(cfg.Options()...)
		if verify {
			if _, err := client.ListModels(ctx); err != nil {
				return nil, err
			}
		}
		return client, nil
	}
}
