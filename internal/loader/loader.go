// Package loader builds chat clients for the DashScope (Bailian)
// OpenAI-compatible endpoint, resolving the API key and re-prompting when
// the provider rejects it.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/giantswarm/bailian-loader/internal/credential"
	"github.com/giantswarm/bailian-loader/internal/llm"
)

// DefaultMaxAuthRetries bounds how often a rejected key is re-prompted per Load.
const DefaultMaxAuthRetries = 3

const (
	promptMissingKey = "Please enter your DashScope (百炼) API key: "
	promptInvalidKey = "Please enter a valid DashScope (百炼) API key: "
)

var (
	// ErrModelNameRequired is returned when Request.ModelName is empty.
	ErrModelNameRequired = errors.New("model name is required")

	// ErrAuthRetriesExhausted is returned once the retry budget for rejected
	// keys is spent. The last auth error is wrapped alongside it.
	ErrAuthRetriesExhausted = errors.New("DashScope API key rejected too many times")
)

// Request describes the client to load. APIKey and BaseURL are optional.
type Request struct {
	ModelName   string
	Temperature float64
	APIKey      string
	BaseURL     string
}

// Loader resolves credentials and constructs clients.
type Loader struct {
	env            credential.Env
	prompter       credential.SecretPrompter
	credentials    credential.Provider
	factory        Factory
	maxAuthRetries int
	logger         *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnv sets the store the API key is read from and written back to.
func WithEnv(env credential.Env) Option {
	return func(l *Loader) {
		l.env = env
	}
}

// WithPrompter sets how the operator is asked for a key.
func WithPrompter(p credential.SecretPrompter) Option {
	return func(l *Loader) {
		l.prompter = p
	}
}

// WithCredentials replaces the environment and prompt lookup used when no
// explicit key is passed. The prompter is still used after an auth failure.
func WithCredentials(p credential.Provider) Option {
	return func(l *Loader) {
		l.credentials = p
	}
}

// WithFactory sets the client constructor.
func WithFactory(f Factory) Option {
	return func(l *Loader) {
		l.factory = f
	}
}

// WithVerify switches the default go-openai factory's key check on or off.
func WithVerify(verify bool) Option {
	return func(l *Loader) {
		l.factory = NewOpenAIFactory(verify)
	}
}

// WithMaxAuthRetries bounds re-prompts after rejected keys. A negative value
// retries until a key is accepted or the prompter fails.
func WithMaxAuthRetries(n int) Option {
	return func(l *Loader) {
		l.maxAuthRetries = n
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// New creates a Loader reading the process environment, prompting on the
// terminal and verifying keys with the go-openai factory.
func New(opts ...Option) *Loader {
	l := &Loader{
		env:            credential.OSEnv{},
		prompter:       credential.NewTerminalPrompter(),
		factory:        NewOpenAIFactory(true),
		maxAuthRetries: DefaultMaxAuthRetries,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load is New().Load with the given arguments.
func Load(ctx context.Context, modelName string, temperature float64, apiKey, baseURL string) (llm.Client, error) {
	return New().Load(ctx, Request{
		ModelName:   modelName,
		Temperature: temperature,
		APIKey:      apiKey,
		BaseURL:     baseURL,
	})
}

// Load resolves the API key, then constructs a client. When construction
// fails with an auth error the operator is asked for a new key and the
// attempt is repeated, up to the configured retry budget. Other construction
// errors are returned as is.
func (l *Loader) Load(ctx context.Context, req Request) (llm.Client, error) {
	if req.ModelName == "" {
		return nil, ErrModelNameRequired
	}

	apiKey, err := l.resolveKey(ctx, req.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve DashScope API key: %w", err)
	}

	for retries := 0; ; retries++ {
		cfg := NewClientConfig(req.ModelName, req.Temperature, apiKey, req.BaseURL)

		l.logger.Info("loading Bailian model", "model", cfg.ModelName, "base_url", cfg.BaseURL)
		client, err := l.factory(ctx, cfg)
		if err == nil {
			l.logger.Info("Bailian model loaded", "model", cfg.ModelName)
			return client, nil
		}

		if !llm.IsAuthError(err) {
			l.logger.Error("failed to load Bailian model", "model", cfg.ModelName, "error", err)
			return nil, err
		}

		l.logger.Warn("invalid DashScope API key", "model", cfg.ModelName, "attempt", retries+1)
		if l.maxAuthRetries >= 0 && retries >= l.maxAuthRetries {
			return nil, fmt.Errorf("%w (%d attempts): %w", ErrAuthRetriesExhausted, retries+1, err)
		}

		apiKey, err = l.promptKey(ctx, promptInvalidKey)
		if err != nil {
			return nil, fmt.Errorf("failed to obtain a valid DashScope API key: %w", err)
		}
	}
}

// resolveKey applies explicit > environment > prompt.
func (l *Loader) resolveKey(ctx context.Context, explicit string) (string, error) {
	chain := credential.Chain{credential.Static(explicit)}
	if l.credentials != nil {
		chain = append(chain, l.credentials)
	} else {
		chain = append(chain,
			credential.EnvProvider{Env: l.env, Key: EnvAPIKey},
			credential.ProviderFunc(func(ctx context.Context) (string, error) {
				l.logger.Info("DashScope API key not found in environment variables")
				return l.promptKey(ctx, promptMissingKey)
			}),
		)
	}
	return chain.Resolve(ctx)
}

func (l *Loader) promptKey(ctx context.Context, message string) (string, error) {
	return credential.PromptProvider{
		Prompter: l.prompter,
		Env:      l.env,
		Key:      EnvAPIKey,
		Message:  message,
	}.Resolve(ctx)
}
