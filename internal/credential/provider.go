// Package credential resolves API keys from explicit values, an environment
// store or an operator prompt.
package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoCredential is returned when a provider has no key to offer.
	ErrNoCredential = errors.New("no API key available")

	// ErrEmptyCredential is returned when the operator submits an empty key.
	ErrEmptyCredential = errors.New("empty API key entered")
)

// Provider resolves an API key.
// Implementations return ErrNoCredential (possibly wrapped) when they have
// nothing to offer, so a Chain can move on to the next provider.
type Provider interface {
	Resolve(ctx context.Context) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (string, error)

// Resolve implements Provider.
func (f ProviderFunc) Resolve(ctx context.Context) (string, error) {
	return f(ctx)
}

// Static is a fixed key. An empty Static has no key.
type Static string

// Resolve implements Provider.
func (s Static) Resolve(_ context.Context) (string, error) {
	if s == "" {
		return "", ErrNoCredential
	}
	return string(s), nil
}

// EnvProvider reads a key from an Env.
type EnvProvider struct {
	Env Env
	Key string
}

// Resolve implements Provider.
func (p EnvProvider) Resolve(_ context.Context) (string, error) {
	v, ok := p.Env.Lookup(p.Key)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s is not set", ErrNoCredential, p.Key)
	}
	return v, nil
}

// PromptProvider asks the operator for a key and stores it in Env under Key,
// so later lookups in the same process find it.
type PromptProvider struct {
	Prompter SecretPrompter
	Env      Env
	Key      string
	Message  string
}

// Resolve implements Provider.
func (p PromptProvider) Resolve(ctx context.Context) (string, error) {
	secret, err := p.Prompter.PromptSecret(ctx, p.Message)
	if err != nil {
		return "", err
	}
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return "", ErrEmptyCredential
	}
	if p.Env != nil {
		if err := p.Env.Set(p.Key, secret); err != nil {
			return "", fmt.Errorf("failed to store %s: %w", p.Key, err)
		}
	}
	return secret, nil
}

// Chain tries each provider in order and returns the first key found.
// Errors other than ErrNoCredential stop the chain. When every provider
// comes up empty, the last provider's error is returned.
type Chain []Provider

// Resolve implements Provider.
func (c Chain) Resolve(ctx context.Context) (string, error) {
	lastErr := ErrNoCredential
	for _, p := range c {
		key, err := p.Resolve(ctx)
		if err == nil {
			return key, nil
		}
		if !errors.Is(err, ErrNoCredential) {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}
