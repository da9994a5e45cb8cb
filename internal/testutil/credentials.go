package testutil

import (
	"context"
	"fmt"
	"sync"
)

// ScriptedPrompter returns Secrets in order, one per PromptSecret call.
type ScriptedPrompter struct {
	Secrets []string

	// Messages records the prompt text of every call.
	Messages []string
}

// Calls returns how many times the prompter was invoked.
func (p *ScriptedPrompter) Calls() int {
	return len(p.Messages)
}

func (p *ScriptedPrompter) PromptSecret(_ context.Context, message string) (string, error) {
	idx := len(p.Messages)
	p.Messages = append(p.Messages, message)
	if idx >= len(p.Secrets) {
		return "", fmt.Errorf("ScriptedPrompter: no more secrets (call #%d)", idx+1)
	}
	return p.Secrets[idx], nil
}

// RecordingEnv is an in-memory credential store that counts reads and writes.
type RecordingEnv struct {
	mu      sync.Mutex
	vars    map[string]string
	lookups int
	sets    int
}

// NewRecordingEnv returns a RecordingEnv seeded with vars.
func NewRecordingEnv(vars map[string]string) *RecordingEnv {
	e := &RecordingEnv{vars: make(map[string]string)}
	for k, v := range vars {
		e.vars[k] = v
	}
	return e
}

func (e *RecordingEnv) Lookup(key string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lookups++
	v, ok := e.vars[key]
	return v, ok
}

func (e *RecordingEnv) Set(key, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sets++
	e.vars[key] = value
	return nil
}

// Get reads a value without counting it as a lookup.
func (e *RecordingEnv) Get(key string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vars[key]
}

// Lookups returns the number of Lookup calls.
func (e *RecordingEnv) Lookups() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lookups
}

// Sets returns the number of Set calls.
func (e *RecordingEnv) Sets() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sets
}
