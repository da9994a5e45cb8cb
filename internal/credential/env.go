package credential

import (
	"os"
	"sync"
)

// Env is a key/value store for credentials. OSEnv is the process environment;
// MapEnv keeps values in memory.
type Env interface {
	Lookup(key string) (string, bool)
	Set(key, value string) error
}

// OSEnv reads and writes the process environment.
type OSEnv struct{}

// Lookup implements Env.
func (OSEnv) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// Set implements Env.
func (OSEnv) Set(key, value string) error {
	return os.Setenv(key, value)
}

// MapEnv is an in-memory Env, safe for concurrent use.
type MapEnv struct {
	mu   sync.Mutex
	vars map[string]string
}

// NewMapEnv returns a MapEnv seeded with vars. The map is copied.
func NewMapEnv(vars map[string]string) *MapEnv {
	m := &MapEnv{vars: make(map[string]string, len(vars))}
	for k, v := range vars {
		m.vars[k] = v
	}
	return m
}

// Lookup implements Env.
func (m *MapEnv) Lookup(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vars[key]
	return v, ok
}

// Set implements Env.
func (m *MapEnv) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.vars == nil {
		m.vars = make(map[string]string)
	}
	m.vars[key] = value
	return nil
}

// Snapshot copies the current process values of keys into a MapEnv. Unset
// keys are left out.
func Snapshot(keys ...string) *MapEnv {
	m := NewMapEnv(nil)
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok {
			m.vars[k] = v
		}
	}
	return m
}
