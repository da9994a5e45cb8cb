package credential

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/bailian-loader/internal/testutil"
)

const testKey = "DASHSCOPE_API_KEY"

func TestStatic(t *testing.T) {
	key, err := Static("sk-explicit").Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sk-explicit", key)

	_, err = Static("").Resolve(context.Background())
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestEnvProvider(t *testing.T) {
	env := NewMapEnv(map[string]string{testKey: "sk-test"})

	key, err := EnvProvider{Env: env, Key: testKey}.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sk-test", key)
}

func TestEnvProviderEmptyValue(t *testing.T) {
	env := NewMapEnv(map[string]string{testKey: ""})

	_, err := EnvProvider{Env: env, Key: testKey}.Resolve(context.Background())
	assert.ErrorIs(t, err, ErrNoCredential)
	assert.Contains(t, err.Error(), testKey)
}

func TestPromptProviderStoresSecret(t *testing.T) {
	env := NewMapEnv(nil)
	prompter := &testutil.ScriptedPrompter{Secrets: []string{"  sk-typed \n"}}

	key, err := PromptProvider{
		Prompter: prompter,
		Env:      env,
		Key:      testKey,
		Message:  "key: ",
	}.Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "sk-typed", key)
	assert.Equal(t, []string{"key: "}, prompter.Messages)

	stored, ok := env.Lookup(testKey)
	assert.True(t, ok)
	assert.Equal(t, "sk-typed", stored)
}

func TestPromptProviderRejectsEmpty(t *testing.T) {
	env := NewMapEnv(nil)
	prompter := &testutil.ScriptedPrompter{Secrets: []string{"   "}}

	_, err := PromptProvider{Prompter: prompter, Env: env, Key: testKey}.Resolve(context.Background())
	assert.ErrorIs(t, err, ErrEmptyCredential)

	_, ok := env.Lookup(testKey)
	assert.False(t, ok)
}

func TestChainOrder(t *testing.T) {
	env := testutil.NewRecordingEnv(map[string]string{testKey: "sk-env"})
	prompter := &testutil.ScriptedPrompter{Secrets: []string{"sk-prompt"}}

	chain := Chain{
		Static("sk-explicit"),
		EnvProvider{Env: env, Key: testKey},
		PromptProvider{Prompter: prompter, Env: env, Key: testKey},
	}

	key, err := chain.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sk-explicit", key)
	assert.Equal(t, 0, env.Lookups())
	assert.Equal(t, 0, prompter.Calls())
}

func TestChainFallsThroughToPrompt(t *testing.T) {
	env := testutil.NewRecordingEnv(nil)
	prompter := &testutil.ScriptedPrompter{Secrets: []string{"sk-prompt"}}

	chain := Chain{
		Static(""),
		EnvProvider{Env: env, Key: testKey},
		PromptProvider{Prompter: prompter, Env: env, Key: testKey},
	}

	key, err := chain.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sk-prompt", key)
	assert.Equal(t, 1, prompter.Calls())
	assert.Equal(t, "sk-prompt", env.Get(testKey))
}

func TestChainStopsOnHardError(t *testing.T) {
	boom := errors.New("boom")
	chain := Chain{
		ProviderFunc(func(context.Context) (string, error) { return "", boom }),
		Static("sk-never"),
	}

	_, err := chain.Resolve(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestChainExhausted(t *testing.T) {
	chain := Chain{Static(""), PromptProvider{Prompter: NonInteractivePrompter{}}}

	_, err := chain.Resolve(context.Background())
	assert.ErrorIs(t, err, ErrNoCredential)
	assert.Contains(t, err.Error(), "interactive prompt disabled")
}

func TestChainExhaustedKeepsLastDetail(t *testing.T) {
	chain := Chain{
		Static(""),
		EnvProvider{Env: NewMapEnv(nil), Key: testKey},
	}

	_, err := chain.Resolve(context.Background())
	require.ErrorIs(t, err, ErrNoCredential)
	assert.EqualError(t, err, ErrNoCredential.Error()+": "+testKey+" is not set")
}

func TestEmptyChain(t *testing.T) {
	_, err := Chain{}.Resolve(context.Background())
	assert.Equal(t, ErrNoCredential, err)
}

func TestSnapshot(t *testing.T) {
	t.Setenv(testKey, "sk-snap")

	env := Snapshot(testKey, "BAILIAN_TEST_UNSET_KEY")
	t.Setenv(testKey, "sk-later")

	v, ok := env.Lookup(testKey)
	require.True(t, ok)
	assert.Equal(t, "sk-snap", v)

	_, ok = env.Lookup("BAILIAN_TEST_UNSET_KEY")
	assert.False(t, ok)
}

func TestTerminalPrompterReadsPipedLine(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	_, err = w.WriteString("sk-piped\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	var out bytes.Buffer
	p := &TerminalPrompter{In: r, Out: &out}

	secret, err := p.PromptSecret(context.Background(), "Enter key: ")
	require.NoError(t, err)
	assert.Equal(t, "sk-piped", secret)
	assert.Equal(t, "Enter key: ", out.String())

	_, err = p.PromptSecret(context.Background(), "Enter key: ")
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestTerminalPrompterHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewTerminalPrompter()
	_, err := p.PromptSecret(ctx, "Enter key: ")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOSEnvRoundTrip(t *testing.T) {
	t.Setenv(testKey, "")

	env := OSEnv{}
	require.NoError(t, env.Set(testKey, "sk-os"))

	v, ok := env.Lookup(testKey)
	assert.True(t, ok)
	assert.Equal(t, "sk-os", v)
}
