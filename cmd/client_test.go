package cmd

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/bailian-loader/internal/config"
	"github.com/giantswarm/bailian-loader/internal/credential"
	"github.com/giantswarm/bailian-loader/internal/loader"
)

func newFlagTestCmd(t *testing.T, args ...string) (*cobra.Command, *loaderFlags) {
	t.Helper()
	var flags loaderFlags
	cmd := &cobra.Command{Use: "test"}
	flags.register(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd, &flags
}

func testConfig() *config.Config {
	return &config.Config{
		Model:          "qwen-plus",
		Temperature:    0.4,
		BaseURL:        "https://dashscope.aliyuncs.com/compatible-mode/v1",
		MaxAuthRetries: 3,
		Verify:         true,
	}
}

func TestRequestUsesConfigDefaults(t *testing.T) {
	cmd, flags := newFlagTestCmd(t)

	req := flags.request(cmd, testConfig())
	assert.Equal(t, "qwen-plus", req.ModelName)
	assert.Equal(t, 0.4, req.Temperature)
	assert.Equal(t, "https://dashscope.aliyuncs.com/compatible-mode/v1", req.BaseURL)
	assert.Empty(t, req.APIKey)
}

func TestRequestFlagsOverrideConfig(t *testing.T) {
	cmd, flags := newFlagTestCmd(t,
		"--model", "qwen-max",
		"--temperature", "0",
		"--api-key", "sk-flag",
		"--base-url", "https://dashscope-intl.aliyuncs.com/compatible-mode/v1",
	)

	req := flags.request(cmd, testConfig())
	assert.Equal(t, "qwen-max", req.ModelName)
	assert.Equal(t, 0.0, req.Temperature)
	assert.Equal(t, "sk-flag", req.APIKey)
	assert.Equal(t, "https://dashscope-intl.aliyuncs.com/compatible-mode/v1", req.BaseURL)
}

func TestNewLoaderFromConfig(t *testing.T) {
	assert.NotNil(t, newLoaderFromConfig(testConfig(), true, true))
	assert.NotNil(t, newLoaderFromConfig(testConfig(), false, false))
}

func TestRootRegistersSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"chat", "models", "serve", "version"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestVerboseLogsGoToStderr(t *testing.T) {
	assert.Equal(t, io.Writer(os.Stderr), logOutput)

	var buf bytes.Buffer
	newVerboseLogger(&buf).Debug("loading Bailian model", "model", "qwen-plus")
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "model=qwen-plus")
}

func TestServeLoaderSnapshotsAPIKey(t *testing.T) {
	t.Setenv(loader.EnvAPIKey, "sk-serve")

	env := credential.Snapshot(loader.EnvAPIKey)
	require.NoError(t, os.Setenv(loader.EnvAPIKey, "sk-changed"))

	key, ok := env.Lookup(loader.EnvAPIKey)
	require.True(t, ok)
	assert.Equal(t, "sk-serve", key)
	assert.NotNil(t, newServeLoader(testConfig(), true))
}
