package cmd

import (
	"github.com/spf13/cobra"

	"github.com/giantswarm/bailian-loader/internal/config"
	"github.com/giantswarm/bailian-loader/internal/credential"
	"github.com/giantswarm/bailian-loader/internal/loader"
)

// loaderFlags are the flags shared by commands that load a client.
type loaderFlags struct {
	model          string
	temperature    float64
	apiKey         string
	baseURL        string
	nonInteractive bool
	noVerify       bool
}

func (f *loaderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.model, "model", "", "Model name, e.g. qwen-max or qwen-plus (overrides config)")
	cmd.Flags().Float64Var(&f.temperature, "temperature", 0.0, "Sampling temperature (overrides config)")
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "DashScope API key (or set "+loader.EnvAPIKey+")")
	cmd.Flags().StringVar(&f.baseURL, "base-url", "", "OpenAI-compatible base URL (overrides config)")
	cmd.Flags().BoolVar(&f.nonInteractive, "non-interactive", false, "Fail instead of prompting for an API key")
	cmd.Flags().BoolVar(&f.noVerify, "no-verify", false, "Skip checking the API key against the endpoint")
}

// request merges flags over the loaded config. Temperature only overrides
// when the flag was set, since 0 is a valid value.
func (f *loaderFlags) request(cmd *cobra.Command, c *config.Config) loader.Request {
	req := loader.Request{
		ModelName:   c.Model,
		Temperature: c.Temperature,
		APIKey:      f.apiKey,
		BaseURL:     c.BaseURL,
	}
	if f.model != "" {
		req.ModelName = f.model
	}
	if cmd.Flags().Changed("temperature") {
		req.Temperature = f.temperature
	}
	if f.baseURL != "" {
		req.BaseURL = f.baseURL
	}
	return req
}

// newLoader builds a loader from config, letting the flags switch off
// prompting and key verification.
func (f *loaderFlags) newLoader(c *config.Config) *loader.Loader {
	return newLoaderFromConfig(c, f.nonInteractive, f.noVerify)
}

func newLoaderFromConfig(c *config.Config, nonInteractive, noVerify bool, extra ...loader.Option) *loader.Loader {
	var prompter credential.SecretPrompter = credential.NewTerminalPrompter()
	if nonInteractive || c.NonInteractive {
		prompter = credential.NonInteractivePrompter{}
	}

	opts := []loader.Option{
		loader.WithPrompter(prompter),
		loader.WithVerify(c.Verify && !noVerify),
		loader.WithMaxAuthRetries(c.MaxAuthRetries),
	}
	return loader.New(append(opts, extra...)...)
}
