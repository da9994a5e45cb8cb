package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/giantswarm/bailian-loader/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "bailian",
	Short: "Chat with Alibaba Bailian (DashScope) models over the OpenAI-compatible API",
	Long: `bailian builds chat clients for Alibaba Cloud's Bailian (百炼) models through
DashScope's OpenAI-compatible endpoint.

The API key is taken from --api-key, then DASHSCOPE_API_KEY, and otherwise
requested interactively. A key rejected by DashScope is asked for again a
bounded number of times (see max_auth_retries in the config file).

The same loader backs an MCP server ('bailian serve') exposing chat and
model listing tools.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		if verbose {
			slog.SetDefault(newVerboseLogger(logOutput))
		}

		envFile, _ := cmd.Flags().GetString("env-file")
		if err := config.LoadDotEnv(envFile); err != nil {
			return fmt.Errorf("failed to load env file %q: %w", envFile, err)
		}

		configPath, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		slog.Debug("configuration loaded", "model", cfg.Model, "base_url", cfg.BaseURL)
		return nil
	},
}

// logOutput receives --verbose logs. stdout is reserved for command output
// and the stdio MCP transport.
var logOutput io.Writer = os.Stderr

func newVerboseLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// cfg is populated by the root command before any subcommand runs.
var cfg *config.Config

var (
	buildCommit = "unknown"
	buildDate   = "unknown"
)

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// SetBuildInfo sets the commit and build date for the version command.
func SetBuildInfo(commit, date string) {
	buildCommit = commit
	buildDate = date
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "bailian version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newModelsCmd())
	rootCmd.AddCommand(newServeCmd())

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file merged over the built-in defaults")
	rootCmd.PersistentFlags().String("env-file", ".env", "Path to a .env file to load (ignored when missing)")
}
