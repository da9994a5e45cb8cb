package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/giantswarm/bailian-loader/internal/config"
	"github.com/giantswarm/bailian-loader/internal/credential"
	"github.com/giantswarm/bailian-loader/internal/loader"
	mcptools "github.com/giantswarm/bailian-loader/internal/mcp"
	"github.com/giantswarm/bailian-loader/internal/server"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"

	shutdownTimeout = 10 * time.Second
)

func newServeCmd() *cobra.Command {
	var (
		transport    string
		httpAddr     string
		httpEndpoint string
		noVerify     bool

		enableOAuth bool
		oauthCfg    server.OAuthConfig
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start an MCP server exposing the 'chat' and 'list_models' tools backed by
Bailian models.

The server never prompts for an API key: set DASHSCOPE_API_KEY (or put it in
the .env file) before starting it.

Supports multiple transport types:
  - stdio: Standard input/output (default, for IDE integration)
  - streamable-http: HTTP with streaming support (for remote access)

When using streamable-http transport, OAuth 2.1 authentication can be enabled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc := &server.ServerContext{
				Loader:   newServeLoader(cfg, noVerify),
				Defaults: *cfg,
			}

			mcpSrv := mcpserver.NewMCPServer("bailian", rootCmd.Version,
				mcpserver.WithToolCapabilities(true),
			)

			if err := mcptools.RegisterTools(mcpSrv, sc); err != nil {
				return fmt.Errorf("failed to register MCP tools: %w", err)
			}

			switch transport {
			case transportStdio:
				return runStdioServer(mcpSrv)
			case transportStreamableHTTP:
				httpCfg := server.HTTPConfig{Addr: httpAddr, Endpoint: httpEndpoint}
				if enableOAuth {
					oauthCfg.FillFromEnv()
					httpCfg.OAuth = &oauthCfg
				}
				shutdownCtx, cancel := signal.NotifyContext(context.Background(),
					os.Interrupt, syscall.SIGTERM)
				defer cancel()
				return runHTTPServer(shutdownCtx, mcpSrv, httpCfg, sc)
			default:
				return fmt.Errorf("unsupported transport: %s (supported: stdio, streamable-http)", transport)
			}
		},
	}

	cmd.Flags().StringVar(&transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http)")
	cmd.Flags().StringVar(&httpEndpoint, "http-endpoint", "/mcp", "HTTP endpoint path (for streamable-http)")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "Skip checking the API key against the endpoint on each call")

	cmd.Flags().BoolVar(&enableOAuth, "enable-oauth", false, "Enable OAuth 2.1 authentication (for HTTP transport)")
	cmd.Flags().StringVar(&oauthCfg.BaseURL, "oauth-base-url", "", "OAuth base URL (e.g. https://bailian.example.com)")
	cmd.Flags().StringVar(&oauthCfg.Provider, "oauth-provider", server.OAuthProviderDex, "OAuth provider: dex")
	cmd.Flags().StringVar(&oauthCfg.DexIssuerURL, "dex-issuer-url", "", "Dex OIDC issuer URL")
	cmd.Flags().StringVar(&oauthCfg.DexClientID, "dex-client-id", "", "Dex OAuth client ID")
	cmd.Flags().StringVar(&oauthCfg.DexClientSecret, "dex-client-secret", "", "Dex OAuth client secret")

	return cmd
}

// newServeLoader never prompts and reads the API key from a copy of the
// environment taken at startup.
func newServeLoader(c *config.Config, noVerify bool) *loader.Loader {
	return newLoaderFromConfig(c, true, noVerify,
		loader.WithEnv(credential.Snapshot(loader.EnvAPIKey)),
	)
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, httpCfg server.HTTPConfig, sc *server.ServerContext) error {
	srv, err := server.NewHTTPServer(mcpSrv, httpCfg, sc)
	if err != nil {
		return err
	}

	slog.Info("starting bailian MCP server",
		"transport", transportStreamableHTTP,
		"addr", httpCfg.Addr,
		"endpoint", httpCfg.Endpoint,
		"oauth", httpCfg.OAuth != nil,
		"model", sc.Defaults.Model,
	)

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	slog.Info("HTTP server stopped")
	return nil
}
