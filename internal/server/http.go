package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	oauth "github.com/giantswarm/mcp-oauth"
	"github.com/giantswarm/mcp-oauth/providers/dex"
	oauthserver "github.com/giantswarm/mcp-oauth/server"
	"github.com/giantswarm/mcp-oauth/storage/memory"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

const (
	// OAuthProviderDex is the Dex OIDC provider.
	OAuthProviderDex = "dex"

	defaultReadHeaderTimeout = 10 * time.Second
	defaultWriteTimeout      = 120 * time.Second
	defaultIdleTimeout       = 120 * time.Second
)

// OAuthConfig holds configuration for OAuth 2.1 protection of the MCP endpoint.
type OAuthConfig struct {
	// BaseURL is the server's public base URL (e.g. https://bailian.example.com).
	BaseURL string

	// Provider is the OAuth provider name. Only "dex" is supported.
	Provider string

	DexIssuerURL    string
	DexClientID     string
	DexClientSecret string
}

// FillFromEnv sets empty Dex fields from DEX_ISSUER_URL, DEX_CLIENT_ID and
// DEX_CLIENT_SECRET.
func (c *OAuthConfig) FillFromEnv() {
	if c.DexIssuerURL == "" {
		c.DexIssuerURL = os.Getenv("DEX_ISSUER_URL")
	}
	if c.DexClientID == "" {
		c.DexClientID = os.Getenv("DEX_CLIENT_ID")
	}
	if c.DexClientSecret == "" {
		c.DexClientSecret = os.Getenv("DEX_CLIENT_SECRET")
	}
}

// Validate checks that every field needed to start the OAuth server is set.
func (c *OAuthConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("--oauth-base-url is required when --enable-oauth is set")
	}
	if c.Provider != "" && c.Provider != OAuthProviderDex {
		return fmt.Errorf("unsupported OAuth provider %q (supported: %s)", c.Provider, OAuthProviderDex)
	}
	if c.DexIssuerURL == "" {
		return fmt.Errorf("dex issuer URL is required (--dex-issuer-url or DEX_ISSUER_URL)")
	}
	if c.DexClientID == "" {
		return fmt.Errorf("dex client ID is required (--dex-client-id or DEX_CLIENT_ID)")
	}
	if c.DexClientSecret == "" {
		return fmt.Errorf("dex client secret is required (--dex-client-secret or DEX_CLIENT_SECRET)")
	}
	return validateHTTPSRequirement(c.BaseURL)
}

// HTTPConfig configures the streamable-http MCP server.
type HTTPConfig struct {
	Addr     string
	Endpoint string

	// OAuth enables token validation on Endpoint when non-nil.
	OAuth *OAuthConfig
}

// Health is the body served on /healthz.
type Health struct {
	Status  string `json:"status"`
	Model   string `json:"model"`
	BaseURL string `json:"base_url"`
	OAuth   bool   `json:"oauth"`
}

// HTTPServer serves the MCP server over streamable HTTP, optionally behind OAuth.
type HTTPServer struct {
	mcpServer    *mcpserver.MCPServer
	cfg          HTTPConfig
	health       Health
	oauthServer  *oauth.Server
	oauthHandler *oauth.Handler
	httpServer   *http.Server
}

// NewHTTPServer creates the HTTP server. The OAuth server, if configured, is
// created eagerly so misconfiguration fails before listening.
func NewHTTPServer(mcpSrv *mcpserver.MCPServer, cfg HTTPConfig, sc *ServerContext) (*HTTPServer, error) {
	s := &HTTPServer{
		mcpServer: mcpSrv,
		cfg:       cfg,
		health: Health{
			Status:  "ok",
			Model:   sc.Defaults.Model,
			BaseURL: sc.Defaults.BaseURL,
			OAuth:   cfg.OAuth != nil,
		},
	}

	if cfg.OAuth != nil {
		if err := cfg.OAuth.Validate(); err != nil {
			return nil, fmt.Errorf("invalid OAuth configuration: %w", err)
		}
		if err := s.initOAuth(*cfg.OAuth); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *HTTPServer) initOAuth(cfg OAuthConfig) error {
	dexProvider, err := dex.NewProvider(&dex.Config{
		IssuerURL:    cfg.DexIssuerURL,
		ClientID:     cfg.DexClientID,
		ClientSecret: cfg.DexClientSecret,
		RedirectURL:  cfg.BaseURL + "/oauth/callback",
	})
	if err != nil {
		return fmt.Errorf("failed to create Dex provider: %w", err)
	}

	// In-memory storage: tokens do not survive restarts.
	store := memory.New()
	logger := slog.Default()

	oauthSrv, err := oauth.NewServer(
		dexProvider,
		store,
		store,
		store,
		&oauthserver.Config{
			Issuer:                    cfg.BaseURL,
			AllowRefreshTokenRotation: true,
			MaxClientsPerIP:           10,
		},
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create OAuth server: %w", err)
	}

	s.oauthServer = oauthSrv
	s.oauthHandler = oauth.NewHandler(oauthSrv, logger)
	return nil
}

// Handler returns the routing for the MCP endpoint, health check and, when
// enabled, the OAuth endpoints.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	var mcpHandler http.Handler = mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath(s.cfg.Endpoint),
	)

	if s.oauthHandler != nil {
		s.oauthHandler.RegisterAuthorizationServerMetadataRoutes(mux)
		s.oauthHandler.RegisterProtectedResourceMetadataRoutes(mux, s.cfg.Endpoint)
		mux.HandleFunc("/oauth/authorize", s.oauthHandler.ServeAuthorization)
		mux.HandleFunc("/oauth/token", s.oauthHandler.ServeToken)
		mux.HandleFunc("/oauth/callback", s.oauthHandler.ServeCallback)
		mux.HandleFunc("/oauth/register", s.oauthHandler.ServeClientRegistration)
		mux.HandleFunc("/oauth/revoke", s.oauthHandler.ServeTokenRevocation)
		mux.HandleFunc("/oauth/introspect", s.oauthHandler.ServeTokenIntrospection)
		mcpHandler = s.oauthHandler.ValidateToken(mcpHandler)
	}
	mux.Handle(s.cfg.Endpoint, mcpHandler)

	// Unauthenticated.
	mux.HandleFunc("/healthz", s.serveHealth)

	return mux
}

func (s *HTTPServer) serveHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.health); err != nil {
		slog.Error("failed to write health response", "error", err)
	}
}

// Start listens on the configured address. It blocks until the server stops.
func (s *HTTPServer) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.oauthServer != nil {
		if err := s.oauthServer.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OAuth server", "error", err)
		}
	}
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// validateHTTPSRequirement ensures OAuth 2.1 HTTPS compliance.
// Allows HTTP only for loopback addresses (localhost, 127.0.0.1, ::1).
func validateHTTPSRequirement(baseURL string) error {
	if baseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	if u.Scheme == "http" {
		host := u.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			return fmt.Errorf("OAuth 2.1 requires HTTPS for production (got: %s). Use HTTPS or localhost for development", baseURL)
		}
	} else if u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s (must be http for localhost or https)", u.Scheme)
	}

	return nil
}
