package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/bailian-loader/internal/config"
)

func TestValidateHTTPSRequirement(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{
			name:    "https is valid",
			baseURL: "https://bailian.example.com",
			wantErr: false,
		},
		{
			name:    "localhost http is valid",
			baseURL: "http://localhost:8080",
			wantErr: false,
		},
		{
			name:    "127.0.0.1 http is valid",
			baseURL: "http://127.0.0.1:8080",
			wantErr: false,
		},
		{
			name:    "ipv6 loopback http is valid",
			baseURL: "http://[::1]:8080",
			wantErr: false,
		},
		{
			name:    "non-localhost http is invalid",
			baseURL: "http://example.com",
			wantErr: true,
		},
		{
			name:    "empty URL is invalid",
			baseURL: "",
			wantErr: true,
		},
		{
			name:    "ftp scheme is invalid",
			baseURL: "ftp://example.com",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateHTTPSRequirement(tt.baseURL)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func validOAuthConfig() OAuthConfig {
	return OAuthConfig{
		BaseURL:         "https://bailian.example.com",
		Provider:        OAuthProviderDex,
		DexIssuerURL:    "https://dex.example.com",
		DexClientID:     "bailian",
		DexClientSecret: "secret",
	}
}

func TestOAuthConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *OAuthConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(*OAuthConfig) {}},
		{name: "missing base URL", mutate: func(c *OAuthConfig) { c.BaseURL = "" }, wantErr: "--oauth-base-url"},
		{name: "unsupported provider", mutate: func(c *OAuthConfig) { c.Provider = "okta" }, wantErr: "unsupported OAuth provider"},
		{name: "missing issuer", mutate: func(c *OAuthConfig) { c.DexIssuerURL = "" }, wantErr: "issuer"},
		{name: "missing client ID", mutate: func(c *OAuthConfig) { c.DexClientID = "" }, wantErr: "client ID"},
		{name: "missing client secret", mutate: func(c *OAuthConfig) { c.DexClientSecret = "" }, wantErr: "client secret"},
		{name: "plain http", mutate: func(c *OAuthConfig) { c.BaseURL = "http://bailian.example.com" }, wantErr: "HTTPS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validOAuthConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOAuthConfigFillFromEnv(t *testing.T) {
	t.Setenv("DEX_ISSUER_URL", "https://dex.env.example.com")
	t.Setenv("DEX_CLIENT_ID", "env-client")
	t.Setenv("DEX_CLIENT_SECRET", "env-secret")

	cfg := OAuthConfig{DexClientID: "flag-client"}
	cfg.FillFromEnv()

	assert.Equal(t, "https://dex.env.example.com", cfg.DexIssuerURL)
	assert.Equal(t, "flag-client", cfg.DexClientID)
	assert.Equal(t, "env-secret", cfg.DexClientSecret)
}

func TestNewHTTPServerRejectsInvalidOAuth(t *testing.T) {
	mcpSrv := mcpserver.NewMCPServer("bailian", "test")
	oauthCfg := validOAuthConfig()
	oauthCfg.Provider = "okta"

	_, err := NewHTTPServer(mcpSrv, HTTPConfig{Addr: ":0", Endpoint: "/mcp", OAuth: &oauthCfg}, &ServerContext{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid OAuth configuration")
}

func TestHealthz(t *testing.T) {
	mcpSrv := mcpserver.NewMCPServer("bailian", "test")
	sc := &ServerContext{Defaults: config.Config{
		Model:   "qwen-plus",
		BaseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1",
	}}

	srv, err := NewHTTPServer(mcpSrv, HTTPConfig{Addr: ":0", Endpoint: "/mcp"}, sc)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var health Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "qwen-plus", health.Model)
	assert.Equal(t, "https://dashscope.aliyuncs.com/compatible-mode/v1", health.BaseURL)
	assert.False(t, health.OAuth)
}

func TestShutdownBeforeStart(t *testing.T) {
	mcpSrv := mcpserver.NewMCPServer("bailian", "test")
	srv, err := NewHTTPServer(mcpSrv, HTTPConfig{Addr: ":0", Endpoint: "/mcp"}, &ServerContext{})
	require.NoError(t, err)

	assert.NoError(t, srv.Shutdown(t.Context()))
}
