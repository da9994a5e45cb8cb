package server

import (
	"github.com/giantswarm/bailian-loader/internal/config"
	"github.com/giantswarm/bailian-loader/internal/loader"
)

// ServerContext holds shared dependencies for MCP tool handlers.
type ServerContext struct {
	// Loader builds clients per request. It must not prompt: no operator
	// is attached to a server process.
	Loader *loader.Loader

	// Defaults supplies model, temperature and base URL when a tool call
	// does not set them.
	Defaults config.Config
}
