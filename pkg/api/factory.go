package api

import (
	"context"
	"log/slog"
)

// DefaultServerStarter is the default implementation of ServerStarter
type DefaultServerStarter struct{}

// NewServerStarter creates the default server starter
func NewServerStarter() ServerStarter {
	return &DefaultServerStarter{}
}

// StartServer starts the API server with the given configuration
func (s *DefaultServerStarter) StartServer(ctx context.Context, catalog Catalog, config ServerConfig, logger *slog.Logger) error {
	return StartServer(ctx, catalog, config, logger)
}
