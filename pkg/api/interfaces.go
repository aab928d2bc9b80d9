package api

import (
	"context"
	"log/slog"
)

// ServerStarter starts the API server. The CLI depends on this interface so
// its serve command can be exercised without binding a port.
type ServerStarter interface {
	StartServer(ctx context.Context, catalog Catalog, config ServerConfig, logger *slog.Logger) error
}
