package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/roiread/pkg/api"
	"github.com/ssargent/roiread/pkg/storage"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long: `Start the roiread REST API server. Uploaded ROI files and zip archives are
decoded on request and can be stored in the catalog.

When an API key is configured every /api/v1 route requires it in the
X-API-Key header. Prometheus metrics are served at /metrics.

Examples:
  roiread serve
  roiread serve --port 8080 --bind 0.0.0.0 --api-key mysecretkey`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("port") {
				a.cfg.Server.Port, _ = flags.GetInt("port")
			}
			if flags.Changed("bind") {
				a.cfg.Server.Bind, _ = flags.GetString("bind")
			}
			if flags.Changed("api-key") {
				a.cfg.Server.APIKey, _ = flags.GetString("api-key")
			}
			if flags.Changed("catalog-dir") {
				a.cfg.Catalog.Dir, _ = flags.GetString("catalog-dir")
			}
			if a.cfg.Server.APIKey == "" {
				a.logger.Warn("no API key configured, the API is open to anyone who can reach it")
			}

			catalog, err := openCatalog(a.cfg.Catalog.Dir)
			if err != nil {
				return err
			}
			defer catalog.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			config := api.ServerConfig{
				Bind:           a.cfg.Server.Bind,
				Port:           a.cfg.Server.Port,
				APIKey:         a.cfg.Server.APIKey,
				MaxUploadBytes: a.cfg.Server.MaxUploadBytes,
				Workers:        a.cfg.Decode.Workers,
				MaxEntrySize:   a.cfg.Decode.MaxEntrySize,
			}
			return a.container.GetServerStarter().StartServer(ctx, catalog, config, a.logger)
		},
	}

	cmd.Flags().Int("port", 9200, "port to listen on")
	cmd.Flags().String("bind", "127.0.0.1", "address to bind to")
	cmd.Flags().String("api-key", "", "API key required by /api/v1 routes")
	cmd.Flags().String("catalog-dir", "", "catalog directory")
	return cmd
}

func openCatalog(dir string) (*storage.DefaultStorage, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create catalog dir: %w", err)
	}
	return storage.NewDefaultStorage(dir)
}
