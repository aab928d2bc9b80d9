// Package cmd implements the roiread command line.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/roiread/pkg/config"
	"github.com/ssargent/roiread/pkg/di"
	"github.com/ssargent/roiread/pkg/logging"
)

// app is the state shared by the subcommands of one invocation.
type app struct {
	container  *di.Container
	configPath string
	format     string
	workers    int
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

// Execute runs the command line and exits non-zero on failure.
func Execute(container *di.Container) {
	if err := NewRootCmd(container).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// NewRootCmd builds the roiread command tree.
func NewRootCmd(container *di.Container) *cobra.Command {
	a := &app{container: container}

	rootCmd := &cobra.Command{
		Use:   "roiread",
		Short: "Decode ImageJ ROI files and archives",
		Long: `roiread decodes ImageJ region-of-interest files (.roi) and zip
archives of them into structured records.

Examples:
  roiread decode RoiSet.zip
  roiread list cells/ --format json
  roiread mask RoiSet.zip --out masks --width 512 --height 512
  roiread catalog put RoiSet.zip
  roiread serve --port 9200`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.config/roiread/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&a.format, "format", "o", "", "output format (table, json or yaml)")
	rootCmd.PersistentFlags().IntVarP(&a.workers, "workers", "w", 0, "decode workers (default from config)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newDecodeCmd(a),
		newListCmd(a),
		newMaskCmd(a),
		newServeCmd(a),
		newCatalogCmd(a),
		newConfigCmd(a),
	)
	return rootCmd
}

// load reads the config file, applies flag overrides and builds the logger.
// A missing default config file is not an error; an explicit one must exist.
func (a *app) load(cmd *cobra.Command) error {
	path := a.configPath
	explicit := path != ""
	if !explicit {
		path = config.GetDefaultConfigPath()
	}

	cfg := config.DefaultConfig()
	if explicit || config.ConfigExists(path) {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	a.configPath = path

	if a.format != "" {
		cfg.Output.Format = a.format
	}
	if a.workers > 0 {
		cfg.Decode.Workers = a.workers
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}
