package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/roiread/pkg/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect the configuration file",
	}

	var (
		catalogDir string
		force      bool
		printKey   bool
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration with a generated API key",
		Long: `Write a default configuration file with a freshly generated API key for
the REST server. An existing file is left alone unless --force is given.

Examples:
  roiread config init
  roiread config init --config ./roiread.yaml --catalog-dir ./data --print-key`,
		Args: cobra.NoArgs,
		// The file may not exist yet, so skip the root config loading.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.configPath == "" {
				a.configPath = config.GetDefaultConfigPath()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.ConfigExists(a.configPath) && !force {
				return fmt.Errorf("config file already exists: %s (use --force to overwrite)", a.configPath)
			}
			cfg, err := config.BootstrapConfig(a.configPath, catalogDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration created at %s\n", a.configPath)
			if printKey {
				fmt.Fprintf(out, "API Key: %s\n", cfg.Server.APIKey)
			}
			return nil
		},
	}
	initCmd.Flags().StringVar(&catalogDir, "catalog-dir", "", "catalog directory to record in the config")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	initCmd.Flags().BoolVar(&printKey, "print-key", false, "print the generated API key")

	var showSecrets bool
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *a.cfg
			if cfg.Server.APIKey != "" && !showSecrets {
				cfg.Server.APIKey = "********"
			}
			format := a.cfg.Output.Format
			if format == "table" {
				format = "yaml"
			}
			return outputValue(cmd.OutOrStdout(), format, cfg)
		},
	}
	showCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print the API key instead of masking it")

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
