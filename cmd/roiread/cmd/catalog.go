package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ssargent/roiread/pkg/storage"
)

func newCatalogCmd(a *app) *cobra.Command {
	var catalogDir string

	// withCatalog opens the catalog for the length of one subcommand.
	withCatalog := func(fn func(catalog *storage.DefaultStorage) error) error {
		catalog, err := openCatalog(a.cfg.Catalog.Dir)
		if err != nil {
			return err
		}
		defer catalog.Close()
		return fn(catalog)
	}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Store and retrieve decoded collections",
		Long: `The catalog keeps decoded collections on disk so they can be listed and
fetched again without the source archive.

Examples:
  roiread catalog put RoiSet.zip
  roiread catalog list
  roiread catalog get 2Ym1lYLrU6xXdEjbYbW5b3WHi8S --format json
  roiread catalog delete 2Ym1lYLrU6xXdEjbYbW5b3WHi8S`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			if catalogDir != "" {
				a.cfg.Catalog.Dir = catalogDir
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&catalogDir, "catalog-dir", "", "catalog directory (default from config)")

	putCmd := &cobra.Command{
		Use:   "put <path>",
		Short: "Decode a file or archive and store the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll, err := a.decodePath(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var summary *storage.Summary
			err = withCatalog(func(catalog *storage.DefaultStorage) error {
				summary, err = catalog.Create(filepath.Base(args[0]), coll)
				return err
			})
			if err != nil {
				return err
			}
			a.logger.Info("stored collection", "id", summary.ID, "source", summary.Source)
			if a.cfg.Output.Format != "table" {
				return outputValue(cmd.OutOrStdout(), a.cfg.Output.Format, summary)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %d ROIs (%d failed) as %s\n", summary.ROIs, summary.Failures, summary.ID)
			return nil
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Print a stored collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(func(catalog *storage.DefaultStorage) error {
				coll, err := catalog.Read(args[0])
				if err != nil {
					return err
				}
				return outputCollection(cmd.OutOrStdout(), a.cfg.Output.Format, coll)
			})
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(func(catalog *storage.DefaultStorage) error {
				summaries, err := catalog.List()
				if err != nil {
					return err
				}
				return outputSummaries(cmd.OutOrStdout(), a.cfg.Output.Format, summaries)
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a stored collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := withCatalog(func(catalog *storage.DefaultStorage) error {
				return catalog.Delete(args[0])
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(putCmd, getCmd, listCmd, deleteCmd)
	return cmd
}
