package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/roiread/pkg/archive"
	"github.com/ssargent/roiread/pkg/roi"
)

func newDecodeCmd(a *app) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "decode <path>",
		Short: "Decode a .roi file, directory or zip archive",
		Long: `Decode every ROI record in path and print them in detail.

Path may be a single .roi file, a directory of .roi files or a zip archive
such as the RoiSet.zip written by the ImageJ ROI Manager. Entries that fail
to decode are reported after the decoded ROIs.

Examples:
  roiread decode cell.roi
  roiread decode RoiSet.zip --format yaml
  roiread decode RoiSet.zip --strict`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll, err := a.decodePath(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := outputCollection(cmd.OutOrStdout(), a.cfg.Output.Format, coll); err != nil {
				return err
			}
			if strict && len(coll.Failures()) > 0 {
				return fmt.Errorf("%d of %d entries failed to decode", len(coll.Failures()), coll.Len()+len(coll.Failures()))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any entry fails to decode")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <path>",
		Short: "List the ROIs in a file, directory or zip archive",
		Long: `List prints one line per decoded ROI with its kind, bounding box, point
count and stack position.

Examples:
  roiread list RoiSet.zip
  roiread list cells/ --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll, err := a.decodePath(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.cfg.Output.Format != "table" {
				return outputValue(cmd.OutOrStdout(), a.cfg.Output.Format, coll)
			}
			return outputSummaryTable(cmd.OutOrStdout(), coll)
		},
	}
}

// decodePath opens path as an archive source and decodes all of its entries.
func (a *app) decodePath(ctx context.Context, path string) (*roi.Collection, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	src, err := archive.Open(path, archive.WithMaxEntrySize(a.cfg.Decode.MaxEntrySize))
	if err != nil {
		return nil, err
	}
	defer src.Close()

	coll, err := roi.DecodeAll(ctx, src.Entries(),
		roi.WithWorkers(a.cfg.Decode.Workers),
		roi.WithObserver(a.observe),
	)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	a.logger.Debug("decoded archive", "path", path, "rois", coll.Len(), "failures", len(coll.Failures()))
	return coll, nil
}

func (a *app) observe(name string, r *roi.ROI, err error) {
	if err != nil {
		a.logger.Warn("entry failed to decode", "entry", name, "error", err)
		return
	}
	a.logger.Debug("decoded entry", "entry", name, "type", r.Kind)
	for _, note := range r.Notes {
		a.logger.Warn("entry decoded with problems", "entry", name, "note", note)
	}
}
