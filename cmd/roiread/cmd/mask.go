package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ssargent/roiread/pkg/mask"
	"github.com/ssargent/roiread/pkg/roi"
)

func newMaskCmd(a *app) *cobra.Command {
	var (
		outDir        string
		width, height int
		combined      string
	)
	cmd := &cobra.Command{
		Use:   "mask <path>",
		Short: "Render ROI masks as images",
		Long: `Render one white-on-black mask image per area ROI in path. Lines, angles
and point selections enclose no area and are skipped.

With --combined every ROI is also drawn, each in its own color, onto a
single image. The image format follows the file extension (png, jpg, tif,
bmp or gif). Without --width and --height the images are sized to fit.

Examples:
  roiread mask RoiSet.zip --out masks
  roiread mask RoiSet.zip --out masks --width 1024 --height 1024 --combined all.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll, err := a.decodePath(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("failed to create output dir: %w", err)
			}

			if width <= 0 || height <= 0 {
				var all []*roi.ROI
				for _, r := range coll.All() {
					all = append(all, r)
				}
				width, height = mask.Extent(all...)
			}

			written := 0
			for key, r := range coll.All() {
				img, err := mask.Render(r, width, height)
				if errors.Is(err, mask.ErrNoArea) {
					a.logger.Debug("skipping ROI without area", "key", key, "type", r.Kind)
					continue
				}
				if err != nil {
					return fmt.Errorf("%s: %w", key, err)
				}
				if err := mask.Save(img, filepath.Join(outDir, key+".png")); err != nil {
					return err
				}
				written++
			}

			if combined != "" {
				img, err := mask.RenderCollection(coll, width, height)
				if err != nil {
					return err
				}
				if err := mask.Save(img, filepath.Join(outDir, combined)); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d masks to %s\n", written, outDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "masks", "output directory")
	cmd.Flags().IntVar(&width, "width", 0, "image width in pixels")
	cmd.Flags().IntVar(&height, "height", 0, "image height in pixels")
	cmd.Flags().StringVar(&combined, "combined", "", "also write all ROIs to this file in the output directory")
	return cmd
}
