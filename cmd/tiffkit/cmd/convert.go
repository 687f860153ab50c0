package cmd

import (
	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/tiffkit/internal/utils"
)

func newConvertCommand(a *app) *cobra.Command {
	convertCmd := &cobra.Command{
		Use:   "convert [files or directories...]",
		Short: "Convert images to another format",
		Long: `Convert every existing input image into the destination directory,
keeping its base name and replacing the extension with the target format's.
Missing inputs are reported and skipped; the remaining files are still
converted.

Supported inputs: JPEG, PNG, BMP, GIF, TIFF

Examples:
  tiffkit convert scan1.png scan2.bmp --dest archive/
  tiffkit convert scans/ -r --include '*.png' --dest archive/ --to tiff
  tiffkit convert photo.tiff --dest web/ --to jpg --delete-source`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConvert(cmd, args)
		},
	}

	addInputFlags(convertCmd.Flags())
	convertCmd.Flags().StringP("to", "t", "tiff", "target format: tiff, png, jpg, bmp, gif")

	return convertCmd
}

func (a *app) runConvert(cmd *cobra.Command, args []string) error {
	format, err := a.cfg.TargetFormat()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("to") {
		to, _ := cmd.Flags().GetString("to")
		if format, err = utils.ParseFormat(to); err != nil {
			return err
		}
	}

	dest, err := destination(cmd)
	if err != nil {
		return err
	}
	paths, err := inputPaths(cmd, args)
	if err != nil {
		return err
	}
	orch, err := a.orchestrator()
	if err != nil {
		return err
	}

	out, runErr := orch.ConvertToFormat(cmd.Context(), paths, dest, format, deleteSource(cmd, a.cfg.Convert.DeleteSource))
	return a.report(cmd, out, runErr)
}
