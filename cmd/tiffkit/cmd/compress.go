package cmd

import (
	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/tiffkit/internal/utils"
)

func newCompressCommand(a *app) *cobra.Command {
	compressCmd := &cobra.Command{
		Use:   "compress [files or directories...]",
		Short: "Recompress images as losslessly compressed TIFF",
		Long: `Re-save every existing TIFF input in the destination directory under its
original file name, using a lossless compression scheme. When the
destination is the source directory the files are replaced in place.
Inputs that are not .tif/.tiff files are reported as failed and kept.

Schemes: deflate (alias zip, default), lzw, none

Examples:
  tiffkit compress archive/*.tiff --dest archive/
  tiffkit compress scans/ -r --include '*.tif*' --dest packed/ --scheme lzw --delete-source`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCompress(cmd, args)
		},
	}

	addInputFlags(compressCmd.Flags())
	compressCmd.Flags().StringP("scheme", "s", "deflate", "compression scheme: deflate, lzw, none")

	return compressCmd
}

func (a *app) runCompress(cmd *cobra.Command, args []string) error {
	scheme, err := a.cfg.CompressionScheme()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("scheme") {
		s, _ := cmd.Flags().GetString("scheme")
		if scheme, err = utils.ParseCompression(s); err != nil {
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

	out, runErr := orch.Compress(cmd.Context(), paths, dest, scheme, deleteSource(cmd, a.cfg.Compress.DeleteSource))
	return a.report(cmd, out, runErr)
}
