package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newRotateCommand(a *app) *cobra.Command {
	rotateCmd := &cobra.Command{
		Use:   "rotate [files...] --angle degrees",
		Short: "Rotate images in place",
		Long: `Rotate each image by the given angle and overwrite it in its original
format. Positive angles turn counter-clockwise, negative angles clockwise.
The canvas grows to fit the rotated image; uncovered corners are filled with
rotate.background.

Examples:
  tiffkit rotate page3.png --angle 90
  tiffkit rotate scan.tiff --angle -90`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRotate(cmd, args)
		},
	}

	rotateCmd.Flags().IntP("angle", "a", 0, "rotation in degrees, positive is counter-clockwise")
	_ = rotateCmd.MarkFlagRequired("angle")

	return rotateCmd
}

func (a *app) runRotate(cmd *cobra.Command, args []string) error {
	degrees, _ := cmd.Flags().GetInt("angle")

	orch, err := a.orchestrator()
	if err != nil {
		return err
	}

	var errs []error
	for _, path := range args {
		if err := orch.RotateInPlace(cmd.Context(), path, degrees); err != nil {
			a.logger.Error("rotation failed", "file", path, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "rotated %s by %d degrees\n", path, degrees)
	}
	a.exportMetrics()

	return errors.Join(errs...)
}
