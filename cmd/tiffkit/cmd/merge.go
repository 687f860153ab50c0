package cmd

import (
	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/tiffkit/internal/renderer"
)

func newMergeCommand(a *app) *cobra.Command {
	mergeCmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge images into one multi-page TIFF or PDF",
		Long: `Merge every existing input, in the order given, into a single
Merge<YYYY-MM-DD_HH-MM-SS> file in the destination directory. The output is
written by one renderer run. Sources are deleted only when requested and
only after the output has been verified.

TIFF merges need renderer.path pointing at the IrfanView executable. PDF
merges use it too unless merge.pdf_backend (or --pdf-backend) is pdfcpu.`,
	}

	mergeCmd.AddCommand(
		newMergeModeCommand(a, renderer.ModeTIFF),
		newMergeModeCommand(a, renderer.ModePDF),
	)
	return mergeCmd
}

func newMergeModeCommand(a *app, mode renderer.Mode) *cobra.Command {
	modeCmd := &cobra.Command{
		Use:          mode.String() + " [files or directories...]",
		Short:        "Merge images into one multi-page " + mode.Extension()[1:] + " file",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMerge(cmd, mode, args)
		},
	}
	switch mode {
	case renderer.ModeTIFF:
		modeCmd.Example = `  tiffkit merge tiff page1.png page2.png page3.png --dest out/
  tiffkit merge tiff scans/ --dest out/ --delete-source`
	case renderer.ModePDF:
		modeCmd.Example = `  tiffkit merge pdf scans/ --dest out/ --pdf-backend pdfcpu
  tiffkit merge pdf a.png b.jpg --dest out/ --format json`
		modeCmd.Flags().String("pdf-backend", "renderer", "pdf backend: renderer (IrfanView) or pdfcpu")
	}

	addInputFlags(modeCmd.Flags())
	modeCmd.Flags().Bool("unique-suffix", false, "always append a random suffix to the output name")

	return modeCmd
}

func (a *app) runMerge(cmd *cobra.Command, mode renderer.Mode, args []string) error {
	if cmd.Flags().Changed("unique-suffix") {
		a.cfg.Merge.UniqueSuffix, _ = cmd.Flags().GetBool("unique-suffix")
	}
	if cmd.Flags().Changed("pdf-backend") {
		b, _ := cmd.Flags().GetString("pdf-backend")
		if _, err := renderer.ParseBackend(b); err != nil {
			return err
		}
		a.cfg.Merge.PDFBackend = b
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

	out, runErr := orch.MergeToMultiPage(cmd.Context(), mode, paths, dest, deleteSource(cmd, a.cfg.Merge.DeleteSource))
	return a.report(cmd, out, runErr)
}
