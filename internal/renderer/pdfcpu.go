package renderer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/tiffkit/internal/pdf"
	"github.com/MeKo-Tech/tiffkit/internal/utils"
)

// PDFCPU builds PDFs in-process with pdfcpu. Inputs pdfcpu cannot embed
// (BMP, GIF) are transcoded to PNG in a scratch directory first.
type PDFCPU struct {
	logger *slog.Logger
}

// NewPDFCPU constructs the in-process PDF backend.
func NewPDFCPU(logger *slog.Logger) *PDFCPU {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFCPU{logger: logger}
}

// Merge implements Renderer. Only ModePDF is supported.
func (p *PDFCPU) Merge(ctx context.Context, mode Mode, output string, inputs []string) error {
	if mode != ModePDF {
		return fmt.Errorf("%w: pdfcpu cannot write %s", ErrUnsupportedMode, mode)
	}

	pages, cleanup, err := p.prepare(ctx, inputs)
	defer cleanup()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRendererFailed, err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrRendererFailed, err)
	}

	if err := pdf.ImportImages(output, pages); err != nil {
		return fmt.Errorf("%w: %w", ErrRendererFailed, err)
	}
	p.logger.Info("pdfcpu import finished", "output", output, "pages", len(pages))
	return nil
}

func (p *PDFCPU) prepare(ctx context.Context, inputs []string) ([]string, func(), error) {
	scratch := ""
	cleanup := func() {
		if scratch != "" {
			_ = os.RemoveAll(scratch)
		}
	}

	pages := make([]string, 0, len(inputs))
	for i, in := range inputs {
		if pdf.CanImport(in) {
			pages = append(pages, in)
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, cleanup, err
		}
		if scratch == "" {
			dir, err := os.MkdirTemp("", "tiffkit-pdf-*")
			if err != nil {
				return nil, cleanup, fmt.Errorf("create scratch dir: %w", err)
			}
			scratch = dir
		}
		img, _, err := utils.LoadImage(in)
		if err != nil {
			return nil, cleanup, err
		}
		base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
		png := filepath.Join(scratch, strconv.Itoa(i)+"_"+base+".png")
		if _, err := utils.SaveImage(img, png, imaging.PNG, utils.CompressionNone); err != nil {
			return nil, cleanup, err
		}
		p.logger.Debug("transcoded page for pdf import", "file", in, "output", png)
		pages = append(pages, png)
	}
	return pages, cleanup, nil
}
