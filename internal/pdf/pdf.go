package pdf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrOutputExists is returned by ImportImages when the target already exists.
var ErrOutputExists = errors.New("pdf output already exists")

// importableExtensions are the image types pdfcpu can embed directly.
var importableExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tif":  true,
	".tiff": true,
}

// CanImport reports whether pdfcpu can embed the image at path without
// transcoding it first.
func CanImport(path string) bool {
	return importableExtensions[strings.ToLower(filepath.Ext(path))]
}

// ImportImages writes a new PDF at output with one page per image, in the
// order given.
func ImportImages(output string, images []string) error {
	if len(images) == 0 {
		return errors.New("no images to import")
	}
	if _, err := os.Stat(output); err == nil {
		// pdfcpu appends to an existing file instead of replacing it.
		return fmt.Errorf("%w: %s", ErrOutputExists, output)
	}
	for _, img := range images {
		if !CanImport(img) {
			return fmt.Errorf("unsupported image type for pdf import: %s", img)
		}
	}

	imp := pdfcpu.DefaultImportConfig()
	if err := api.ImportImagesFile(images, output, imp, model.NewDefaultConfiguration()); err != nil {
		_ = os.Remove(output)
		return fmt.Errorf("failed to import images into %s: %w", output, err)
	}
	return nil
}

// PageCount returns the number of pages in a PDF file.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages of %s: %w", path, err)
	}
	return n, nil
}

// Validate runs pdfcpu's structural validation against a PDF file.
func Validate(path string) error {
	if err := api.ValidateFile(path, model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("invalid pdf %s: %w", path, err)
	}
	return nil
}
