package renderer

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/image/tiff"

	"github.com/MeKo-Tech/tiffkit/internal/pdf"
)

var (
	// ErrOutputMissing means the renderer exited but left no output file.
	ErrOutputMissing = errors.New("renderer output missing")
	// ErrOutputEmpty means the output file has zero length.
	ErrOutputEmpty = errors.New("renderer output empty")
	// ErrOutputInvalid means the output does not parse as the expected container.
	ErrOutputInvalid = errors.New("renderer output invalid")
)

// Verify checks that a merge left a usable container at path. The file must
// be non-empty and parse as a TIFF header or as a valid PDF with pages.
func Verify(mode Mode, path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrOutputMissing, path)
	}
	if err != nil {
		return fmt.Errorf("stat output: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrOutputEmpty, path)
	}

	switch mode {
	case ModeTIFF:
		return probeTIFF(path)
	case ModePDF:
		if err := pdf.Validate(path); err != nil {
			return fmt.Errorf("%w: %w", ErrOutputInvalid, err)
		}
		n, err := pdf.PageCount(path)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrOutputInvalid, err)
		}
		if n < 1 {
			return fmt.Errorf("%w: %s has no pages", ErrOutputInvalid, path)
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
}

func probeTIFF(path string) error {
	f, err := os.Open(path) //nolint:gosec // G304: probing renderer output
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := tiff.DecodeConfig(f); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrOutputInvalid, path, err)
	}
	return nil
}
