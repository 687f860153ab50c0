// Package renderer builds multi-page TIFF and PDF containers from ordered
// lists of page images, either through the IrfanView command line or, for
// PDF, in-process through pdfcpu.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRendererFailed wraps every merge failure: non-zero exit, timeout,
	// missing or empty output, or a failed format probe.
	ErrRendererFailed = errors.New("renderer failed")
	// ErrUnsafePath is returned for paths the renderer's list syntax cannot carry.
	ErrUnsafePath = errors.New("path cannot be passed to renderer")
	// ErrUnsupportedMode is returned when a backend cannot produce the requested container.
	ErrUnsupportedMode = errors.New("unsupported merge mode")
	// ErrNotConfigured is returned when no renderer executable is configured.
	ErrNotConfigured = errors.New("renderer executable not configured")
)

// Mode selects the multi-page container type.
type Mode string

const (
	ModeTIFF Mode = "tiff"
	ModePDF  Mode = "pdf"
)

// ParseMode parses "tiff" (or "tif") and "pdf".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tiff", "tif":
		return ModeTIFF, nil
	case "pdf":
		return ModePDF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedMode, s)
}

// Extension returns the output file extension, with dot.
func (m Mode) Extension() string {
	if m == ModePDF {
		return ".pdf"
	}
	return ".tiff"
}

func (m Mode) String() string { return string(m) }

// Renderer merges inputs, in order, into a single multi-page file at output.
type Renderer interface {
	Merge(ctx context.Context, mode Mode, output string, inputs []string) error
}
