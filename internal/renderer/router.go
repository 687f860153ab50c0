package renderer

import (
	"context"
	"fmt"
	"strings"
)

// Backend names the implementation used for PDF merges.
type Backend string

const (
	BackendRenderer Backend = "renderer"
	BackendPDFCPU   Backend = "pdfcpu"
)

// ParseBackend parses a merge.pdf_backend value. Empty means renderer.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(BackendRenderer):
		return BackendRenderer, nil
	case string(BackendPDFCPU):
		return BackendPDFCPU, nil
	}
	return "", fmt.Errorf("invalid pdf backend %q (must be renderer or pdfcpu)", s)
}

// Router picks a backend per mode. TIFF always goes to the subprocess
// renderer; PDF goes wherever pdfBackend points.
type Router struct {
	subprocess Renderer
	native     Renderer
	pdfBackend Backend
}

// NewRouter builds a router. subprocess may be nil when no renderer
// executable is configured; merges that need it then fail with
// ErrNotConfigured.
func NewRouter(subprocess, native Renderer, pdfBackend Backend) *Router {
	return &Router{subprocess: subprocess, native: native, pdfBackend: pdfBackend}
}

// Select returns the backend for mode.
func (r *Router) Select(mode Mode) (Renderer, error) {
	switch mode {
	case ModeTIFF:
	case ModePDF:
		if r.pdfBackend == BackendPDFCPU {
			if r.native == nil {
				return nil, fmt.Errorf("%w: pdfcpu backend not available", ErrNotConfigured)
			}
			return r.native, nil
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
	}
	if r.subprocess == nil {
		return nil, ErrNotConfigured
	}
	return r.subprocess, nil
}

// Merge implements Renderer by delegating to the selected backend.
func (r *Router) Merge(ctx context.Context, mode Mode, output string, inputs []string) error {
	backend, err := r.Select(mode)
	if err != nil {
		return err
	}
	return backend.Merge(ctx, mode, output, inputs)
}
