// Package transform is the image transform provider used by the batch
// orchestrator. Files are opened into handles that are edited in memory
// and saved back out.
package transform

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/tiffkit/internal/utils"
)

var (
	// ErrUnreadableImage is returned when a file cannot be opened or decoded.
	ErrUnreadableImage = errors.New("unreadable image")
	// ErrWrite is returned when an encoded image cannot be written.
	ErrWrite = errors.New("cannot write image")
)

// Handle is an opened image plus the encoding it will be saved with.
type Handle struct {
	Image       image.Image
	Source      string
	Format      utils.Format
	Compression utils.Compression
}

// Provider loads images into handles and writes them back.
type Provider interface {
	Open(path string) (*Handle, error)
	Save(h *Handle, path string) error
	SetCompression(h *Handle, scheme utils.Compression)
	Rotate(h *Handle, degrees float64, expand bool) *Handle
}

// Option configures an ImagingProvider.
type Option func(*ImagingProvider)

// WithBackground sets the fill color for corners uncovered by rotation.
func WithBackground(c color.Color) Option {
	return func(p *ImagingProvider) {
		if c != nil {
			p.background = c
		}
	}
}

// WithCompression sets the TIFF compression applied to newly opened handles.
func WithCompression(c utils.Compression) Option {
	return func(p *ImagingProvider) {
		if c != "" {
			p.compression = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *ImagingProvider) {
		if l != nil {
			p.logger = l
		}
	}
}

// ImagingProvider implements Provider on top of imaging and x/image/tiff.
type ImagingProvider struct {
	background  color.Color
	compression utils.Compression
	logger      *slog.Logger
}

// NewProvider creates a provider with a white rotation background and
// deflate TIFF compression unless overridden.
func NewProvider(opts ...Option) *ImagingProvider {
	p := &ImagingProvider{
		background:  color.White,
		compression: utils.CompressionDeflate,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Open decodes the image at path. The handle keeps the source format.
func (p *ImagingProvider) Open(path string) (*Handle, error) {
	img, meta, err := utils.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadableImage, path, err)
	}
	format, err := utils.FormatFromPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadableImage, path, err)
	}
	p.logger.Debug("opened image", "file", path, "format", meta.Format,
		"width", meta.Width, "height", meta.Height)
	return &Handle{
		Image:       img,
		Source:      path,
		Format:      format,
		Compression: p.compression,
	}, nil
}

// Save encodes the handle to path in the handle's format. An existing file
// at path, including the handle's own source, is replaced atomically.
func (p *ImagingProvider) Save(h *Handle, path string) error {
	if h == nil || h.Image == nil {
		return fmt.Errorf("%w: %s: empty handle", ErrWrite, path)
	}
	if _, err := utils.SaveImage(h.Image, path, h.Format, h.Compression); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	return nil
}

// SetCompression selects a lossless TIFF compression scheme for the handle.
// Compression only exists for TIFF, so the handle is switched to TIFF.
func (p *ImagingProvider) SetCompression(h *Handle, scheme utils.Compression) {
	h.Format = imaging.TIFF
	h.Compression = scheme
}

// Rotate returns a new handle rotated counter-clockwise by degrees. With
// expand the canvas grows to fit the rotated image. Otherwise the canvas
// keeps the original size: the rotated image is centered on it, clipped
// where it overhangs and padded with the background where it falls short.
func (p *ImagingProvider) Rotate(h *Handle, degrees float64, expand bool) *Handle {
	rotated, err := utils.RotateImage(h.Image, degrees, p.background)
	if err != nil {
		return h
	}
	var out image.Image = rotated
	if !expand {
		b := h.Image.Bounds()
		out = imaging.PasteCenter(imaging.New(b.Dx(), b.Dy(), p.background), rotated)
	}
	return &Handle{
		Image:       out,
		Source:      h.Source,
		Format:      h.Format,
		Compression: h.Compression,
	}
}
