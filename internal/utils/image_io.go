package utils

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/hhrutter/tiff"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// SupportedImageExtensions lists supported file extensions for loading.
var SupportedImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif", ".tif", ".tiff"}

// IsSupportedImage reports whether the path has a supported image extension.
func IsSupportedImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedImageExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Format is an output image format.
type Format = imaging.Format

// ParseFormat maps a user supplied format name such as "tiff", "jpg" or
// ".png" to a Format.
func ParseFormat(name string) (Format, error) {
	f, err := imaging.FormatFromExtension(strings.TrimSpace(name))
	if err != nil {
		return f, fmt.Errorf("unsupported output format %q", name)
	}
	return f, nil
}

// FormatFromPath derives the format from a file name extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// FormatExtension returns the canonical file extension (with dot) for f.
func FormatExtension(f Format) string {
	switch f {
	case imaging.JPEG:
		return ".jpg"
	case imaging.PNG:
		return ".png"
	case imaging.GIF:
		return ".gif"
	case imaging.BMP:
		return ".bmp"
	default:
		return ".tiff"
	}
}

// Compression names a lossless TIFF compression scheme.
type Compression string

const (
	CompressionNone    Compression = "none"
	CompressionDeflate Compression = "deflate"
	CompressionLZW     Compression = "lzw"
)

// ParseCompression parses a scheme name. "zip" is accepted as an alias for
// deflate.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "deflate", "zip":
		return CompressionDeflate, nil
	case "lzw":
		return CompressionLZW, nil
	case "none", "uncompressed":
		return CompressionNone, nil
	}
	return "", fmt.Errorf("unsupported compression scheme %q (must be one of: deflate, lzw, none)", s)
}

// TIFFOptions returns the encoder options for the scheme. Encoding uses the
// hhrutter fork of x/image/tiff, which also writes LZW; decoding stays on
// x/image/tiff.
func (c Compression) TIFFOptions() *tiff.Options {
	switch c {
	case CompressionLZW:
		return &tiff.Options{Compression: tiff.LZW, Predictor: true}
	case CompressionNone:
		return &tiff.Options{Compression: tiff.Uncompressed}
	default:
		return &tiff.Options{Compression: tiff.Deflate}
	}
}

// ImageMetadata captures lightweight file and pixel information.
type ImageMetadata struct {
	Path      string
	Format    string
	SizeBytes int64
	Width     int
	Height    int
}

// LoadImage opens and decodes an image file, returning the image and metadata.
func LoadImage(path string) (image.Image, ImageMetadata, error) {
	if path == "" {
		err := &ImageProcessingError{Operation: "load", Err: errors.New("empty path")}
		return nil, ImageMetadata{}, err
	}
	if !IsSupportedImage(path) {
		err := &ImageProcessingError{Operation: "load", Err: fmt.Errorf("unsupported format: %s", filepath.Ext(path))}
		return nil, ImageMetadata{}, err
	}

	f, err := os.Open(path) //nolint:gosec // G304: Reading user-provided image file path is expected
	if err != nil {
		err = &ImageProcessingError{Operation: "load", Err: err}
		return nil, ImageMetadata{}, err
	}
	defer func() { _ = f.Close() }()

	fi, statErr := f.Stat()
	if statErr != nil {
		return nil, ImageMetadata{}, &ImageProcessingError{Operation: "load", Err: statErr}
	}

	img, decErr := imaging.Decode(f)
	if decErr != nil {
		return nil, ImageMetadata{}, &ImageProcessingError{Operation: "decode", Err: decErr}
	}

	format := ""
	if ff, err := FormatFromPath(path); err == nil {
		format = ff.String()
	}

	b := img.Bounds()
	meta := ImageMetadata{
		Path:      path,
		Format:    format,
		SizeBytes: fi.Size(),
		Width:     b.Dx(),
		Height:    b.Dy(),
	}

	return img, meta, nil
}

// EncodeImage writes img to w. TIFF output uses the given compression
// scheme; other formats use imaging's encoders and ignore it.
func EncodeImage(w io.Writer, img image.Image, format Format, compression Compression) error {
	if img == nil {
		return &ImageProcessingError{Operation: "encode", Err: errors.New("input image is nil")}
	}
	var err error
	if format == imaging.TIFF {
		err = tiff.Encode(w, img, compression.TIFFOptions())
	} else {
		err = imaging.Encode(w, img, format)
	}
	if err != nil {
		return &ImageProcessingError{Operation: "encode", Err: err}
	}
	return nil
}

// SaveImage encodes img into path. The data is written to a temporary file
// in the same directory and renamed into place, so an existing file at path
// is only replaced by a complete encode.
func SaveImage(img image.Image, path string, format Format, compression Compression) (int64, error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return 0, &ImageProcessingError{Operation: "save", Err: err}
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if err := EncodeImage(tmp, img, format, compression); err != nil {
		_ = tmp.Close()
		cleanup()
		return 0, err
	}
	fi, err := tmp.Stat()
	if err != nil {
		_ = tmp.Close()
		cleanup()
		return 0, &ImageProcessingError{Operation: "save", Err: err}
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return 0, &ImageProcessingError{Operation: "save", Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil { //nolint:gosec // G302: archival images are meant to be world readable
		cleanup()
		return 0, &ImageProcessingError{Operation: "save", Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return 0, &ImageProcessingError{Operation: "save", Err: err}
	}
	return fi.Size(), nil
}
