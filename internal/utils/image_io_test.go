package utils

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"github.com/MeKo-Tech/tiffkit/internal/testutil"
)

func TestIsSupportedImage(t *testing.T) {
	cases := []struct {
		path string
		ok   bool
	}{
		{"a.jpg", true},
		{"b.jpeg", true},
		{"c.png", true},
		{"d.bmp", true},
		{"e.tiff", true},
		{"e.TIF", true},
		{"f.gif", true},
		{"g.webp", false},
		{"noext", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, IsSupportedImage(c.path), c.path)
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("tiff")
	require.NoError(t, err)
	assert.Equal(t, imaging.TIFF, f)

	f, err = ParseFormat(".JPG")
	require.NoError(t, err)
	assert.Equal(t, imaging.JPEG, f)

	_, err = ParseFormat("webp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestFormatExtension(t *testing.T) {
	assert.Equal(t, ".tiff", FormatExtension(imaging.TIFF))
	assert.Equal(t, ".jpg", FormatExtension(imaging.JPEG))
	assert.Equal(t, ".png", FormatExtension(imaging.PNG))
	assert.Equal(t, ".gif", FormatExtension(imaging.GIF))
	assert.Equal(t, ".bmp", FormatExtension(imaging.BMP))
}

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]Compression{
		"":        CompressionDeflate,
		"deflate": CompressionDeflate,
		"ZIP":     CompressionDeflate,
		"lzw":     CompressionLZW,
		"none":    CompressionNone,
	} {
		got, err := ParseCompression(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseCompression("jpeg")
	assert.Error(t, err)
}

func writeTempPNG(t *testing.T, dir string, w, h int, col color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, col)
		}
	}
	path := filepath.Join(dir, "test.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, f.Close())
	}()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestLoadImageAndMetadata(t *testing.T) {
	dir := t.TempDir()
	p := writeTempPNG(t, dir, 10, 20, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	img, meta, err := LoadImage(p)
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, 10, meta.Width)
	assert.Equal(t, 20, meta.Height)
	assert.Equal(t, "PNG", meta.Format)
	assert.Positive(t, meta.SizeBytes)
	assert.Equal(t, p, meta.Path)
}

func TestLoadImage_Errors(t *testing.T) {
	_, _, err := LoadImage("")
	require.Error(t, err)

	_, _, err = LoadImage("file.webp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")

	_, _, err = LoadImage(filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	var ipe *ImageProcessingError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "load", ipe.Operation)

	corrupt := filepath.Join(t.TempDir(), "corrupt.png")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a png"), 0o600))
	_, _, err = LoadImage(corrupt)
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "decode", ipe.Operation)
}

func TestEncodeImage_TIFFCompression(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 64, 64))

	for _, c := range []Compression{CompressionNone, CompressionDeflate, CompressionLZW} {
		var buf bytes.Buffer
		require.NoError(t, EncodeImage(&buf, img, imaging.TIFF, c), c)

		decoded, err := tiff.Decode(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err, c)
		assert.Equal(t, img.Bounds(), decoded.Bounds(), c)
	}
}

func TestSaveImage_TIFFSchemesRoundTrip(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 48, 32))
	for y := range 32 {
		for x := range 48 {
			src.Set(x, y, color.NRGBA{R: uint8(x * 5), G: uint8(y * 7), B: uint8(x ^ y), A: 255})
		}
	}

	tests := []struct {
		scheme Compression
		tag    uint16
	}{
		{CompressionNone, testutil.TIFFCompressionNone},
		{CompressionDeflate, testutil.TIFFCompressionDeflate},
		{CompressionLZW, testutil.TIFFCompressionLZW},
	}
	for _, tt := range tests {
		t.Run(string(tt.scheme), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "page.tiff")
			_, err := SaveImage(src, path, imaging.TIFF, tt.scheme)
			require.NoError(t, err)

			tag, err := testutil.TIFFCompression(path)
			require.NoError(t, err)
			assert.Equal(t, tt.tag, tag)

			got, _, err := LoadImage(path)
			require.NoError(t, err)
			assert.True(t, testutil.CompareImages(src, got, 0), "pixels survive %s", tt.scheme)
		})
	}
}

func TestEncodeImage_NilImage(t *testing.T) {
	var buf bytes.Buffer
	err := EncodeImage(&buf, nil, imaging.PNG, CompressionNone)
	require.Error(t, err)
}

func TestSaveImage_ReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.tiff")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0o600))

	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	size, err := SaveImage(img, target, imaging.TIFF, CompressionDeflate)
	require.NoError(t, err)
	assert.Positive(t, size)

	loaded, meta, err := LoadImage(target)
	require.NoError(t, err)
	assert.Equal(t, 8, loaded.Bounds().Dx())
	assert.Equal(t, size, meta.SizeBytes)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must not be left behind")
}

func TestSaveImage_MissingDirectory(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	_, err := SaveImage(img, filepath.Join(t.TempDir(), "nope", "x.png"), imaging.PNG, CompressionNone)
	require.Error(t, err)
	var ipe *ImageProcessingError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "save", ipe.Operation)
}
