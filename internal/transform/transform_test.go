package transform

import (
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"github.com/MeKo-Tech/tiffkit/internal/testutil"
	"github.com/MeKo-Tech/tiffkit/internal/utils"
)

func TestOpen_KeepsSourceFormat(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	p := testutil.WritePage(t, dir, "scan.png")

	h, err := NewProvider().Open(p)
	require.NoError(t, err)
	assert.Equal(t, imaging.PNG, h.Format)
	assert.Equal(t, p, h.Source)
	assert.Equal(t, utils.CompressionDeflate, h.Compression)
}

func TestOpen_Unreadable(t *testing.T) {
	dir := testutil.CreateTempDir(t)

	_, err := NewProvider().Open(filepath.Join(dir, "missing.png"))
	require.ErrorIs(t, err, ErrUnreadableImage)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	bad := testutil.WriteCorruptImage(t, dir, "bad.tiff")
	_, err = NewProvider().Open(bad)
	require.ErrorIs(t, err, ErrUnreadableImage)
	assert.NotErrorIs(t, err, fs.ErrNotExist)
}

func TestSave_ConvertsFormat(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	p := testutil.WritePage(t, dir, "scan.png")
	provider := NewProvider()

	h, err := provider.Open(p)
	require.NoError(t, err)
	h.Format = imaging.TIFF
	out := filepath.Join(dir, "scan.tiff")
	require.NoError(t, provider.Save(h, out))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	cfg, err := tiff.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, testutil.SmallSize.Width, cfg.Width)
}

func TestSave_Errors(t *testing.T) {
	provider := NewProvider()
	err := provider.Save(nil, "x.tiff")
	require.ErrorIs(t, err, ErrWrite)

	dir := testutil.CreateTempDir(t)
	h, err := provider.Open(testutil.WritePage(t, dir, "a.png"))
	require.NoError(t, err)
	err = provider.Save(h, filepath.Join(dir, "missing-dir", "a.png"))
	require.ErrorIs(t, err, ErrWrite)
}

func TestSetCompression_SwitchesToTIFF(t *testing.T) {
	h := &Handle{Format: imaging.PNG, Compression: utils.CompressionDeflate}
	NewProvider().SetCompression(h, utils.CompressionLZW)
	assert.Equal(t, imaging.TIFF, h.Format)
	assert.Equal(t, utils.CompressionLZW, h.Compression)
}

func TestRotate_ExpandAndFixedCanvas(t *testing.T) {
	provider := NewProvider(WithBackground(color.Black))
	h := &Handle{Image: testutil.CreateTestImage(40, 10, color.White), Format: imaging.PNG}

	expanded := provider.Rotate(h, 90, true)
	assert.Equal(t, 10, expanded.Image.Bounds().Dx())
	assert.Equal(t, 40, expanded.Image.Bounds().Dy())
	assert.Equal(t, imaging.PNG, expanded.Format)

	fixed := provider.Rotate(h, 90, false)
	assert.Equal(t, 40, fixed.Image.Bounds().Dx())
	assert.Equal(t, 10, fixed.Image.Bounds().Dy())
	// The 10x40 rotated strip is centered; the sides are background.
	assert.True(t, isColor(fixed.Image.At(20, 5), color.White), "center is image content")
	assert.True(t, isColor(fixed.Image.At(0, 0), color.Black), "left edge is background")
	assert.True(t, isColor(fixed.Image.At(39, 9), color.Black), "right edge is background")

	// Handles are not mutated in place.
	assert.Equal(t, 40, h.Image.Bounds().Dx())
}

func isColor(got, want color.Color) bool {
	r1, g1, b1, a1 := got.RGBA()
	r2, g2, b2, a2 := want.RGBA()
	return r1 == r2 && g1 == g2 && b1 == b2 && a1 == a2
}

func TestRotate_BackgroundFillsCorners(t *testing.T) {
	provider := NewProvider(WithBackground(color.RGBA{G: 255, A: 255}))
	h := &Handle{Image: testutil.CreateTestImage(20, 20, color.White)}

	out := provider.Rotate(h, 45, true)
	r, g, b, _ := out.Image.At(0, 0).RGBA()
	assert.Zero(t, r)
	assert.Equal(t, uint32(0xffff), g)
	assert.Zero(t, b)
}
